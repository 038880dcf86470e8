package repository

import (
	"context"

	"rentchat/internal/domain/entity"
)

// Lookups return an errors.NotFound("Member", ...) AppError when nothing matches.
type MemberRepository interface {
	Create(ctx context.Context, member *entity.Member) error
	GetByID(ctx context.Context, id string) (*entity.Member, error)
	GetByEmail(ctx context.Context, email string) (*entity.Member, error)
	GetByNickname(ctx context.Context, nickname string) (*entity.Member, error)
}
