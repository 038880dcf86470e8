package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"rentchat/internal/domain/entity"
	"rentchat/internal/domain/repository"
)

type gormMemberRepository struct {
	db *gorm.DB
}

func NewGormMemberRepository(db *gorm.DB) repository.MemberRepository {
	return &gormMemberRepository{db: db}
}

func (r *gormMemberRepository) Create(ctx context.Context, member *entity.Member) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	now := time.Now()
	member.CreatedAt = now
	member.UpdatedAt = now

	if err := gormConn(ctx, r.db).Create(member).Error; err != nil {
		return gormError(err, "Member", "create")
	}
	return nil
}

func (r *gormMemberRepository) GetByID(ctx context.Context, id string) (*entity.Member, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *gormMemberRepository) GetByEmail(ctx context.Context, email string) (*entity.Member, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *gormMemberRepository) GetByNickname(ctx context.Context, nickname string) (*entity.Member, error) {
	return r.first(ctx, "nickname = ?", nickname)
}

func (r *gormMemberRepository) first(ctx context.Context, query string, arg string) (*entity.Member, error) {
	var member entity.Member
	if err := gormConn(ctx, r.db).Where(query, arg).First(&member).Error; err != nil {
		return nil, gormError(err, "Member", "get")
	}
	return &member, nil
}
