package repository

import (
	"context"

	"rentchat/internal/domain/entity"
)

type RentalRepository interface {
	Create(ctx context.Context, rental *entity.Rental) error
	GetByID(ctx context.Context, id string) (*entity.Rental, error)
	Update(ctx context.Context, rental *entity.Rental) error
	Delete(ctx context.Context, id string) error
}
