package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"rentchat/internal/domain/entity"
	"rentchat/internal/domain/repository"
	"rentchat/pkg/errors"
)

type gormRentalRepository struct {
	db *gorm.DB
}

func NewGormRentalRepository(db *gorm.DB) repository.RentalRepository {
	return &gormRentalRepository{db: db}
}

func (r *gormRentalRepository) Create(ctx context.Context, rental *entity.Rental) error {
	if rental.ID == "" {
		rental.ID = uuid.New().String()
	}
	now := time.Now()
	rental.CreatedAt = now
	rental.UpdatedAt = now

	if err := gormConn(ctx, r.db).Create(rental).Error; err != nil {
		return gormError(err, "Rental", "create")
	}
	return nil
}

func (r *gormRentalRepository) GetByID(ctx context.Context, id string) (*entity.Rental, error) {
	var rental entity.Rental
	if err := gormConn(ctx, r.db).Where("id = ?", id).First(&rental).Error; err != nil {
		return nil, gormError(err, "Rental", "get")
	}
	return &rental, nil
}

func (r *gormRentalRepository) Update(ctx context.Context, rental *entity.Rental) error {
	rental.UpdatedAt = time.Now()
	if err := gormConn(ctx, r.db).Save(rental).Error; err != nil {
		return gormError(err, "Rental", "update")
	}
	return nil
}

func (r *gormRentalRepository) Delete(ctx context.Context, id string) error {
	result := gormConn(ctx, r.db).Where("id = ?", id).Delete(&entity.Rental{})
	if result.Error != nil {
		return gormError(result.Error, "Rental", "delete")
	}
	if result.RowsAffected == 0 {
		return errors.NotFound("Rental", nil)
	}
	return nil
}
