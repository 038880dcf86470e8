package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"rentchat/internal/domain/entity"
	"rentchat/internal/domain/repository"
	"rentchat/pkg/errors"
)

type firestoreRentalRepository struct {
	client *firestore.Client
}

func NewFirestoreRentalRepository(client *firestore.Client) repository.RentalRepository {
	return &firestoreRentalRepository{
		client: client,
	}
}

func (r *firestoreRentalRepository) Create(ctx context.Context, rental *entity.Rental) error {
	if rental.ID == "" {
		rental.ID = uuid.New().String()
	}
	now := time.Now()
	rental.CreatedAt = now
	rental.UpdatedAt = now

	if err := setDoc(ctx, r.client.Collection(rentalsCollection).Doc(rental.ID), rental); err != nil {
		return errors.Internal("Failed to create rental", err)
	}
	return nil
}

func (r *firestoreRentalRepository) GetByID(ctx context.Context, id string) (*entity.Rental, error) {
	doc, err := getDoc(ctx, r.client.Collection(rentalsCollection).Doc(id))
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Rental", err)
		}
		return nil, errors.Internal("Failed to get rental", err)
	}

	var rental entity.Rental
	if err := doc.DataTo(&rental); err != nil {
		return nil, errors.Internal("Failed to parse rental data", err)
	}
	return &rental, nil
}

func (r *firestoreRentalRepository) Update(ctx context.Context, rental *entity.Rental) error {
	rental.UpdatedAt = time.Now()
	if err := setDoc(ctx, r.client.Collection(rentalsCollection).Doc(rental.ID), rental); err != nil {
		return errors.Internal("Failed to update rental", err)
	}
	return nil
}

func (r *firestoreRentalRepository) Delete(ctx context.Context, id string) error {
	if err := deleteDoc(ctx, r.client.Collection(rentalsCollection).Doc(id)); err != nil {
		return errors.Internal("Failed to delete rental", err)
	}
	return nil
}
