package usecase

import (
	"context"

	"rentchat/internal/domain/entity"
	"rentchat/internal/domain/repository"
	"rentchat/pkg/errors"
	"rentchat/pkg/logger"
)

type RentalUseCase struct {
	rentalRepo repository.RentalRepository
	memberRepo repository.MemberRepository
	transactor repository.Transactor
}

func NewRentalUseCase(rentalRepo repository.RentalRepository, memberRepo repository.MemberRepository, transactor repository.Transactor) *RentalUseCase {
	return &RentalUseCase{
		rentalRepo: rentalRepo,
		memberRepo: memberRepo,
		transactor: transactor,
	}
}

type RentalInput struct {
	Title     string
	Content   string
	Category  string
	RentalFee int64
	Deposit   int64
	Latitude  float64
	Longitude float64
	District  string
}

func (in RentalInput) apply(rental *entity.Rental) {
	rental.Title = in.Title
	rental.Content = in.Content
	rental.Category = in.Category
	rental.RentalFee = in.RentalFee
	rental.Deposit = in.Deposit
	rental.Latitude = in.Latitude
	rental.Longitude = in.Longitude
	rental.District = in.District
}

func (uc *RentalUseCase) CreateRental(ctx context.Context, email string, input RentalInput) (*entity.Rental, error) {
	owner, err := uc.memberRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	rental := &entity.Rental{MemberID: owner.ID}
	input.apply(rental)

	if err := uc.rentalRepo.Create(ctx, rental); err != nil {
		logger.Error("CreateRental: member %s: %v", owner.ID, err)
		return nil, err
	}
	return rental, nil
}

func (uc *RentalUseCase) GetRental(ctx context.Context, id string) (*entity.Rental, error) {
	return uc.rentalRepo.GetByID(ctx, id)
}

func (uc *RentalUseCase) UpdateRental(ctx context.Context, email, id string, input RentalInput) (*entity.Rental, error) {
	var rental *entity.Rental

	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		rental, err = uc.ownedRental(ctx, email, id)
		if err != nil {
			return err
		}
		input.apply(rental)
		return uc.rentalRepo.Update(ctx, rental)
	})
	if err != nil {
		logger.Error("UpdateRental: rental %s: %v", id, err)
		return nil, err
	}
	return rental, nil
}

func (uc *RentalUseCase) DeleteRental(ctx context.Context, email, id string) error {
	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := uc.ownedRental(ctx, email, id); err != nil {
			return err
		}
		return uc.rentalRepo.Delete(ctx, id)
	})
	if err != nil {
		logger.Error("DeleteRental: rental %s: %v", id, err)
	}
	return err
}

func (uc *RentalUseCase) ownedRental(ctx context.Context, email, id string) (*entity.Rental, error) {
	rental, err := uc.rentalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	member, err := uc.memberRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !rental.IsOwnedBy(member.ID) {
		return nil, errors.Forbidden("You do not own this rental", nil)
	}
	return rental, nil
}
