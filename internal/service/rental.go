package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carcraze/marketplace-api/internal/model"
	"github.com/carcraze/marketplace-api/internal/repository"
)

type RentalService struct {
	carRepo    repository.CarRepository
	rentalRepo repository.RentalRepository
}

func NewRentalService(carRepo repository.CarRepository, rentalRepo repository.RentalRepository) *RentalService {
	return &RentalService{carRepo: carRepo, rentalRepo: rentalRepo}
}

// BookRental books an active rent listing. Partial days are charged as whole days.
func (s *RentalService) BookRental(ctx context.Context, customerID, carID uuid.UUID, start, end time.Time) (*model.Rental, error) {
	if !end.After(start) {
		return nil, ErrInvalidRentalDates
	}

	car, err := s.carRepo.GetByID(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("get car: %w", err)
	}
	if car == nil {
		return nil, ErrCarNotFound
	}
	if car.ListingType != model.ListingTypeRental || car.Status != model.CarStatusActive {
		return nil, ErrRentalNotOffered
	}
	if a := car.Availability; a != nil && (start.Before(a.StartDate) || end.After(a.EndDate)) {
		return nil, ErrRentalOutsideAvailability
	}

	days := rentalDays(start, end)
	rental := &model.Rental{
		CarID:       carID,
		CustomerID:  customerID,
		StartDate:   start.UTC(),
		EndDate:     end.UTC(),
		PricePerDay: car.Price,
		TotalAmount: car.Price.Mul(decimal.NewFromInt(days)),
		Status:      model.RentalStatusBooked,
	}
	if err := s.rentalRepo.Create(ctx, rental); err != nil {
		return nil, fmt.Errorf("create rental: %w", err)
	}
	return rental, nil
}

func (s *RentalService) ListRentals(ctx context.Context, customerID uuid.UUID) ([]model.Rental, error) {
	rentals, err := s.rentalRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list rentals: %w", err)
	}
	return rentals, nil
}

func rentalDays(start, end time.Time) int64 {
	return int64(math.Ceil(end.Sub(start).Hours() / 24))
}
