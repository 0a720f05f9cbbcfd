package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/carcraze/marketplace-api/internal/dto"
	"github.com/carcraze/marketplace-api/internal/model"
	"github.com/carcraze/marketplace-api/internal/repository"
)

const (
	carCacheTTL = 60 * time.Second
	minCarYear  = 1886
	priceScale  = 2
)

// maxCarPrice is the first value that no longer fits NUMERIC(12,2).
var maxCarPrice = decimal.New(1, 10)

// Cache is the subset of *redis.Client used for the listing read-through cache.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type CatalogService struct {
	carRepo repository.CarRepository
	cache   Cache
}

func NewCatalogService(carRepo repository.CarRepository, cache Cache) *CatalogService {
	return &CatalogService{carRepo: carRepo, cache: cache}
}

func carCacheKey(id uuid.UUID) string {
	return "car:" + id.String()
}

func (s *CatalogService) ListActiveCars(ctx context.Context) (*dto.CarListResponse, error) {
	cars, err := s.carRepo.ListByStatus(ctx, model.CarStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active cars: %w", err)
	}
	resp := dto.NewCarListResponse(cars)
	return &resp, nil
}

func (s *CatalogService) ListSellerCars(ctx context.Context, sellerID uuid.UUID) (*dto.CarListResponse, error) {
	cars, err := s.carRepo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list seller cars: %w", err)
	}
	resp := dto.NewCarListResponse(cars)
	return &resp, nil
}

func (s *CatalogService) GetCar(ctx context.Context, id uuid.UUID) (*dto.CarResponse, error) {
	key := carCacheKey(id)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			var resp dto.CarResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		}
	}

	car, err := s.carRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get car: %w", err)
	}
	if car == nil {
		return nil, ErrCarNotFound
	}

	resp := dto.NewCarResponse(car)

	if s.cache != nil {
		if data, err := json.Marshal(resp); err == nil {
			s.cache.Set(ctx, key, data, carCacheTTL)
		}
	}

	return &resp, nil
}

func (s *CatalogService) CreateCar(ctx context.Context, sellerID uuid.UUID, req dto.CreateCarRequest) (*dto.CarResponse, error) {
	car := &model.Car{
		SellerID:     sellerID,
		Brand:        strings.TrimSpace(req.Brand),
		Model:        strings.TrimSpace(req.Model),
		Year:         req.Year,
		Capacity:     req.Capacity,
		FuelType:     req.FuelType,
		Transmission: req.Transmission,
		Description:  req.Description,
		Color:        req.Color,
		Mileage:      req.Mileage,
		Location:     req.Location,
		Images:       req.Images,
		ListingType:  req.ListingType,
		Price:        req.Price,
		Status:       model.CarStatusActive,
	}
	if req.Availability != nil {
		car.Availability = &model.Availability{StartDate: req.Availability.StartDate, EndDate: req.Availability.EndDate}
	}
	if err := validateCar(car); err != nil {
		return nil, err
	}

	if err := s.carRepo.Create(ctx, car); err != nil {
		return nil, fmt.Errorf("create car: %w", err)
	}
	resp := dto.NewCarResponse(car)
	return &resp, nil
}

// UpdateCar applies a partial update to a listing owned by sellerID. Listings
// of other sellers are reported as missing.
func (s *CatalogService) UpdateCar(ctx context.Context, sellerID, carID uuid.UUID, req dto.UpdateCarRequest) (*dto.CarResponse, error) {
	car, err := s.ownedCar(ctx, sellerID, carID)
	if err != nil {
		return nil, err
	}

	if req.Brand != nil {
		car.Brand = strings.TrimSpace(*req.Brand)
	}
	if req.Model != nil {
		car.Model = strings.TrimSpace(*req.Model)
	}
	if req.Year != nil {
		car.Year = *req.Year
	}
	if req.Capacity != nil {
		car.Capacity = *req.Capacity
	}
	if req.FuelType != nil {
		car.FuelType = *req.FuelType
	}
	if req.Transmission != nil {
		car.Transmission = *req.Transmission
	}
	if req.Description != nil {
		car.Description = *req.Description
	}
	if req.Color != nil {
		car.Color = *req.Color
	}
	if req.Mileage != nil {
		car.Mileage = *req.Mileage
	}
	if req.Location != nil {
		car.Location = *req.Location
	}
	if req.Images != nil {
		car.Images = req.Images
	}
	if req.ListingType != nil {
		car.ListingType = *req.ListingType
	}
	if req.Price != nil {
		car.Price = *req.Price
	}
	if req.Availability != nil {
		car.Availability = &model.Availability{StartDate: req.Availability.StartDate, EndDate: req.Availability.EndDate}
	}
	if req.Status != nil {
		car.Status = *req.Status
	}
	if err := validateCar(car); err != nil {
		return nil, err
	}

	updated, err := s.carRepo.Update(ctx, car)
	if err != nil {
		return nil, fmt.Errorf("update car: %w", err)
	}
	if !updated {
		s.invalidateCache(ctx, carID)
		return nil, ErrCarNotFound
	}

	s.invalidateCache(ctx, carID)
	resp := dto.NewCarResponse(car)
	return &resp, nil
}

func (s *CatalogService) DeleteCar(ctx context.Context, sellerID, carID uuid.UUID) error {
	deleted, err := s.carRepo.Delete(ctx, carID, sellerID)
	if err != nil {
		return fmt.Errorf("delete car: %w", err)
	}
	if !deleted {
		return ErrCarNotFound
	}
	s.invalidateCache(ctx, carID)
	return nil
}

func (s *CatalogService) ownedCar(ctx context.Context, sellerID, carID uuid.UUID) (*model.Car, error) {
	car, err := s.carRepo.GetByID(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("get car: %w", err)
	}
	if car == nil || car.SellerID != sellerID {
		return nil, ErrCarNotFound
	}
	return car, nil
}

func (s *CatalogService) invalidateCache(ctx context.Context, id uuid.UUID) {
	if s.cache != nil {
		s.cache.Del(ctx, carCacheKey(id))
	}
}

// validateCar normalizes availability and checks the listing invariants.
func validateCar(car *model.Car) error {
	if car.Brand == "" || car.Model == "" {
		return validationError("brand and model are required")
	}
	if car.Year < minCarYear {
		return validationError(fmt.Sprintf("year must be %d or later", minCarYear))
	}
	if !car.Price.IsPositive() {
		return validationError("price must be greater than zero")
	}
	if !car.Price.Equal(car.Price.Round(priceScale)) {
		return validationError("price must have at most 2 decimal places")
	}
	if car.Price.GreaterThanOrEqual(maxCarPrice) {
		return validationError("price must be less than " + maxCarPrice.String())
	}
	if !car.ListingType.Valid() {
		return validationError("listing type must be one of sale_new, sale_old, rent")
	}
	if !car.Status.Valid() {
		return validationError("status must be one of active, sold, rented, inactive")
	}
	if car.ListingType != model.ListingTypeRental {
		car.Availability = nil
		return nil
	}
	if a := car.Availability; a != nil && !a.EndDate.After(a.StartDate) {
		return validationError("availability end date must be after start date")
	}
	return nil
}
