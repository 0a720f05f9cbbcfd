package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carcraze/marketplace-api/internal/model"
)

type RentalRepository interface {
	Create(ctx context.Context, rental *model.Rental) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Rental, error)
}

type pgRentalRepo struct{ db DBTX }

func NewRentalRepository(pool *pgxpool.Pool) RentalRepository {
	return &pgRentalRepo{db: pool}
}

func (r *pgRentalRepo) Create(ctx context.Context, rental *model.Rental) error {
	rental.ID = uuid.New()
	err := r.db.QueryRow(ctx,
		`INSERT INTO rentals (id, car_id, customer_id, start_date, end_date, price_per_day, total_amount, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW()) RETURNING created_at`,
		rental.ID, rental.CarID, rental.CustomerID, rental.StartDate, rental.EndDate,
		rental.PricePerDay, rental.TotalAmount, rental.Status,
	).Scan(&rental.CreatedAt)
	if err != nil {
		return fmt.Errorf("create rental: %w", err)
	}
	return nil
}

func (r *pgRentalRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Rental, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, car_id, customer_id, start_date, end_date, price_per_day, total_amount, status, created_at
		 FROM rentals WHERE customer_id = $1 ORDER BY created_at DESC`, customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rentals: %w", err)
	}
	defer rows.Close()

	rentals := []model.Rental{}
	for rows.Next() {
		var rt model.Rental
		if err := rows.Scan(&rt.ID, &rt.CarID, &rt.CustomerID, &rt.StartDate, &rt.EndDate,
			&rt.PricePerDay, &rt.TotalAmount, &rt.Status, &rt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rental: %w", err)
		}
		rentals = append(rentals, rt)
	}
	return rentals, rows.Err()
}
