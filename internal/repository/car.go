package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carcraze/marketplace-api/internal/model"
)

type CarRepository interface {
	WithTx(tx pgx.Tx) CarRepository
	Create(ctx context.Context, car *model.Car) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Car, error)
	ListByStatus(ctx context.Context, status model.CarStatus) ([]model.Car, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]model.Car, error)
	Update(ctx context.Context, car *model.Car) (bool, error)
	Delete(ctx context.Context, id, sellerID uuid.UUID) (bool, error)
}

type pgCarRepo struct{ db DBTX }

func NewCarRepository(pool *pgxpool.Pool) CarRepository {
	return &pgCarRepo{db: pool}
}

func (r *pgCarRepo) WithTx(tx pgx.Tx) CarRepository {
	return &pgCarRepo{db: pick(r.db, tx)}
}

const carColumns = `id, seller_id, brand, model, year, capacity, fuel_type, transmission, description,
	color, mileage, location, images, listing_type, price, available_from, available_to, status,
	created_at, updated_at`

func scanCar(row pgx.Row, c *model.Car) error {
	var from, to *time.Time
	err := row.Scan(
		&c.ID, &c.SellerID, &c.Brand, &c.Model, &c.Year, &c.Capacity, &c.FuelType, &c.Transmission,
		&c.Description, &c.Color, &c.Mileage, &c.Location, &c.Images, &c.ListingType, &c.Price,
		&from, &to, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	c.Availability = nil
	if from != nil && to != nil {
		c.Availability = &model.Availability{StartDate: *from, EndDate: *to}
	}
	return nil
}

func availabilityArgs(a *model.Availability) (from, to *time.Time) {
	if a == nil {
		return nil, nil
	}
	return &a.StartDate, &a.EndDate
}

func (r *pgCarRepo) Create(ctx context.Context, car *model.Car) error {
	car.ID = uuid.New()
	if car.Images == nil {
		car.Images = []string{}
	}
	from, to := availabilityArgs(car.Availability)
	query := `INSERT INTO cars (id, seller_id, brand, model, year, capacity, fuel_type, transmission, description,
				color, mileage, location, images, listing_type, price, available_from, available_to, status,
				created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW())
			  RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		car.ID, car.SellerID, car.Brand, car.Model, car.Year, car.Capacity, car.FuelType, car.Transmission,
		car.Description, car.Color, car.Mileage, car.Location, car.Images, car.ListingType, car.Price,
		from, to, car.Status,
	).Scan(&car.CreatedAt, &car.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create car: %w", err)
	}
	return nil
}

func (r *pgCarRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Car, error) {
	c := &model.Car{}
	err := scanCar(r.db.QueryRow(ctx, `SELECT `+carColumns+` FROM cars WHERE id = $1`, id), c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get car: %w", err)
	}
	return c, nil
}

func (r *pgCarRepo) ListByStatus(ctx context.Context, status model.CarStatus) ([]model.Car, error) {
	return r.list(ctx, `SELECT `+carColumns+` FROM cars WHERE status = $1 ORDER BY created_at DESC`, status)
}

func (r *pgCarRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]model.Car, error) {
	return r.list(ctx, `SELECT `+carColumns+` FROM cars WHERE seller_id = $1 ORDER BY created_at DESC`, sellerID)
}

func (r *pgCarRepo) list(ctx context.Context, query string, arg any) ([]model.Car, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list cars: %w", err)
	}
	defer rows.Close()

	cars := []model.Car{}
	for rows.Next() {
		var c model.Car
		if err := scanCar(rows, &c); err != nil {
			return nil, fmt.Errorf("scan car: %w", err)
		}
		cars = append(cars, c)
	}
	return cars, rows.Err()
}

// Update reports false when no listing with that id belongs to the seller.
func (r *pgCarRepo) Update(ctx context.Context, car *model.Car) (bool, error) {
	if car.Images == nil {
		car.Images = []string{}
	}
	from, to := availabilityArgs(car.Availability)
	query := `UPDATE cars SET brand=$3, model=$4, year=$5, capacity=$6, fuel_type=$7, transmission=$8,
				description=$9, color=$10, mileage=$11, location=$12, images=$13, listing_type=$14, price=$15,
				available_from=$16, available_to=$17, status=$18, updated_at=NOW()
			  WHERE id=$1 AND seller_id=$2 RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		car.ID, car.SellerID, car.Brand, car.Model, car.Year, car.Capacity, car.FuelType, car.Transmission,
		car.Description, car.Color, car.Mileage, car.Location, car.Images, car.ListingType, car.Price,
		from, to, car.Status,
	).Scan(&car.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("update car: %w", err)
	}
	return true, nil
}

func (r *pgCarRepo) Delete(ctx context.Context, id, sellerID uuid.UUID) (bool, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM cars WHERE id = $1 AND seller_id = $2`, id, sellerID)
	if err != nil {
		return false, fmt.Errorf("delete car: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}
