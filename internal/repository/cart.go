package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carcraze/marketplace-api/internal/model"
)

// CartRepository persists one cart per user. The ForUpdate variants take the
// cart row lock and must run inside a transaction.
type CartRepository interface {
	WithTx(tx pgx.Tx) CartRepository
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	GetForUpdate(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	GetOrCreateForUpdate(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	AddItem(ctx context.Context, item *model.CartItem) error
	RemoveItem(ctx context.Context, cartID, carID uuid.UUID) (bool, error)
	Clear(ctx context.Context, cartID uuid.UUID) error
}

type pgCartRepo struct{ db DBTX }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{db: pool}
}

func (r *pgCartRepo) WithTx(tx pgx.Tx) CartRepository {
	return &pgCartRepo{db: pick(r.db, tx)}
}

func (r *pgCartRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	return r.get(ctx, `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`, userID)
}

func (r *pgCartRepo) GetForUpdate(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	return r.get(ctx, `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1 FOR UPDATE`, userID)
}

// GetOrCreateForUpdate upserts the cart row; ON CONFLICT DO UPDATE locks the
// existing row, so concurrent first adds for one user serialize here.
func (r *pgCartRepo) GetOrCreateForUpdate(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart := &model.Cart{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO carts (id, user_id, created_at, updated_at) VALUES ($1, $2, NOW(), NOW())
		 ON CONFLICT (user_id) DO UPDATE SET updated_at = carts.updated_at
		 RETURNING id, user_id, created_at, updated_at`,
		uuid.New(), userID,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	if err := r.loadItems(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *pgCartRepo) get(ctx context.Context, query string, userID uuid.UUID) (*model.Cart, error) {
	cart := &model.Cart{}
	err := r.db.QueryRow(ctx, query, userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if err := r.loadItems(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *pgCartRepo) loadItems(ctx context.Context, cart *model.Cart) error {
	rows, err := r.db.Query(ctx,
		`SELECT l.id, l.cart_id, l.car_id, l.owner_id, l.price, l.added_at, `+lineDetailColumns+`
		 FROM cart_items l `+lineDetailJoins+`
		 WHERE l.cart_id = $1 ORDER BY l.added_at, l.id`,
		cart.ID,
	)
	if err != nil {
		return fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	cart.Items = []model.CartItem{}
	for rows.Next() {
		var item model.CartItem
		var detail lineDetail
		dest := append([]any{&item.ID, &item.CartID, &item.CarID, &item.OwnerID, &item.Price, &item.AddedAt}, detail.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scan cart item: %w", err)
		}
		item.Car, item.Owner = detail.summary()
		cart.Items = append(cart.Items, item)
	}
	return rows.Err()
}

func (r *pgCartRepo) AddItem(ctx context.Context, item *model.CartItem) error {
	item.ID = uuid.New()
	_, err := r.db.Exec(ctx,
		`INSERT INTO cart_items (id, cart_id, car_id, owner_id, price, added_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		item.ID, item.CartID, item.CarID, item.OwnerID, item.Price, item.AddedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return ErrMissingReference
		}
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

func (r *pgCartRepo) RemoveItem(ctx context.Context, cartID, carID uuid.UUID) (bool, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND car_id = $2`, cartID, carID)
	if err != nil {
		return false, fmt.Errorf("remove cart item: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (r *pgCartRepo) Clear(ctx context.Context, cartID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	if _, err := r.db.Exec(ctx, `UPDATE carts SET updated_at = NOW() WHERE id = $1`, cartID); err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}
	return nil
}
