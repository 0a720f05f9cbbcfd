package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carcraze/marketplace-api/internal/model"
)

// TransactionRepository stores the seller ledger.
type TransactionRepository interface {
	WithTx(tx pgx.Tx) TransactionRepository
	CreateBatch(ctx context.Context, txns []model.Transaction) (int, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]model.Transaction, error)
}

type pgTransactionRepo struct{ db DBTX }

func NewTransactionRepository(pool *pgxpool.Pool) TransactionRepository {
	return &pgTransactionRepo{db: pool}
}

func (r *pgTransactionRepo) WithTx(tx pgx.Tx) TransactionRepository {
	return &pgTransactionRepo{db: pick(r.db, tx)}
}

// CreateBatch inserts the ledger lines, skipping (order, car) pairs already
// recorded, and returns how many rows were new.
func (r *pgTransactionRepo) CreateBatch(ctx context.Context, txns []model.Transaction) (int, error) {
	inserted := 0
	for i := range txns {
		txns[i].ID = uuid.New()
		ct, err := r.db.Exec(ctx,
			`INSERT INTO transactions (id, order_id, car_id, buyer_id, seller_id, price, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			 ON CONFLICT (order_id, car_id) DO NOTHING`,
			txns[i].ID, txns[i].OrderID, txns[i].CarID, txns[i].BuyerID, txns[i].SellerID, txns[i].Price, txns[i].Status,
		)
		if err != nil {
			return inserted, fmt.Errorf("insert transaction: %w", err)
		}
		inserted += int(ct.RowsAffected())
	}
	return inserted, nil
}

func (r *pgTransactionRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]model.Transaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, order_id, car_id, buyer_id, seller_id, price, status, created_at
		 FROM transactions WHERE seller_id = $1 ORDER BY created_at DESC`, sellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txns := []model.Transaction{}
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.OrderID, &t.CarID, &t.BuyerID, &t.SellerID, &t.Price, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
