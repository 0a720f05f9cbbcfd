package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/carcraze/marketplace-api/internal/model"
	"github.com/carcraze/marketplace-api/internal/repository"
)

// LedgerService records one seller transaction per sold order line.
type LedgerService struct {
	tx        repository.TxManager
	orderRepo repository.OrderRepository
	txnRepo   repository.TransactionRepository
}

func NewLedgerService(tx repository.TxManager, orderRepo repository.OrderRepository, txnRepo repository.TransactionRepository) *LedgerService {
	return &LedgerService{tx: tx, orderRepo: orderRepo, txnRepo: txnRepo}
}

// RecordOrder writes the ledger lines of an order and returns how many were
// new. Lines already recorded are skipped, so redelivery is harmless.
func (s *LedgerService) RecordOrder(ctx context.Context, orderID uuid.UUID) (int, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return 0, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return 0, ErrOrderNotFound
	}

	status := model.TransactionStatusPending
	if order.PaymentStatus == model.PaymentStatusPaid {
		status = model.TransactionStatusCompleted
	}

	txns := make([]model.Transaction, 0, len(order.Items))
	for _, item := range order.Items {
		txns = append(txns, model.Transaction{
			OrderID:  order.ID,
			CarID:    item.CarID,
			BuyerID:  order.UserID,
			SellerID: item.OwnerID,
			Price:    item.Price,
			Status:   status,
		})
	}

	var inserted int
	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		n, err := s.txnRepo.WithTx(tx).CreateBatch(ctx, txns)
		inserted = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("record transactions: %w", err)
	}
	return inserted, nil
}

func (s *LedgerService) ListSellerTransactions(ctx context.Context, sellerID uuid.UUID) ([]model.Transaction, error) {
	txns, err := s.txnRepo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}
