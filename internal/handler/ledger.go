package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carcraze/marketplace-api/internal/dto"
	"github.com/carcraze/marketplace-api/internal/middleware"
	"github.com/carcraze/marketplace-api/internal/model"
)

type LedgerService interface {
	ListSellerTransactions(ctx context.Context, sellerID uuid.UUID) ([]model.Transaction, error)
}

type LedgerHandler struct {
	ledger LedgerService
}

func NewLedgerHandler(ledger LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

func (h *LedgerHandler) ListMine(c *gin.Context) {
	txns, err := h.ledger.ListSellerTransactions(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTransactionListResponse(txns))
}
