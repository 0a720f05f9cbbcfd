package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carcraze/marketplace-api/internal/apperror"
	"github.com/carcraze/marketplace-api/internal/dto"
	"github.com/carcraze/marketplace-api/internal/middleware"
	"github.com/carcraze/marketplace-api/internal/model"
	"github.com/carcraze/marketplace-api/internal/service"
)

const (
	idempotencyHeader    = "Idempotency-Key"
	maxIdempotencyKeyLen = 255
)

type OrderService interface {
	Checkout(ctx context.Context, userID uuid.UUID, method model.PaymentMethod, idempotencyKey string) (*service.CheckoutResult, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
}

type OrderHandler struct {
	orderService OrderService
}

func NewOrderHandler(orderService OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Checkout answers 201 for a new order and 200 when the Idempotency-Key
// matched an earlier checkout.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		_ = c.Error(apperror.Wrap(apperror.CodeValidation, err, bindingMessage(err)))
		return
	}

	key := c.GetHeader(idempotencyHeader)
	if len(key) > maxIdempotencyKeyLen {
		_ = c.Error(apperror.New(apperror.CodeValidation, "Idempotency-Key is too long"))
		return
	}

	res, err := h.orderService.Checkout(c.Request.Context(), middleware.GetUserID(c), req.PaymentMethod, key)
	if err != nil {
		_ = c.Error(err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, dto.NewCheckoutResponse(res.Order))
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orderService.ListOrders(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderListResponse(orders))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), middleware.GetUserID(c), orderID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponse(order))
}
