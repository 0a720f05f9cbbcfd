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

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	AddItem(ctx context.Context, userID, carID uuid.UUID) (*model.Cart, error)
	RemoveItem(ctx context.Context, userID, carID uuid.UUID) (*model.Cart, error)
}

type CartHandler struct {
	cartService CartService
}

func NewCartHandler(cartService CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.cartService.GetCart(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	cart, err := h.cartService.AddItem(c.Request.Context(), middleware.GetUserID(c), req.CarID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewCartResponse(cart))
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	carID, ok := pathUUID(c, "carId")
	if !ok {
		return
	}
	cart, err := h.cartService.RemoveItem(c.Request.Context(), middleware.GetUserID(c), carID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}
