package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carcraze/marketplace-api/internal/dto"
	"github.com/carcraze/marketplace-api/internal/middleware"
)

type CatalogService interface {
	ListActiveCars(ctx context.Context) (*dto.CarListResponse, error)
	ListSellerCars(ctx context.Context, sellerID uuid.UUID) (*dto.CarListResponse, error)
	GetCar(ctx context.Context, id uuid.UUID) (*dto.CarResponse, error)
	CreateCar(ctx context.Context, sellerID uuid.UUID, req dto.CreateCarRequest) (*dto.CarResponse, error)
	UpdateCar(ctx context.Context, sellerID, carID uuid.UUID, req dto.UpdateCarRequest) (*dto.CarResponse, error)
	DeleteCar(ctx context.Context, sellerID, carID uuid.UUID) error
}

type CarHandler struct {
	catalog CatalogService
}

func NewCarHandler(catalog CatalogService) *CarHandler {
	return &CarHandler{catalog: catalog}
}

func (h *CarHandler) List(c *gin.Context) {
	resp, err := h.catalog.ListActiveCars(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CarHandler) GetByID(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.catalog.GetCar(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CarHandler) ListMine(c *gin.Context) {
	resp, err := h.catalog.ListSellerCars(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CarHandler) Create(c *gin.Context) {
	var req dto.CreateCarRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.catalog.CreateCar(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CarHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCarRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.catalog.UpdateCar(c.Request.Context(), middleware.GetUserID(c), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CarHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteCar(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
