package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carcraze/marketplace-api/internal/dto"
	"github.com/carcraze/marketplace-api/internal/middleware"
	"github.com/carcraze/marketplace-api/internal/model"
)

type RentalService interface {
	BookRental(ctx context.Context, customerID, carID uuid.UUID, start, end time.Time) (*model.Rental, error)
	ListRentals(ctx context.Context, customerID uuid.UUID) ([]model.Rental, error)
}

type RentalHandler struct {
	rentalService RentalService
}

func NewRentalHandler(rentalService RentalService) *RentalHandler {
	return &RentalHandler{rentalService: rentalService}
}

func (h *RentalHandler) Book(c *gin.Context) {
	var req dto.CreateRentalRequest
	if !bindJSON(c, &req) {
		return
	}
	rental, err := h.rentalService.BookRental(c.Request.Context(), middleware.GetUserID(c), req.CarID, req.StartDate, req.EndDate)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewRentalResponse(rental))
}

func (h *RentalHandler) List(c *gin.Context) {
	rentals, err := h.rentalService.ListRentals(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRentalListResponse(rentals))
}
