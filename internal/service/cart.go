package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/carcraze/marketplace-api/internal/model"
	"github.com/carcraze/marketplace-api/internal/repository"
)

// CartService mutates a user's cart under the cart row lock so concurrent
// requests of one user are applied one at a time.
type CartService struct {
	tx       repository.TxManager
	cartRepo repository.CartRepository
	carRepo  repository.CarRepository
	now      func() time.Time
}

func NewCartService(tx repository.TxManager, cartRepo repository.CartRepository, carRepo repository.CarRepository) *CartService {
	return &CartService{tx: tx, cartRepo: cartRepo, carRepo: carRepo, now: time.Now}
}

// GetCart never creates a cart; users without one get an empty cart.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart == nil {
		return &model.Cart{UserID: userID, Items: []model.CartItem{}}, nil
	}
	return cart, nil
}

func (s *CartService) AddItem(ctx context.Context, userID, carID uuid.UUID) (*model.Cart, error) {
	car, err := s.carRepo.GetByID(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("get car: %w", err)
	}
	if car == nil {
		return nil, ErrCarNotFound
	}
	if car.Status != model.CarStatusActive {
		return nil, ErrCarNotAvailable
	}

	var result *model.Cart
	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		carts := s.cartRepo.WithTx(tx)

		cart, err := carts.GetOrCreateForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if cart.Contains(carID) {
			return ErrCarAlreadyInCart
		}

		item := &model.CartItem{
			CartID:  cart.ID,
			CarID:   car.ID,
			OwnerID: car.SellerID,
			Price:   car.Price,
			AddedAt: s.now().UTC(),
		}
		if err := carts.AddItem(ctx, item); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrCarAlreadyInCart
			}
			if errors.Is(err, repository.ErrMissingReference) {
				return ErrCarNotFound
			}
			return err
		}
		// reread so the new line carries its listing and seller details
		result, err = carts.GetByUserID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, wrapTxErr("add cart item", err)
	}
	return result, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, carID uuid.UUID) (*model.Cart, error) {
	var result *model.Cart
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		carts := s.cartRepo.WithTx(tx)

		cart, err := carts.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if cart == nil {
			return ErrCartNotFound
		}

		removed, err := carts.RemoveItem(ctx, cart.ID, carID)
		if err != nil {
			return err
		}
		if !removed {
			return ErrCartItemNotFound
		}

		kept := make([]model.CartItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			if item.CarID != carID {
				kept = append(kept, item)
			}
		}
		cart.Items = kept
		result = cart
		return nil
	})
	if err != nil {
		return nil, wrapTxErr("remove cart item", err)
	}
	return result, nil
}
