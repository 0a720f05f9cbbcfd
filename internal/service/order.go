package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/carcraze/marketplace-api/internal/metrics"
	"github.com/carcraze/marketplace-api/internal/model"
	"github.com/carcraze/marketplace-api/internal/repository"
)

// EventPublisher announces committed orders to asynchronous consumers.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, msg model.OrderMessage) error
}

// CheckoutResult is the order produced by a checkout. Replayed is set when the
// idempotency key matched an earlier checkout and no new order was created.
type CheckoutResult struct {
	Order    *model.Order
	Replayed bool
}

type OrderService struct {
	tx        repository.TxManager
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	publisher EventPublisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time
}

func NewOrderService(
	tx repository.TxManager,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	publisher EventPublisher,
	m *metrics.Metrics,
	log *slog.Logger,
) *OrderService {
	return &OrderService{
		tx:        tx,
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		publisher: publisher,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// Checkout turns the user's cart into an order and empties the cart in one
// transaction. An empty method defaults to online payment.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, method model.PaymentMethod, idempotencyKey string) (*CheckoutResult, error) {
	if method == "" {
		method = model.PaymentMethodOnline
	}
	if !method.Valid() {
		s.metrics.IncCheckout(string(method), "invalid")
		return nil, ErrInvalidPaymentMethod
	}

	result := &CheckoutResult{}
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		carts := s.cartRepo.WithTx(tx)
		orders := s.orderRepo.WithTx(tx)

		cart, err := carts.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		if idempotencyKey != "" {
			existing, err := orders.GetByIdempotencyKey(ctx, userID, idempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				result.Order = existing
				result.Replayed = true
				return nil
			}
		}

		if cart == nil || len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		order := newOrder(userID, cart, method, idempotencyKey, s.now())
		if err := orders.Create(ctx, order); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDuplicateCheckout
			}
			return err
		}
		if err := carts.Clear(ctx, cart.ID); err != nil {
			return err
		}
		result.Order = order
		return nil
	})
	if err != nil {
		s.metrics.IncCheckout(string(method), checkoutOutcome(err))
		return nil, wrapTxErr("checkout", err)
	}

	if result.Replayed {
		s.metrics.IncCheckout(string(method), "replayed")
		return result, nil
	}
	s.metrics.IncCheckout(string(method), "created")
	s.publish(ctx, result.Order)
	return result, nil
}

// publish runs after commit. The order is already durable, so a broker
// failure is logged and counted but not returned.
func (s *OrderService) publish(ctx context.Context, order *model.Order) {
	if s.publisher == nil {
		return
	}
	msg := model.OrderMessage{OrderID: order.ID, UserID: order.UserID}
	if err := s.publisher.PublishOrderCreated(ctx, msg); err != nil {
		s.metrics.IncPublishFailure()
		s.log.Warn("publish order created", "order_id", order.ID, "error", err)
	}
}

func newOrder(userID uuid.UUID, cart *model.Cart, method model.PaymentMethod, key string, now time.Time) *model.Order {
	createdAt := now.UTC().Truncate(time.Microsecond)
	paymentStatus, status := settle(method)

	items := make([]model.OrderItem, 0, len(cart.Items))
	for _, ci := range cart.Items {
		items = append(items, model.OrderItem{CarID: ci.CarID, OwnerID: ci.OwnerID, Price: ci.Price, Car: ci.Car, Owner: ci.Owner})
	}

	return &model.Order{
		UserID:         userID,
		Items:          items,
		Total:          cart.Total(),
		PaymentMethod:  method,
		PaymentStatus:  paymentStatus,
		Status:         status,
		DeliveryDate:   createdAt.Add(model.DeliveryLeadTime),
		IdempotencyKey: key,
		CreatedAt:      createdAt,
	}
}

// settle simulates payment: online and UPI settle instantly, cash on delivery
// waits for fulfilment.
func settle(method model.PaymentMethod) (model.PaymentStatus, model.OrderStatus) {
	if method == model.PaymentMethodCOD {
		return model.PaymentStatusPending, model.OrderStatusCreated
	}
	return model.PaymentStatusPaid, model.OrderStatusCompleted
}

func checkoutOutcome(err error) string {
	switch {
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrDuplicateCheckout):
		return "conflict"
	default:
		return "error"
	}
}

func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
