package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carcraze/marketplace-api/internal/model"
)

func seedUser(t *testing.T, email string, role model.Role) *model.User {
	t.Helper()
	user := &model.User{Email: email, Password: "h", FirstName: "F", LastName: "L", Role: role}
	require.NoError(t, NewUserRepository(testPool).Create(context.Background(), user))
	return user
}

func seedCar(t *testing.T, sellerID uuid.UUID, price string) *model.Car {
	t.Helper()
	car := &model.Car{
		SellerID: sellerID, Brand: "Toyota", Model: "Corolla", Year: 2020,
		ListingType: model.ListingTypeUsedSale, Price: decimal.RequireFromString(price),
		Status: model.CarStatusActive,
	}
	require.NoError(t, NewCarRepository(testPool).Create(context.Background(), car))
	return car
}

func TestUserRepo_CreateAndGetByEmail(t *testing.T) {
	cleanupAll(t)
	repo := NewUserRepository(testPool)
	ctx := context.Background()

	user := seedUser(t, "test@example.com", model.RoleCustomer)
	assert.NotEqual(t, uuid.Nil, user.ID)

	found, err := repo.GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, model.RoleCustomer, found.Role)

	dup := &model.User{Email: "test@example.com", Password: "h", Role: model.RoleCustomer}
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicate)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCarRepo_CRUD(t *testing.T) {
	cleanupAll(t)
	repo := NewCarRepository(testPool)
	ctx := context.Background()

	seller := seedUser(t, "seller@example.com", model.RoleSeller)
	car := seedCar(t, seller.ID, "15000.00")

	found, err := repo.GetByID(ctx, car.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Corolla", found.Model)
	assert.True(t, decimal.RequireFromString("15000").Equal(found.Price))
	assert.Nil(t, found.Availability)
	assert.Empty(t, found.Images)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	found.ListingType = model.ListingTypeRental
	found.Availability = &model.Availability{StartDate: start, EndDate: start.AddDate(0, 1, 0)}
	found.Images = []string{"a.jpg", "b.jpg"}
	ok, err := repo.Update(ctx, found)
	require.NoError(t, err)
	assert.True(t, ok)

	updated, err := repo.GetByID(ctx, car.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.Availability)
	assert.True(t, start.Equal(updated.Availability.StartDate))
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, updated.Images)

	active, err := repo.ListByStatus(ctx, model.CarStatusActive)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	deleted, err := repo.Delete(ctx, car.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, deleted, "only the owner can delete")

	deleted, err = repo.Delete(ctx, car.ID, seller.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	gone, err := repo.GetByID(ctx, car.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	ok, err = repo.Update(ctx, found)
	require.NoError(t, err)
	assert.False(t, ok, "updating a deleted listing matches no row")
}

func TestCartRepo_AddRemoveClear(t *testing.T) {
	cleanupAll(t)
	repo := NewCartRepository(testPool)
	ctx := context.Background()

	buyer := seedUser(t, "cart@example.com", model.RoleCustomer)
	seller := seedUser(t, "s@example.com", model.RoleSeller)
	car := seedCar(t, seller.ID, "100")

	none, err := repo.GetByUserID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	cart, err := repo.GetOrCreateForUpdate(ctx, buyer.ID)
	require.NoError(t, err)
	again, err := repo.GetOrCreateForUpdate(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)

	item := &model.CartItem{CartID: cart.ID, CarID: car.ID, OwnerID: seller.ID, Price: car.Price, AddedAt: time.Now()}
	require.NoError(t, repo.AddItem(ctx, item))

	dup := &model.CartItem{CartID: cart.ID, CarID: car.ID, OwnerID: seller.ID, Price: car.Price, AddedAt: time.Now()}
	assert.ErrorIs(t, repo.AddItem(ctx, dup), ErrDuplicate)

	loaded, err := repo.GetByUserID(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, seller.ID, loaded.Items[0].OwnerID)
	require.NotNil(t, loaded.Items[0].Car)
	assert.Equal(t, "Corolla", loaded.Items[0].Car.Model)
	assert.Equal(t, model.CarStatusActive, loaded.Items[0].Car.Status)
	require.NotNil(t, loaded.Items[0].Owner)
	assert.Equal(t, "s@example.com", loaded.Items[0].Owner.Email)

	removed, err := repo.RemoveItem(ctx, cart.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, repo.Clear(ctx, cart.ID))
	loaded, err = repo.GetByUserID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Items)
}

func TestCartRepo_AddItemForDeletedCar(t *testing.T) {
	cleanupAll(t)
	repo := NewCartRepository(testPool)
	ctx := context.Background()

	buyer := seedUser(t, "gone@example.com", model.RoleCustomer)
	seller := seedUser(t, "gone-seller@example.com", model.RoleSeller)
	car := seedCar(t, seller.ID, "100")
	cart, err := repo.GetOrCreateForUpdate(ctx, buyer.ID)
	require.NoError(t, err)

	deleted, err := NewCarRepository(testPool).Delete(ctx, car.ID, seller.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	item := &model.CartItem{CartID: cart.ID, CarID: car.ID, OwnerID: seller.ID, Price: car.Price, AddedAt: time.Now()}
	assert.ErrorIs(t, repo.AddItem(ctx, item), ErrMissingReference)
}

// Concurrent adds of one car to one user's cart: exactly one wins, the rest
// hit the cart row lock and then the unique line constraint.
func TestCartRepo_ConcurrentAddSameCar(t *testing.T) {
	cleanupAll(t)
	carts := NewCartRepository(testPool)
	txm := NewTxManager(testPool)
	ctx := context.Background()

	buyer := seedUser(t, "race@example.com", model.RoleCustomer)
	seller := seedUser(t, "race-seller@example.com", model.RoleSeller)
	car := seedCar(t, seller.ID, "250")

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, dups int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := txm.WithTx(ctx, func(tx pgx.Tx) error {
				repo := carts.WithTx(tx)
				cart, err := repo.GetOrCreateForUpdate(ctx, buyer.ID)
				if err != nil {
					return err
				}
				if cart.Contains(car.ID) {
					return ErrDuplicate
				}
				return repo.AddItem(ctx, &model.CartItem{
					CartID: cart.ID, CarID: car.ID, OwnerID: seller.ID, Price: car.Price, AddedAt: time.Now(),
				})
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrDuplicate):
				dups++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, dups)

	cart, err := carts.GetByUserID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestOrderRepo_ItemsKeepCartOrder(t *testing.T) {
	cleanupAll(t)
	repo := NewOrderRepository(testPool)
	ctx := context.Background()

	buyer := seedUser(t, "lines@example.com", model.RoleCustomer)
	seller := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)

	var items []model.OrderItem
	for i := 1; i <= 6; i++ {
		items = append(items, model.OrderItem{CarID: uuid.New(), OwnerID: seller, Price: decimal.NewFromInt(int64(i))})
	}
	order := &model.Order{
		UserID: buyer.ID, Total: decimal.NewFromInt(21),
		PaymentMethod: model.PaymentMethodCOD, PaymentStatus: model.PaymentStatusPending,
		Status: model.OrderStatusCreated, CreatedAt: now, DeliveryDate: now.Add(model.DeliveryLeadTime),
		Items: append([]model.OrderItem{}, items...),
	}
	require.NoError(t, repo.Create(ctx, order))

	found, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, len(items))
	for i := range items {
		assert.Equal(t, items[i].CarID, found.Items[i].CarID, "line %d", i)
		assert.Nil(t, found.Items[i].Car, "listing no longer exists")
		assert.Nil(t, found.Items[i].Owner)
	}

	list, err := repo.ListByUserID(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	for i := range items {
		assert.Equal(t, items[i].CarID, list[0].Items[i].CarID, "line %d", i)
	}
}

func TestOrderRepo_CreateAndRead(t *testing.T) {
	cleanupAll(t)
	repo := NewOrderRepository(testPool)
	ctx := context.Background()

	buyer := seedUser(t, "order@example.com", model.RoleCustomer)
	seller := seedUser(t, "order-seller@example.com", model.RoleSeller)
	car := seedCar(t, seller.ID, "25")

	created := time.Now().UTC().Truncate(time.Microsecond)
	order := &model.Order{
		UserID: buyer.ID, Total: car.Price,
		PaymentMethod: model.PaymentMethodCOD, PaymentStatus: model.PaymentStatusPending,
		Status: model.OrderStatusCreated, CreatedAt: created, DeliveryDate: created.Add(model.DeliveryLeadTime),
		IdempotencyKey: "key-1",
		Items:          []model.OrderItem{{CarID: car.ID, OwnerID: seller.ID, Price: car.Price}},
	}
	require.NoError(t, repo.Create(ctx, order))
	assert.NotEqual(t, uuid.Nil, order.ID)

	found, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, model.OrderStatusCreated, found.Status)
	assert.True(t, created.Equal(found.CreatedAt))
	assert.True(t, created.Add(model.DeliveryLeadTime).Equal(found.DeliveryDate))
	require.Len(t, found.Items, 1)
	require.NotNil(t, found.Items[0].Car)
	assert.Equal(t, "Toyota", found.Items[0].Car.Brand)
	require.NotNil(t, found.Items[0].Owner)
	assert.Equal(t, "order-seller@example.com", found.Items[0].Owner.Email)

	byKey, err := repo.GetByIdempotencyKey(ctx, buyer.ID, "key-1")
	require.NoError(t, err)
	require.NotNil(t, byKey)
	assert.Equal(t, order.ID, byKey.ID)

	replay := *order
	replay.Items = nil
	assert.ErrorIs(t, repo.Create(ctx, &replay), ErrDuplicate)

	second := &model.Order{
		UserID: buyer.ID, Total: decimal.Zero,
		PaymentMethod: model.PaymentMethodOnline, PaymentStatus: model.PaymentStatusPaid,
		Status: model.OrderStatusCompleted, CreatedAt: created.Add(time.Minute), DeliveryDate: created,
	}
	require.NoError(t, repo.Create(ctx, second))

	list, err := repo.ListByUserID(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Len(t, list[1].Items, 1)

	empty, err := repo.ListByUserID(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestTransactionRepo_CreateBatchSkipsRecorded(t *testing.T) {
	cleanupAll(t)
	orders := NewOrderRepository(testPool)
	repo := NewTransactionRepository(testPool)
	ctx := context.Background()

	buyer := seedUser(t, "ledger@example.com", model.RoleCustomer)
	seller := seedUser(t, "ledger-seller@example.com", model.RoleSeller)
	car := seedCar(t, seller.ID, "900")

	now := time.Now().UTC()
	order := &model.Order{
		UserID: buyer.ID, Total: car.Price,
		PaymentMethod: model.PaymentMethodUPI, PaymentStatus: model.PaymentStatusPaid,
		Status: model.OrderStatusCompleted, CreatedAt: now, DeliveryDate: now.Add(model.DeliveryLeadTime),
		Items: []model.OrderItem{{CarID: car.ID, OwnerID: seller.ID, Price: car.Price}},
	}
	require.NoError(t, orders.Create(ctx, order))

	line := func() []model.Transaction {
		return []model.Transaction{{
			OrderID: order.ID, CarID: car.ID, BuyerID: buyer.ID, SellerID: seller.ID,
			Price: car.Price, Status: model.TransactionStatusCompleted,
		}}
	}
	n, err := repo.CreateBatch(ctx, line())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = repo.CreateBatch(ctx, line())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	txns, err := repo.ListBySeller(ctx, seller.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, buyer.ID, txns[0].BuyerID)
}

func TestRentalRepo_CreateAndList(t *testing.T) {
	cleanupAll(t)
	repo := NewRentalRepository(testPool)
	ctx := context.Background()

	customer := seedUser(t, "renter@example.com", model.RoleCustomer)
	seller := seedUser(t, "rent-seller@example.com", model.RoleSeller)
	car := seedCar(t, seller.ID, "40")

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rental := &model.Rental{
		CarID: car.ID, CustomerID: customer.ID, StartDate: start, EndDate: start.AddDate(0, 0, 3),
		PricePerDay: car.Price, TotalAmount: car.Price.Mul(decimal.NewFromInt(3)), Status: model.RentalStatusBooked,
	}
	require.NoError(t, repo.Create(ctx, rental))
	assert.False(t, rental.CreatedAt.IsZero())

	list, err := repo.ListByCustomer(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, decimal.RequireFromString("120").Equal(list[0].TotalAmount))
}
