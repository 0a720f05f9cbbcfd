package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carcraze/marketplace-api/internal/model"
	"github.com/carcraze/marketplace-api/internal/repository"
)

var errStore = errors.New("store unavailable")

// txStore is a fake repository whose state a mockTxManager can roll back.
type txStore interface {
	snapshot() (restore func())
}

// mockTxManager runs callbacks one at a time with a nil tx. When a callback
// fails, every enlisted store is put back to its state before the callback.
type mockTxManager struct {
	mu     sync.Mutex
	calls  int
	stores []txStore
}

func (m *mockTxManager) enlist(stores ...txStore) {
	m.stores = append(m.stores, stores...)
}

func (m *mockTxManager) WithTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	restores := make([]func(), 0, len(m.stores))
	for _, s := range m.stores {
		restores = append(restores, s.snapshot())
	}
	if err := fn(nil); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

type mockUserRepo struct {
	users map[string]*model.User
	byID  map[uuid.UUID]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User), byID: make(map[uuid.UUID]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.Email]; ok {
		return repository.ErrDuplicate
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	m.users[user.Email] = user
	m.byID[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	return m.byID[id], nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return m.users[email], nil
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) {
	users := []model.User{}
	for _, u := range m.byID {
		users = append(users, *u)
	}
	return users, nil
}

type mockCarRepo struct {
	mu   sync.Mutex
	cars map[uuid.UUID]*model.Car
	// beforeUpdate runs inside Update before the row is matched.
	beforeUpdate func()
}

func newMockCarRepo() *mockCarRepo {
	return &mockCarRepo{cars: make(map[uuid.UUID]*model.Car)}
}

func (m *mockCarRepo) WithTx(_ pgx.Tx) repository.CarRepository { return m }

func (m *mockCarRepo) add(car model.Car) *model.Car {
	m.mu.Lock()
	defer m.mu.Unlock()
	if car.ID == uuid.Nil {
		car.ID = uuid.New()
	}
	m.cars[car.ID] = &car
	return &car
}

func (m *mockCarRepo) Create(_ context.Context, car *model.Car) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	car.ID = uuid.New()
	car.CreatedAt = time.Now()
	car.UpdatedAt = car.CreatedAt
	stored := *car
	m.cars[car.ID] = &stored
	return nil
}

func (m *mockCarRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	car, ok := m.cars[id]
	if !ok {
		return nil, nil
	}
	cp := *car
	return &cp, nil
}

func (m *mockCarRepo) ListByStatus(_ context.Context, status model.CarStatus) ([]model.Car, error) {
	return m.filter(func(c *model.Car) bool { return c.Status == status }), nil
}

func (m *mockCarRepo) ListBySeller(_ context.Context, sellerID uuid.UUID) ([]model.Car, error) {
	return m.filter(func(c *model.Car) bool { return c.SellerID == sellerID }), nil
}

func (m *mockCarRepo) filter(keep func(*model.Car) bool) []model.Car {
	m.mu.Lock()
	defer m.mu.Unlock()
	cars := []model.Car{}
	for _, c := range m.cars {
		if keep(c) {
			cars = append(cars, *c)
		}
	}
	return cars
}

func (m *mockCarRepo) Update(_ context.Context, car *model.Car) (bool, error) {
	if m.beforeUpdate != nil {
		m.beforeUpdate()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.cars[car.ID]
	if !ok || existing.SellerID != car.SellerID {
		return false, nil
	}
	stored := *car
	m.cars[car.ID] = &stored
	return true, nil
}

func (m *mockCarRepo) Delete(_ context.Context, id, sellerID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.cars[id]; ok && existing.SellerID == sellerID {
		delete(m.cars, id)
		return true, nil
	}
	return false, nil
}

// mockCartRepo keeps one cart per user and hands out copies, like rows read
// from the database.
type mockCartRepo struct {
	mu       sync.Mutex
	carts    map[uuid.UUID]*model.Cart
	addErr   error
	clearErr error
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[uuid.UUID]*model.Cart)}
}

func (m *mockCartRepo) WithTx(_ pgx.Tx) repository.CartRepository { return m }

func (m *mockCartRepo) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[uuid.UUID]*model.Cart, len(m.carts))
	for userID, c := range m.carts {
		saved[userID] = copyCart(c)
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.carts = saved
	}
}

func copyCart(c *model.Cart) *model.Cart {
	cp := *c
	cp.Items = append([]model.CartItem{}, c.Items...)
	return &cp
}

func (m *mockCartRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[userID]; ok {
		return copyCart(c), nil
	}
	return nil, nil
}

func (m *mockCartRepo) GetForUpdate(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	return m.GetByUserID(ctx, userID)
}

func (m *mockCartRepo) GetOrCreateForUpdate(_ context.Context, userID uuid.UUID) (*model.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		c = &model.Cart{ID: uuid.New(), UserID: userID, Items: []model.CartItem{}}
		m.carts[userID] = c
	}
	return copyCart(c), nil
}

func (m *mockCartRepo) cartByID(cartID uuid.UUID) *model.Cart {
	for _, c := range m.carts {
		if c.ID == cartID {
			return c
		}
	}
	return nil
}

func (m *mockCartRepo) AddItem(_ context.Context, item *model.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	c := m.cartByID(item.CartID)
	if c == nil {
		return errStore
	}
	if c.Contains(item.CarID) {
		return repository.ErrDuplicate
	}
	item.ID = uuid.New()
	c.Items = append(c.Items, *item)
	return nil
}

func (m *mockCartRepo) RemoveItem(_ context.Context, cartID, carID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.cartByID(cartID)
	if c == nil {
		return false, nil
	}
	for i, item := range c.Items {
		if item.CarID == carID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCartRepo) Clear(_ context.Context, cartID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearErr != nil {
		return m.clearErr
	}
	if c := m.cartByID(cartID); c != nil {
		c.Items = []model.CartItem{}
	}
	return nil
}

func (m *mockCartRepo) items(userID uuid.UUID) []model.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[userID]; ok {
		return append([]model.CartItem{}, c.Items...)
	}
	return nil
}

type mockOrderRepo struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]*model.Order
	createErr error
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (m *mockOrderRepo) WithTx(_ pgx.Tx) repository.OrderRepository { return m }

func (m *mockOrderRepo) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[uuid.UUID]*model.Order, len(m.orders))
	for id, o := range m.orders {
		saved[id] = o
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.orders = saved
	}
}

func (m *mockOrderRepo) Create(_ context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if order.IdempotencyKey != "" {
		for _, o := range m.orders {
			if o.UserID == order.UserID && o.IdempotencyKey == order.IdempotencyKey {
				return repository.ErrDuplicate
			}
		}
	}
	order.ID = uuid.New()
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
	}
	stored := *order
	m.orders[order.ID] = &stored
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

func (m *mockOrderRepo) GetByIdempotencyKey(_ context.Context, userID uuid.UUID, key string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockOrderRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := []model.Order{}
	for _, o := range m.orders {
		if o.UserID == userID {
			orders = append(orders, *o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (m *mockOrderRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

type mockTransactionRepo struct {
	txns map[[2]uuid.UUID]model.Transaction
}

func newMockTransactionRepo() *mockTransactionRepo {
	return &mockTransactionRepo{txns: make(map[[2]uuid.UUID]model.Transaction)}
}

func (m *mockTransactionRepo) WithTx(_ pgx.Tx) repository.TransactionRepository { return m }

func (m *mockTransactionRepo) CreateBatch(_ context.Context, txns []model.Transaction) (int, error) {
	inserted := 0
	for _, t := range txns {
		key := [2]uuid.UUID{t.OrderID, t.CarID}
		if _, ok := m.txns[key]; ok {
			continue
		}
		t.ID = uuid.New()
		m.txns[key] = t
		inserted++
	}
	return inserted, nil
}

func (m *mockTransactionRepo) ListBySeller(_ context.Context, sellerID uuid.UUID) ([]model.Transaction, error) {
	txns := []model.Transaction{}
	for _, t := range m.txns {
		if t.SellerID == sellerID {
			txns = append(txns, t)
		}
	}
	return txns, nil
}

type mockRentalRepo struct {
	rentals []model.Rental
}

func (m *mockRentalRepo) Create(_ context.Context, rental *model.Rental) error {
	rental.ID = uuid.New()
	rental.CreatedAt = time.Now()
	m.rentals = append(m.rentals, *rental)
	return nil
}

func (m *mockRentalRepo) ListByCustomer(_ context.Context, customerID uuid.UUID) ([]model.Rental, error) {
	rentals := []model.Rental{}
	for _, r := range m.rentals {
		if r.CustomerID == customerID {
			rentals = append(rentals, r)
		}
	}
	return rentals, nil
}

// fakeCache mimics the redis commands the catalog uses.
type fakeCache struct {
	data map[string]string
	gets int
	err  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (f *fakeCache) Get(_ context.Context, key string) *redis.StringCmd {
	f.gets++
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCache) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, f.err)
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []model.OrderMessage
	err  error
}

func (f *fakePublisher) PublishOrderCreated(_ context.Context, msg model.OrderMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}
