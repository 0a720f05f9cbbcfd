package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryLeadTime is added to an order's creation time to stamp its delivery date.
const DeliveryLeadTime = 7 * 24 * time.Hour

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

type ListingType string

const (
	ListingTypeNewSale  ListingType = "sale_new"
	ListingTypeUsedSale ListingType = "sale_old"
	ListingTypeRental   ListingType = "rent"
)

func (t ListingType) Valid() bool {
	switch t {
	case ListingTypeNewSale, ListingTypeUsedSale, ListingTypeRental:
		return true
	}
	return false
}

type CarStatus string

const (
	CarStatusActive   CarStatus = "active"
	CarStatusSold     CarStatus = "sold"
	CarStatusRented   CarStatus = "rented"
	CarStatusInactive CarStatus = "inactive"
)

func (s CarStatus) Valid() bool {
	switch s {
	case CarStatusActive, CarStatusSold, CarStatusRented, CarStatusInactive:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodUPI    PaymentMethod = "upi"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodOnline, PaymentMethodUPI:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "created"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

type RentalStatus string

const (
	RentalStatusBooked    RentalStatus = "booked"
	RentalStatusCancelled RentalStatus = "cancelled"
)

type User struct {
	ID        uuid.UUID
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Availability is the rental window of a listing. Only kept for rent listings.
type Availability struct {
	StartDate time.Time
	EndDate   time.Time
}

type Car struct {
	ID           uuid.UUID
	SellerID     uuid.UUID
	Brand        string
	Model        string
	Year         int
	Capacity     int
	FuelType     string
	Transmission string
	Description  string
	Color        string
	Mileage      int
	Location     string
	Images       []string
	ListingType  ListingType
	Price        decimal.Decimal
	Availability *Availability
	Status       CarStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Cart struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Total sums the snapshot prices of the cart lines. It is never stored.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, item := range c.Items {
		total = total.Add(item.Price)
	}
	return total
}

func (c *Cart) Contains(carID uuid.UUID) bool {
	if c == nil {
		return false
	}
	for _, item := range c.Items {
		if item.CarID == carID {
			return true
		}
	}
	return false
}

// CartItem holds the listing price captured when the car was added.
type CartItem struct {
	ID      uuid.UUID
	CartID  uuid.UUID
	CarID   uuid.UUID
	OwnerID uuid.UUID
	Price   decimal.Decimal
	AddedAt time.Time
	Car     *CarSummary
	Owner   *Contact
}

// CarSummary is the listing shown next to a cart or order line.
type CarSummary struct {
	Brand       string
	Model       string
	Year        int
	ListingType ListingType
	Status      CarStatus
	Images      []string
}

// Contact is how a buyer reaches the seller of a line.
type Contact struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type Order struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Items          []OrderItem
	Total          decimal.Decimal
	PaymentMethod  PaymentMethod
	PaymentStatus  PaymentStatus
	Status         OrderStatus
	DeliveryDate   time.Time
	IdempotencyKey string
	CreatedAt      time.Time
}

// OrderItem keeps car and owner ids after the listing is gone; Car and Owner
// are nil then.
type OrderItem struct {
	ID      uuid.UUID
	OrderID uuid.UUID
	CarID   uuid.UUID
	OwnerID uuid.UUID
	Price   decimal.Decimal
	Car     *CarSummary
	Owner   *Contact
}

// Transaction is a seller ledger line recorded for each sold order item.
type Transaction struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	CarID     uuid.UUID
	BuyerID   uuid.UUID
	SellerID  uuid.UUID
	Price     decimal.Decimal
	Status    TransactionStatus
	CreatedAt time.Time
}

type Rental struct {
	ID          uuid.UUID
	CarID       uuid.UUID
	CustomerID  uuid.UUID
	StartDate   time.Time
	EndDate     time.Time
	PricePerDay decimal.Decimal
	TotalAmount decimal.Decimal
	Status      RentalStatus
	CreatedAt   time.Time
}

type OrderMessage struct {
	OrderID uuid.UUID `json:"order_id"`
	UserID  uuid.UUID `json:"user_id"`
}
