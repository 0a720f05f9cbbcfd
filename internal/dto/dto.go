package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carcraze/marketplace-api/internal/model"
)

// --- Auth ---

type SignupRequest struct {
	Email     string     `json:"email" binding:"required,email"`
	Password  string     `json:"password" binding:"required,min=8"`
	FirstName string     `json:"firstName" binding:"required"`
	LastName  string     `json:"lastName" binding:"required"`
	Phone     string     `json:"phone" binding:"omitempty,max=32"`
	Role      model.Role `json:"role" binding:"omitempty,oneof=customer seller admin"`
	AdminCode string     `json:"adminCode"`
}

type SigninRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Phone     string     `json:"phone,omitempty"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
}

func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName,
		Phone: u.Phone, Role: u.Role, CreatedAt: u.CreatedAt,
	}
}

// --- Cars ---

type Availability struct {
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required"`
}

type CreateCarRequest struct {
	Brand        string            `json:"brand" binding:"required"`
	Model        string            `json:"model" binding:"required"`
	Year         int               `json:"year" binding:"required,min=1886"`
	Capacity     int               `json:"capacity" binding:"min=0"`
	FuelType     string            `json:"fuelType"`
	Transmission string            `json:"transmission"`
	Description  string            `json:"description"`
	Color        string            `json:"color"`
	Mileage      int               `json:"mileage" binding:"min=0"`
	Location     string            `json:"location"`
	Images       []string          `json:"images"`
	ListingType  model.ListingType `json:"listingType" binding:"required,listingtype"`
	Price        decimal.Decimal   `json:"price"`
	Availability *Availability     `json:"availability"`
}

// UpdateCarRequest is a partial update; nil fields are left unchanged.
type UpdateCarRequest struct {
	Brand        *string            `json:"brand" binding:"omitempty,min=1"`
	Model        *string            `json:"model" binding:"omitempty,min=1"`
	Year         *int               `json:"year" binding:"omitempty,min=1886"`
	Capacity     *int               `json:"capacity" binding:"omitempty,min=0"`
	FuelType     *string            `json:"fuelType"`
	Transmission *string            `json:"transmission"`
	Description  *string            `json:"description"`
	Color        *string            `json:"color"`
	Mileage      *int               `json:"mileage" binding:"omitempty,min=0"`
	Location     *string            `json:"location"`
	Images       []string           `json:"images"`
	ListingType  *model.ListingType `json:"listingType" binding:"omitempty,listingtype"`
	Price        *decimal.Decimal   `json:"price"`
	Availability *Availability      `json:"availability"`
	Status       *model.CarStatus   `json:"status" binding:"omitempty,oneof=active sold rented inactive"`
}

type CarResponse struct {
	ID           uuid.UUID         `json:"id"`
	SellerID     uuid.UUID         `json:"sellerId"`
	Brand        string            `json:"brand"`
	Model        string            `json:"model"`
	Year         int               `json:"year"`
	Capacity     int               `json:"capacity"`
	FuelType     string            `json:"fuelType"`
	Transmission string            `json:"transmission"`
	Description  string            `json:"description"`
	Color        string            `json:"color"`
	Mileage      int               `json:"mileage"`
	Location     string            `json:"location"`
	Images       []string          `json:"images"`
	ListingType  model.ListingType `json:"listingType"`
	Price        decimal.Decimal   `json:"price"`
	Availability *Availability     `json:"availability,omitempty"`
	Status       model.CarStatus   `json:"status"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

type CarListResponse struct {
	Cars []CarResponse `json:"cars"`
}

func NewCarResponse(c *model.Car) CarResponse {
	resp := CarResponse{
		ID: c.ID, SellerID: c.SellerID, Brand: c.Brand, Model: c.Model, Year: c.Year,
		Capacity: c.Capacity, FuelType: c.FuelType, Transmission: c.Transmission,
		Description: c.Description, Color: c.Color, Mileage: c.Mileage, Location: c.Location,
		Images: c.Images, ListingType: c.ListingType, Price: c.Price, Status: c.Status,
		CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	if c.Availability != nil {
		resp.Availability = &Availability{StartDate: c.Availability.StartDate, EndDate: c.Availability.EndDate}
	}
	return resp
}

func NewCarListResponse(cars []model.Car) CarListResponse {
	out := CarListResponse{Cars: make([]CarResponse, 0, len(cars))}
	for i := range cars {
		out.Cars = append(out.Cars, NewCarResponse(&cars[i]))
	}
	return out
}

// --- Cart ---

type AddCartItemRequest struct {
	CarID uuid.UUID `json:"carId" binding:"required"`
}

// CarSummaryResponse and ContactResponse are embedded in cart and order lines.
type CarSummaryResponse struct {
	Brand       string            `json:"brand"`
	Model       string            `json:"model"`
	Year        int               `json:"year"`
	ListingType model.ListingType `json:"listingType"`
	Status      model.CarStatus   `json:"status"`
	Images      []string          `json:"images"`
}

type ContactResponse struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

func newLineDetails(car *model.CarSummary, owner *model.Contact) (*CarSummaryResponse, *ContactResponse) {
	var carResp *CarSummaryResponse
	var ownerResp *ContactResponse
	if car != nil {
		images := car.Images
		if images == nil {
			images = []string{}
		}
		carResp = &CarSummaryResponse{
			Brand: car.Brand, Model: car.Model, Year: car.Year,
			ListingType: car.ListingType, Status: car.Status, Images: images,
		}
	}
	if owner != nil {
		ownerResp = &ContactResponse{FirstName: owner.FirstName, LastName: owner.LastName, Email: owner.Email, Phone: owner.Phone}
	}
	return carResp, ownerResp
}

type CartItemResponse struct {
	CarID   uuid.UUID           `json:"carId"`
	OwnerID uuid.UUID           `json:"ownerId"`
	Price   decimal.Decimal     `json:"price"`
	AddedAt time.Time           `json:"addedAt"`
	Car     *CarSummaryResponse `json:"car,omitempty"`
	Owner   *ContactResponse    `json:"owner,omitempty"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

func NewCartResponse(c *model.Cart) CartResponse {
	resp := CartResponse{Items: []CartItemResponse{}, Total: c.Total()}
	if c == nil {
		return resp
	}
	for _, item := range c.Items {
		line := CartItemResponse{CarID: item.CarID, OwnerID: item.OwnerID, Price: item.Price, AddedAt: item.AddedAt}
		line.Car, line.Owner = newLineDetails(item.Car, item.Owner)
		resp.Items = append(resp.Items, line)
	}
	return resp
}

// --- Checkout / Orders ---

type CheckoutRequest struct {
	PaymentMethod model.PaymentMethod `json:"paymentMethod" binding:"omitempty,paymentmethod"`
}

type CheckoutResponse struct {
	OrderID       uuid.UUID           `json:"orderId"`
	Total         decimal.Decimal     `json:"total"`
	PaymentMethod model.PaymentMethod `json:"paymentMethod"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
	Status        model.OrderStatus   `json:"status"`
	DeliveryDate  time.Time           `json:"deliveryDate"`
}

func NewCheckoutResponse(o *model.Order) CheckoutResponse {
	return CheckoutResponse{
		OrderID: o.ID, Total: o.Total, PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus, Status: o.Status, DeliveryDate: o.DeliveryDate,
	}
}

type OrderItemResponse struct {
	CarID   uuid.UUID           `json:"carId"`
	OwnerID uuid.UUID           `json:"ownerId"`
	Price   decimal.Decimal     `json:"price"`
	Car     *CarSummaryResponse `json:"car,omitempty"`
	Owner   *ContactResponse    `json:"owner,omitempty"`
}

type OrderResponse struct {
	ID            uuid.UUID           `json:"id"`
	UserID        uuid.UUID           `json:"userId"`
	Items         []OrderItemResponse `json:"items"`
	Total         decimal.Decimal     `json:"total"`
	PaymentMethod model.PaymentMethod `json:"paymentMethod"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
	Status        model.OrderStatus   `json:"status"`
	DeliveryDate  time.Time           `json:"deliveryDate"`
	CreatedAt     time.Time           `json:"createdAt"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
}

func NewOrderResponse(o *model.Order) OrderResponse {
	resp := OrderResponse{
		ID: o.ID, UserID: o.UserID, Items: make([]OrderItemResponse, 0, len(o.Items)), Total: o.Total,
		PaymentMethod: o.PaymentMethod, PaymentStatus: o.PaymentStatus, Status: o.Status,
		DeliveryDate: o.DeliveryDate, CreatedAt: o.CreatedAt,
	}
	for _, item := range o.Items {
		line := OrderItemResponse{CarID: item.CarID, OwnerID: item.OwnerID, Price: item.Price}
		line.Car, line.Owner = newLineDetails(item.Car, item.Owner)
		resp.Items = append(resp.Items, line)
	}
	return resp
}

func NewOrderListResponse(orders []model.Order) OrderListResponse {
	out := OrderListResponse{Orders: make([]OrderResponse, 0, len(orders))}
	for i := range orders {
		out.Orders = append(out.Orders, NewOrderResponse(&orders[i]))
	}
	return out
}

// --- Rentals ---

type CreateRentalRequest struct {
	CarID     uuid.UUID `json:"carId" binding:"required"`
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required"`
}

type RentalResponse struct {
	ID          uuid.UUID          `json:"id"`
	CarID       uuid.UUID          `json:"carId"`
	StartDate   time.Time          `json:"startDate"`
	EndDate     time.Time          `json:"endDate"`
	PricePerDay decimal.Decimal    `json:"pricePerDay"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	Status      model.RentalStatus `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
}

type RentalListResponse struct {
	Rentals []RentalResponse `json:"rentals"`
}

func NewRentalResponse(r *model.Rental) RentalResponse {
	return RentalResponse{
		ID: r.ID, CarID: r.CarID, StartDate: r.StartDate, EndDate: r.EndDate,
		PricePerDay: r.PricePerDay, TotalAmount: r.TotalAmount, Status: r.Status, CreatedAt: r.CreatedAt,
	}
}

func NewRentalListResponse(rentals []model.Rental) RentalListResponse {
	out := RentalListResponse{Rentals: make([]RentalResponse, 0, len(rentals))}
	for i := range rentals {
		out.Rentals = append(out.Rentals, NewRentalResponse(&rentals[i]))
	}
	return out
}

// --- Seller ledger ---

type TransactionResponse struct {
	ID        uuid.UUID               `json:"id"`
	OrderID   uuid.UUID               `json:"orderId"`
	CarID     uuid.UUID               `json:"carId"`
	BuyerID   uuid.UUID               `json:"buyerId"`
	Price     decimal.Decimal         `json:"price"`
	Status    model.TransactionStatus `json:"status"`
	CreatedAt time.Time               `json:"createdAt"`
}

type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

func NewTransactionListResponse(txns []model.Transaction) TransactionListResponse {
	out := TransactionListResponse{Transactions: make([]TransactionResponse, 0, len(txns))}
	for _, t := range txns {
		out.Transactions = append(out.Transactions, TransactionResponse{
			ID: t.ID, OrderID: t.OrderID, CarID: t.CarID, BuyerID: t.BuyerID,
			Price: t.Price, Status: t.Status, CreatedAt: t.CreatedAt,
		})
	}
	return out
}

// --- Errors ---

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
