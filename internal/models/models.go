package models

import "time"

// UserType distinguishes buyers from sellers
type UserType string

const (
	UserTypeBuyer  UserType = "buyer"
	UserTypeSeller UserType = "seller"
)

// User represents a registered account. The password hash is never serialized.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"firstName" db:"first_name"`
	LastName     string    `json:"lastName" db:"last_name"`
	Phone        string    `json:"phone" db:"phone"`
	Address      string    `json:"address" db:"address"`
	UserType     UserType  `json:"userType" db:"user_type"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Category classifies products
type Category struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

// Product is a seller-owned listing. Deletion is soft: IsActive is flipped
// and the row retained so historical orders keep a valid reference.
type Product struct {
	ID          int64     `json:"id" db:"id"`
	SellerID    int64     `json:"sellerId" db:"seller_id"`
	CategoryID  int64     `json:"categoryId" db:"category_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Stock       int       `json:"stock" db:"stock"`
	ImageURL    string    `json:"imageUrl" db:"image_url"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Cart is a per-user shopping cart. Items are owned by the cart; there are
// no back-references from items to their container.
type Cart struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// CartItem is a (cart, product) pair with a quantity. UnitPrice carries the
// current product price for display; it is not a purchase snapshot.
type CartItem struct {
	ID        int64   `json:"id" db:"id"`
	CartID    int64   `json:"cartId" db:"cart_id"`
	ProductID int64   `json:"productId" db:"product_id"`
	Quantity  int     `json:"quantity" db:"quantity"`
	UnitPrice float64 `json:"unitPrice" db:"-"`
}

// OrderStatus is the closed set of order states
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// statusTransitions is the legal transition table. Delivered and cancelled
// are terminal.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// Valid reports whether s belongs to the status enum
func (s OrderStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is legal
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, t := range statusTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Order belongs to one user and owns its items, fixed at creation time.
// TotalAmount is the server-computed authoritative total.
type Order struct {
	ID              int64       `json:"id" db:"id"`
	UserID          int64       `json:"userId" db:"user_id"`
	Status          OrderStatus `json:"status" db:"status"`
	ShippingAddress string      `json:"shippingAddress" db:"shipping_address"`
	TotalAmount     float64     `json:"totalAmount" db:"total_amount"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time   `json:"updatedAt" db:"updated_at"`
}

// OrderItem snapshots the product price at purchase time. PriceAtPurchase
// and Subtotal are immutable once the order is created.
type OrderItem struct {
	ID              int64   `json:"id" db:"id"`
	OrderID         int64   `json:"orderId" db:"order_id"`
	ProductID       int64   `json:"productId" db:"product_id"`
	Quantity        int     `json:"quantity" db:"quantity"`
	PriceAtPurchase float64 `json:"priceAtPurchase" db:"price_at_purchase"`
	Subtotal        float64 `json:"subtotal" db:"subtotal"`
}

// CartView is a cart with its items and a computed total
type CartView struct {
	Cart  *Cart      `json:"cart"`
	Items []CartItem `json:"items"`
	Total float64    `json:"total"`
}

// RegisterUserRequest is the payload for POST /api/users
type RegisterUserRequest struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Phone     string   `json:"phone"`
	Address   string   `json:"address"`
	UserType  UserType `json:"userType"`
}

// LoginRequest is the payload for POST /api/users/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest carries the mutable profile fields
type UpdateUserRequest struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Phone     string   `json:"phone"`
	Address   string   `json:"address"`
	UserType  UserType `json:"userType"`
}

// ProductRequest is the payload for creating or updating a product
type ProductRequest struct {
	SellerID    int64   `json:"sellerId"`
	CategoryID  int64   `json:"categoryId"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	ImageURL    string  `json:"imageUrl"`
}

// AddToCartRequest is the payload for POST /api/cart/add
type AddToCartRequest struct {
	UserID    int64 `json:"userId"`
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// UpdateCartItemRequest is the payload for PUT /api/cart/update
type UpdateCartItemRequest struct {
	CartItemID int64 `json:"cartItemId"`
	Quantity   int   `json:"quantity"`
}

// OrderItemRequest is one requested line item
type OrderItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// CreateOrderRequest is the payload for POST /api/orders. TotalAmount is a
// pointer so an absent field can be told apart from zero.
type CreateOrderRequest struct {
	UserID          int64              `json:"userId"`
	TotalAmount     *float64           `json:"totalAmount"`
	ShippingAddress string             `json:"shippingAddress"`
	Items           []OrderItemRequest `json:"items"`
}

// UpdateOrderStatusRequest is the payload for PUT /api/orders/{id}/status
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}
