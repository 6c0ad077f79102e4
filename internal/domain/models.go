package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog record. Price never exceeds OriginalPrice.
type Product struct {
	ID             ProductID         `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	Price          float64           `json:"price" yaml:"price"`
	OriginalPrice  float64           `json:"originalPrice" yaml:"original_price"`
	Description    string            `json:"description" yaml:"description"`
	Images         []string          `json:"images" yaml:"images"`
	Features       []string          `json:"features" yaml:"features"`
	Specifications map[string]string `json:"specifications" yaml:"specifications"`
	Category       string            `json:"category,omitempty" yaml:"category"`
	InStock        bool              `json:"inStock" yaml:"-"`
	CreatedAt      time.Time         `json:"createdAt" yaml:"-"`
	UpdatedAt      time.Time         `json:"updatedAt" yaml:"-"`
}

// CartItem is one line of a cart. Product is a snapshot copied when the line was added.
type CartItem struct {
	ID       string    `json:"id"`
	Product  Product   `json:"product"`
	Quantity int       `json:"quantity"`
	IsGift   bool      `json:"isGift"`
	AddedAt  time.Time `json:"addedAt"`
}

// CartSummary is derived from cart items on demand and never stored
type CartSummary struct {
	Subtotal      float64 `json:"subtotal"`
	TotalDiscount float64 `json:"totalDiscount"`
	GiftCharges   float64 `json:"giftCharges"`
	PlatformFee   float64 `json:"platformFee"`
	Total         float64 `json:"total"`
	TotalItems    int     `json:"totalItems"`
}

// SignupData is assembled across the signup steps and submitted once
type SignupData struct {
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email,omitempty"`
	Username    string `json:"username"`
	FullName    string `json:"fullName"`
	Password    string `json:"-"`
}

// Address is a saved delivery address of a user
type Address struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	FullName     string `json:"fullName"`
	PhoneNumber  string `json:"phoneNumber"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	IsDefault    bool   `json:"isDefault"`
}

// UserProfile represents a storefront account
type UserProfile struct {
	ID            uuid.UUID `json:"uid"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	FullName      string    `json:"fullName"`
	PhoneNumber   string    `json:"phoneNumber"`
	PhoneVerified bool      `json:"phoneVerified"`
	EmailVerified bool      `json:"emailVerified"`
	Addresses     []Address `json:"addresses"`
	Role          Role      `json:"role"`
	PasswordHash  string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// FindAddress returns the saved address with the given id
func (u *UserProfile) FindAddress(id string) (Address, bool) {
	for _, addr := range u.Addresses {
		if addr.ID == id {
			return addr, true
		}
	}
	return Address{}, false
}

// IsAdmin reports whether the profile carries the admin role
func (u *UserProfile) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Order represents a customer order. Items and DeliveryAddress are frozen copies.
type Order struct {
	ID                    uuid.UUID     `json:"id"`
	UserID                uuid.UUID     `json:"userId"`
	Items                 []OrderItem   `json:"items"`
	DeliveryAddress       Address       `json:"deliveryAddress"`
	OrderTotal            float64       `json:"orderTotal"`
	Status                OrderStatus   `json:"status"`
	PaymentStatus         PaymentStatus `json:"paymentStatus"`
	EstimatedDeliveryDate *time.Time    `json:"estimatedDeliveryDate,omitempty"`
	CreatedAt             time.Time     `json:"createdAt"`
	UpdatedAt             time.Time     `json:"updatedAt"`
}

// OrderItem is a snapshot of a cart line at checkout time
type OrderItem struct {
	ProductID    ProductID `json:"productId"`
	ProductName  string    `json:"productName"`
	ProductImage string    `json:"productImage"`
	Quantity     int       `json:"quantity"`
	Price        float64   `json:"price"`
	Total        float64   `json:"total"`
	IsGift       bool      `json:"isGift"`
}

// IdempotencyKey stores idempotency information for checkout submissions
type IdempotencyKey struct {
	Key         string
	UserID      uuid.UUID
	OrderID     uuid.UUID
	RequestHash string
	CreatedAt   time.Time
}

// OrderEvent represents an audit event for an order
type OrderEvent struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	EventType string
	EventData map[string]interface{} // JSONB
	CreatedAt time.Time
}

// PhoneVerification tracks an OTP sent to a phone number
type PhoneVerification struct {
	ID          uuid.UUID
	PhoneNumber string
	CodeHash    string
	Status      string
	Attempts    int
	SentAt      time.Time
	ExpiresAt   time.Time
}

const (
	VerificationStatusPending  = "pending"
	VerificationStatusVerified = "verified"
)

// ProductSales aggregates units and revenue for one product across orders
type ProductSales struct {
	ProductID   ProductID `json:"productId"`
	ProductName string    `json:"productName"`
	TotalSold   int       `json:"totalSold"`
	Revenue     float64   `json:"revenue"`
}

// AdminStats is the dashboard summary computed from the order list
type AdminStats struct {
	TotalOrders   int            `json:"totalOrders"`
	TotalRevenue  float64        `json:"totalRevenue"`
	ActiveUsers   int            `json:"activeUsers"`
	TotalProducts int            `json:"totalProducts"`
	RecentSales   []*Order       `json:"recentSales"`
	TopProducts   []ProductSales `json:"topProducts"`
}
