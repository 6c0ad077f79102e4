package domain

// OrderStatus represents the fulfilment status of a customer order
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPendingPayment,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// progression is the forward order of non-cancelled statuses
var progression = []OrderStatus{
	OrderStatusPendingPayment,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
}

func (s OrderStatus) rank() int {
	for i, st := range progression {
		if st == s {
			return i
		}
	}
	return -1
}

// CanTransitionTo checks if a status transition is valid.
// Progression is one-directional but may skip steps; cancellation is allowed
// before delivery. Delivered and cancelled are terminal.
func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	from := s.rank()
	if from < 0 || s == OrderStatusDelivered {
		return false
	}
	if newStatus == OrderStatusCancelled {
		return true
	}
	return newStatus.rank() > from
}

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	default:
		return false
	}
}

// Role is the access level of a user profile
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// LoginType selects which profile field a login identifier is matched against
type LoginType string

const (
	LoginTypeEmail    LoginType = "email"
	LoginTypePhone    LoginType = "phone"
	LoginTypeUsername LoginType = "username"
)

// IsValid checks if the login type is supported
func (t LoginType) IsValid() bool {
	switch t {
	case LoginTypeEmail, LoginTypePhone, LoginTypeUsername:
		return true
	default:
		return false
	}
}
