// Package repository declares the document-store capability as typed
// repositories. internal/repository/postgres implements them.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/candlecraft/storefront/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.UserProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error)
	GetByPhone(ctx context.Context, phone string) (*domain.UserProfile, error)
	GetByUsername(ctx context.Context, username string) (*domain.UserProfile, error)
	Update(ctx context.Context, user *domain.UserProfile) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id domain.ProductID) (*domain.Product, error)
	// List returns products newest first
	List(ctx context.Context) ([]*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id domain.ProductID) error
}

// OrderStatusUpdate carries the fields changed by an admin status update
type OrderStatusUpdate struct {
	Status                domain.OrderStatus
	PaymentStatus         *domain.PaymentStatus
	EstimatedDeliveryDate *time.Time
}

type OrderRepository interface {
	// Create stores the order and its items atomically
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// ListByUserID and List return orders newest first
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, update OrderStatusUpdate) error
}

type OrderEventRepository interface {
	Create(ctx context.Context, event *domain.OrderEvent) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error)
}

type IdempotencyKeyRepository interface {
	Get(ctx context.Context, key string, userID uuid.UUID) (*domain.IdempotencyKey, error)
	Create(ctx context.Context, key *domain.IdempotencyKey) error
}

type PhoneVerificationRepository interface {
	Create(ctx context.Context, v *domain.PhoneVerification) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PhoneVerification, error)
	IncrementAttempts(ctx context.Context, id uuid.UUID) error
	DeleteByPhone(ctx context.Context, phone string) error
}

// Repositories groups every repository the services depend on
type Repositories struct {
	User              UserRepository
	Product           ProductRepository
	Order             OrderRepository
	OrderEvent        OrderEventRepository
	IdempotencyKey    IdempotencyKeyRepository
	PhoneVerification PhoneVerificationRepository
}
