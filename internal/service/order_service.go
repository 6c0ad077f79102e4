package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/internal/realtime"
	"github.com/candlecraft/storefront/internal/repository"
	"github.com/candlecraft/storefront/pkg/errors"
)

// Publisher pushes the full, current result set of a topic to its subscribers
type Publisher interface {
	Publish(topic string, snapshot any) error
}

type orderService struct {
	repos     *repository.Repositories
	publisher Publisher
	logger    *zap.Logger
}

// NewOrderService creates a new order service. publisher may be nil.
func NewOrderService(repos *repository.Repositories, publisher Publisher, logger *zap.Logger) *orderService {
	return &orderService{
		repos:     repos,
		publisher: publisher,
		logger:    logger,
	}
}

// PlaceOrder stores a checked-out order and notifies order subscribers
func (s *orderService) PlaceOrder(ctx context.Context, order *domain.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPendingPayment
	}
	if order.PaymentStatus == "" {
		order.PaymentStatus = domain.PaymentStatusPending
	}

	// Create order with its items
	if err := s.repos.Order.Create(ctx, order); err != nil {
		return err
	}

	// Log order creation event
	event := &domain.OrderEvent{
		OrderID:   order.ID,
		EventType: "order_created",
		EventData: map[string]interface{}{
			"user_id":     order.UserID.String(),
			"status":      order.Status,
			"order_total": order.OrderTotal,
			"items":       len(order.Items),
		},
	}
	if err := s.repos.OrderEvent.Create(ctx, event); err != nil {
		s.logger.Warn("Failed to log order event", zap.Error(err))
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", order.UserID.String()),
		zap.Float64("total", order.OrderTotal),
	)

	s.publishOrders(ctx, order.UserID)
	return nil
}

// UpdateStatus moves an order along its lifecycle. Delivered orders are
// marked as paid.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, req UpdateStatusRequest) (*domain.Order, error) {
	if !req.Status.IsValid() {
		return nil, &errors.ErrValidation{Field: "status", Message: "unknown order status: " + string(req.Status)}
	}

	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Validate state transition
	if !order.Status.CanTransitionTo(req.Status) {
		return nil, &errors.ErrInvalidStateTransition{
			From: string(order.Status),
			To:   string(req.Status),
		}
	}

	update := repository.OrderStatusUpdate{
		Status:                req.Status,
		EstimatedDeliveryDate: req.EstimatedDeliveryDate,
	}
	if req.Status == domain.OrderStatusDelivered {
		completed := domain.PaymentStatusCompleted
		update.PaymentStatus = &completed
	}

	if err := s.repos.Order.UpdateStatus(ctx, orderID, update); err != nil {
		return nil, err
	}

	// Log event
	data := map[string]interface{}{
		"from": order.Status,
		"to":   req.Status,
	}
	if req.EstimatedDeliveryDate != nil {
		data["estimated_delivery_date"] = req.EstimatedDeliveryDate.Format(time.RFC3339)
	}
	event := &domain.OrderEvent{
		OrderID:   orderID,
		EventType: "status_change",
		EventData: data,
	}
	if err := s.repos.OrderEvent.Create(ctx, event); err != nil {
		s.logger.Warn("Failed to log order event", zap.Error(err))
	}

	updated, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.publishOrders(ctx, updated.UserID)
	return updated, nil
}

// GetForUser returns an order owned by userID
func (s *orderService) GetForUser(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, &errors.ErrNotFound{Resource: "order", ID: orderID.String()}
	}
	return order, nil
}

// ListByUser returns the orders of one user, newest first
func (s *orderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return s.repos.Order.ListByUserID(ctx, userID)
}

// List returns every order, newest first
func (s *orderService) List(ctx context.Context) ([]*domain.Order, error) {
	return s.repos.Order.List(ctx)
}

// Events returns the audit trail of an order
func (s *orderService) Events(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error) {
	return s.repos.OrderEvent.ListByOrderID(ctx, orderID)
}

// publishOrders pushes fresh order lists to the admin and owner topics
func (s *orderService) publishOrders(ctx context.Context, userID uuid.UUID) {
	if s.publisher == nil {
		return
	}

	if all, err := s.repos.Order.List(ctx); err != nil {
		s.logger.Warn("Failed to load orders for broadcast", zap.Error(err))
	} else if err := s.publisher.Publish(realtime.TopicAllOrders, all); err != nil {
		s.logger.Warn("Failed to broadcast orders", zap.Error(err))
	}

	if mine, err := s.repos.Order.ListByUserID(ctx, userID); err != nil {
		s.logger.Warn("Failed to load user orders for broadcast", zap.Error(err))
	} else if err := s.publisher.Publish(realtime.UserOrdersTopic(userID), mine); err != nil {
		s.logger.Warn("Failed to broadcast user orders", zap.Error(err))
	}
}
