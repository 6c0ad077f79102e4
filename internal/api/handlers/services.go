package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/internal/media"
	"github.com/candlecraft/storefront/internal/realtime"
	"github.com/candlecraft/storefront/internal/service"
	"github.com/candlecraft/storefront/pkg/errors"
)

// OrderService is the order workflow used by the handlers
type OrderService interface {
	GetForUser(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, req service.UpdateStatusRequest) (*domain.Order, error)
	Events(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error)
}

// ProductService is the catalog used by the handlers
type ProductService interface {
	Get(ctx context.Context, id domain.ProductID) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	Create(ctx context.Context, in service.ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id domain.ProductID, in service.ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id domain.ProductID) error
}

// StatsService computes the admin dashboard
type StatsService interface {
	Compute(ctx context.Context) (*domain.AdminStats, error)
}

// UploadPresigner issues product image upload URLs
type UploadPresigner interface {
	ProductImageUpload(ctx context.Context, id domain.ProductID, contentType string) (*media.Upload, error)
}

// Streamer serves realtime topics
type Streamer interface {
	Serve(w http.ResponseWriter, r *http.Request, topic string, snapshot realtime.SnapshotFunc)
}

// respondError maps a service error onto an HTTP response
func respondError(c *gin.Context, logger *zap.Logger, err error, action string) {
	if capErr, ok := errors.AsCapability(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": capErr.Message, "code": capErr.Code})
		return
	}
	if conflict, ok := errors.AsConflict(err); ok {
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error(), "field": conflict.Field})
		return
	}

	switch {
	case errors.IsAuthenticationRequired(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": errors.AuthenticationRequired})
	case errors.IsUnauthorized(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.IsValidation(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.IsInvalidStateTransition(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("Failed to "+action, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + action})
	}
}

// bindJSON binds the body into req, answering 422 on failure
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "validation failed",
			"details": err.Error(),
		})
		return false
	}
	return true
}

// parseUUIDParam parses a path parameter, answering 400 on failure
func parseUUIDParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + label + " ID"})
		return uuid.Nil, false
	}
	return id, true
}
