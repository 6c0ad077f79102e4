package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/internal/realtime"
	"github.com/candlecraft/storefront/internal/service"
)

// UploadURLRequest represents a product image upload request
type UploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// HandleListOrders handles GET /v1/admin/orders
func HandleListOrders(orders OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := orders.List(c.Request.Context())
		if err != nil {
			respondError(c, logger, err, "list orders")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orders": list,
			"count":  len(list),
		})
	}
}

// HandleUpdateOrderStatus handles PATCH /v1/admin/orders/:id/status
func HandleUpdateOrderStatus(orders OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseUUIDParam(c, "id", "order")
		if !ok {
			return
		}

		var req service.UpdateStatusRequest
		if !bindJSON(c, &req) {
			return
		}

		order, err := orders.UpdateStatus(c.Request.Context(), orderID, req)
		if err != nil {
			respondError(c, logger, err, "update order status")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":                    order.ID.String(),
			"status":                order.Status,
			"paymentStatus":         order.PaymentStatus,
			"estimatedDeliveryDate": order.EstimatedDeliveryDate,
		})
	}
}

// HandleOrderEvents handles GET /v1/admin/orders/:id/events
func HandleOrderEvents(orders OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseUUIDParam(c, "id", "order")
		if !ok {
			return
		}

		events, err := orders.Events(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, logger, err, "list order events")
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}

// HandleAdminOrderStream handles GET /v1/admin/orders/stream
func HandleAdminOrderStream(orders OrderService, streams Streamer) gin.HandlerFunc {
	return func(c *gin.Context) {
		streams.Serve(c.Writer, c.Request, realtime.TopicAllOrders, func(ctx context.Context) (any, error) {
			return orders.List(ctx)
		})
	}
}

// HandleCreateProduct handles POST /v1/admin/products
func HandleCreateProduct(products ProductService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.ProductInput
		if !bindJSON(c, &req) {
			return
		}

		product, err := products.Create(c.Request.Context(), req)
		if err != nil {
			respondError(c, logger, err, "create product")
			return
		}
		c.JSON(http.StatusCreated, newProductView(product))
	}
}

// HandleUpdateProduct handles PATCH /v1/admin/products/:id
func HandleUpdateProduct(products ProductService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.ProductInput
		if !bindJSON(c, &req) {
			return
		}

		product, err := products.Update(c.Request.Context(), domain.ProductID(c.Param("id")), req)
		if err != nil {
			respondError(c, logger, err, "update product")
			return
		}
		c.JSON(http.StatusOK, newProductView(product))
	}
}

// HandleDeleteProduct handles DELETE /v1/admin/products/:id
func HandleDeleteProduct(products ProductService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := products.Delete(c.Request.Context(), domain.ProductID(c.Param("id"))); err != nil {
			respondError(c, logger, err, "delete product")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// HandleProductUploadURL handles POST /v1/admin/products/:id/upload-url
func HandleProductUploadURL(products ProductService, uploads UploadPresigner, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if uploads == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image uploads are not configured"})
			return
		}

		var req UploadURLRequest
		if !bindJSON(c, &req) {
			return
		}

		id := domain.ProductID(c.Param("id"))
		if _, err := products.Get(c.Request.Context(), id); err != nil {
			respondError(c, logger, err, "load product")
			return
		}

		upload, err := uploads.ProductImageUpload(c.Request.Context(), id, req.ContentType)
		if err != nil {
			respondError(c, logger, err, "create upload URL")
			return
		}
		c.JSON(http.StatusOK, upload)
	}
}

// HandleStats handles GET /v1/admin/stats
func HandleStats(stats StatsService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := stats.Compute(c.Request.Context())
		if err != nil {
			respondError(c, logger, err, "compute stats")
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}
