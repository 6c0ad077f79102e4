package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/api/middleware"
	"github.com/candlecraft/storefront/internal/realtime"
)

// HandleListMyOrders handles GET /v1/me/orders
func HandleListMyOrders(orders OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)

		list, err := orders.ListByUser(c.Request.Context(), user.ID)
		if err != nil {
			respondError(c, logger, err, "list orders")
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list})
	}
}

// HandleGetMyOrder handles GET /v1/me/orders/:id
func HandleGetMyOrder(orders OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)

		orderID, ok := parseUUIDParam(c, "id", "order")
		if !ok {
			return
		}

		order, err := orders.GetForUser(c.Request.Context(), orderID, user.ID)
		if err != nil {
			respondError(c, logger, err, "get order")
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// HandleMyOrderStream handles GET /v1/me/orders/stream
func HandleMyOrderStream(orders OrderService, streams Streamer) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)
		streams.Serve(c.Writer, c.Request, realtime.UserOrdersTopic(user.ID), func(ctx context.Context) (any, error) {
			return orders.ListByUser(ctx, user.ID)
		})
	}
}
