package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/api/middleware"
	"github.com/candlecraft/storefront/internal/cart"
	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/internal/repository"
	"github.com/candlecraft/storefront/pkg/errors"
)

// AddCartItemRequest represents an add-to-cart submission
type AddCartItemRequest struct {
	ProductID domain.ProductID `json:"productId" binding:"required"`
	Quantity  *int             `json:"quantity,omitempty"`
	IsGift    bool             `json:"isGift"`
}

// UpdateCartItemRequest represents a quantity change
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// CheckoutRequest selects the saved delivery address
type CheckoutRequest struct {
	AddressID string `json:"addressId" binding:"required"`
}

// CartResponse is the cart with its price summary
type CartResponse struct {
	Items   []domain.CartItem  `json:"items"`
	Summary domain.CartSummary `json:"summary"`
}

// CheckoutResponse represents a created order
type CheckoutResponse struct {
	OrderID string             `json:"orderId"`
	Status  domain.OrderStatus `json:"status"`
}

func cartResponse(c *cart.Cart) CartResponse {
	return CartResponse{Items: c.Items(), Summary: c.Summary()}
}

// HandleGetCart handles GET /v1/cart. Anonymous callers get an empty cart.
func HandleGetCart(carts *cart.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)

		var resp CartResponse
		err := carts.With(c.Request.Context(), user, func(cc *cart.Cart) error {
			resp = cartResponse(cc)
			return nil
		})
		if err != nil {
			respondError(c, logger, err, "load cart")
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HandleAddCartItem handles POST /v1/cart/items
func HandleAddCartItem(carts *cart.Manager, products ProductService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)

		var req AddCartItemRequest
		if !bindJSON(c, &req) {
			return
		}
		quantity := 1
		if req.Quantity != nil {
			quantity = *req.Quantity
		}

		product, err := products.Get(c.Request.Context(), req.ProductID)
		if err != nil {
			respondError(c, logger, err, "load product")
			return
		}
		if !product.InStock {
			respondError(c, logger, &errors.ErrValidation{Field: "productId", Message: "product is out of stock"}, "add to cart")
			return
		}

		var (
			item domain.CartItem
			resp CartResponse
		)
		err = carts.With(c.Request.Context(), user, func(cc *cart.Cart) error {
			var addErr error
			item, addErr = cc.AddToCart(c.Request.Context(), *product, req.IsGift, quantity)
			if addErr != nil {
				return addErr
			}
			resp = cartResponse(cc)
			return nil
		})
		if err != nil {
			respondError(c, logger, err, "add to cart")
			return
		}

		c.JSON(http.StatusCreated, gin.H{"item": item, "cart": resp})
	}
}

// HandleUpdateCartItem handles PATCH /v1/cart/items/:id
func HandleUpdateCartItem(carts *cart.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			respondError(c, logger, &errors.ErrAuthenticationRequired{Operation: "update-quantity"}, "update cart")
			return
		}

		var req UpdateCartItemRequest
		if !bindJSON(c, &req) {
			return
		}

		var resp CartResponse
		err := carts.With(c.Request.Context(), user, func(cc *cart.Cart) error {
			cc.UpdateQuantity(c.Param("id"), *req.Quantity)
			resp = cartResponse(cc)
			return nil
		})
		if err != nil {
			respondError(c, logger, err, "update cart")
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HandleRemoveCartItem handles DELETE /v1/cart/items/:id
func HandleRemoveCartItem(carts *cart.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			respondError(c, logger, &errors.ErrAuthenticationRequired{Operation: "remove-from-cart"}, "update cart")
			return
		}

		var resp CartResponse
		err := carts.With(c.Request.Context(), user, func(cc *cart.Cart) error {
			cc.RemoveFromCart(c.Param("id"))
			resp = cartResponse(cc)
			return nil
		})
		if err != nil {
			respondError(c, logger, err, "update cart")
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HandleClearCart handles DELETE /v1/cart
func HandleClearCart(carts *cart.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			respondError(c, logger, &errors.ErrAuthenticationRequired{Operation: "clear-cart"}, "clear cart")
			return
		}

		var resp CartResponse
		err := carts.With(c.Request.Context(), user, func(cc *cart.Cart) error {
			cc.Clear()
			resp = cartResponse(cc)
			return nil
		})
		if err != nil {
			respondError(c, logger, err, "clear cart")
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HandleIsInCart handles GET /v1/cart/products/:id
func HandleIsInCart(carts *cart.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)

		var inCart bool
		err := carts.With(c.Request.Context(), user, func(cc *cart.Cart) error {
			inCart = cc.IsInCart(domain.ProductID(c.Param("id")))
			return nil
		})
		if err != nil {
			respondError(c, logger, err, "load cart")
			return
		}
		c.JSON(http.StatusOK, gin.H{"inCart": inCart})
	}
}

// HandleCheckout handles POST /v1/cart/checkout
func HandleCheckout(carts *cart.Manager, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			respondError(c, logger, &errors.ErrAuthenticationRequired{Operation: "checkout"}, "check out")
			return
		}

		// Check if this is an idempotent request
		idempotencyKey, requestHash, existingOrderID, isExisting := middleware.GetIdempotencyInfo(c)
		if isExisting {
			respondReplay(c, repos, logger, existingOrderID)
			return
		}

		var req CheckoutRequest
		if !bindJSON(c, &req) {
			return
		}

		var orderID, replayOrderID string
		err := carts.With(c.Request.Context(), user, func(cc *cart.Cart) error {
			// a concurrent submit with the same key may have finished while we waited for the cart
			if idempotencyKey != "" {
				existing, err := repos.IdempotencyKey.Get(c.Request.Context(), idempotencyKey, user.ID)
				switch {
				case err == nil && existing.RequestHash != requestHash:
					return &errors.ErrConflict{Resource: "idempotency key", Field: "request"}
				case err == nil:
					replayOrderID = existing.OrderID.String()
					return nil
				case !errors.IsNotFound(err):
					return err
				}
			}

			var checkoutErr error
			orderID, checkoutErr = cc.Checkout(c.Request.Context(), req.AddressID)
			if checkoutErr != nil {
				return checkoutErr
			}

			// Store idempotency key if provided
			if idempotencyKey != "" {
				key := &domain.IdempotencyKey{
					Key:         idempotencyKey,
					UserID:      user.ID,
					OrderID:     uuid.MustParse(orderID),
					RequestHash: requestHash,
				}
				if err := repos.IdempotencyKey.Create(c.Request.Context(), key); err != nil {
					logger.Warn("Failed to store idempotency key", zap.Error(err))
				}
			}
			return nil
		})
		if err != nil {
			respondError(c, logger, err, "check out")
			return
		}
		if replayOrderID != "" {
			respondReplay(c, repos, logger, replayOrderID)
			return
		}

		c.JSON(http.StatusCreated, CheckoutResponse{
			OrderID: orderID,
			Status:  domain.OrderStatusPendingPayment,
		})
	}
}

// respondReplay answers a repeated checkout with the order created the first time
func respondReplay(c *gin.Context, repos *repository.Repositories, logger *zap.Logger, existingOrderID string) {
	orderID, err := uuid.Parse(existingOrderID)
	if err != nil {
		logger.Error("Invalid existing order ID from idempotency", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	order, err := repos.Order.GetByID(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, logger, err, "load order")
		return
	}
	c.JSON(http.StatusOK, CheckoutResponse{OrderID: order.ID.String(), Status: order.Status})
}
