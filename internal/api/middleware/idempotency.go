package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/repository"
	"github.com/candlecraft/storefront/pkg/errors"
)

const (
	idempotencyKeyHeader     = "Idempotency-Key"
	idempotencyKeyContext    = "idempotency_key"
	idempotencyHashContext   = "idempotency_request_hash"
	idempotencyExistingOrder = "idempotency_existing_order_id"
)

// IdempotencyMiddleware detects replays of a checkout. A replay with the same
// body is flagged so the handler can return the order created the first time;
// a different body under the same key is rejected.
func IdempotencyMiddleware(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		user, ok := GetUserFromContext(c)
		if !ok {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		sum := sha256.Sum256(body)
		requestHash := hex.EncodeToString(sum[:])
		c.Set(idempotencyKeyContext, key)
		c.Set(idempotencyHashContext, requestHash)

		existing, err := repos.IdempotencyKey.Get(c.Request.Context(), key, user.ID)
		if err != nil {
			if !errors.IsNotFound(err) {
				logger.Error("Failed to check idempotency key", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				c.Abort()
				return
			}
			c.Next()
			return
		}

		if existing.RequestHash != requestHash {
			c.JSON(http.StatusConflict, gin.H{"error": "idempotency key reused with a different request"})
			c.Abort()
			return
		}

		c.Set(idempotencyExistingOrder, existing.OrderID.String())
		c.Next()
	}
}

// GetIdempotencyInfo returns the key, request hash and, for replays, the
// order id stored the first time
func GetIdempotencyInfo(c *gin.Context) (key, requestHash, existingOrderID string, isExisting bool) {
	key = c.GetString(idempotencyKeyContext)
	requestHash = c.GetString(idempotencyHashContext)
	existingOrderID = c.GetString(idempotencyExistingOrder)
	return key, requestHash, existingOrderID, existingOrderID != ""
}
