package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/pkg/errors"
)

const (
	userContextKey  = "user"
	tokenContextKey = "token"
)

// UserResolver turns a session token into the signed-in profile
type UserResolver interface {
	CurrentUser(ctx context.Context, token string) (*domain.UserProfile, error)
}

// AuthMiddleware resolves the bearer token when one is sent. Requests without
// a token pass through anonymously; invalid tokens are rejected.
func AuthMiddleware(users UserResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		user, err := users.CurrentUser(c.Request.Context(), token)
		if err != nil {
			if errors.IsUnauthorized(err) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
				c.Abort()
				return
			}
			logger.Error("Failed to resolve session", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			c.Abort()
			return
		}

		c.Set(userContextKey, user)
		c.Set(tokenContextKey, token)
		c.Next()
	}
}

// RequireUser rejects anonymous requests
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserFromContext(c); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errors.AuthenticationRequired})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests from anyone but admins
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errors.AuthenticationRequired})
			c.Abort()
			return
		}
		if !user.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserFromContext returns the signed-in user, if any
func GetUserFromContext(c *gin.Context) (*domain.UserProfile, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.UserProfile)
	return user, ok && user != nil
}

// GetTokenFromContext returns the raw session token of the request
func GetTokenFromContext(c *gin.Context) string {
	return c.GetString(tokenContextKey)
}

// extractToken reads the Authorization header, or the access_token query
// parameter that browsers use for WebSocket upgrades
func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return c.Query("access_token")
}
