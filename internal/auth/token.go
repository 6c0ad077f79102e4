package auth

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/pkg/errors"
)

// Claims are carried by every session token
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a session token for user
func (s *Service) IssueToken(user *domain.UserProfile) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.TokenTTL)
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken verifies the signature and expiry of a session token
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, &errors.ErrUnauthorized{Message: "invalid or expired token"}
	}
	return claims, nil
}

// denylist holds signed-out token ids until their natural expiry
type denylist struct {
	mu  sync.Mutex
	ids map[string]time.Time
}

func newDenylist() *denylist {
	return &denylist{ids: make(map[string]time.Time)}
}

func (d *denylist) add(id string, expiresAt, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, exp := range d.ids {
		if now.After(exp) {
			delete(d.ids, k)
		}
	}
	d.ids[id] = expiresAt
}

func (d *denylist) contains(id string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	exp, ok := d.ids[id]
	return ok && !now.After(exp)
}
