package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/pkg/errors"
)

type idempotencyKeyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewIdempotencyKeyRepository creates a new idempotency key repository
func NewIdempotencyKeyRepository(db *sql.DB, logger *zap.Logger) *idempotencyKeyRepository {
	return &idempotencyKeyRepository{
		db:     db,
		logger: logger,
	}
}

func (r *idempotencyKeyRepository) Get(ctx context.Context, key string, userID uuid.UUID) (*domain.IdempotencyKey, error) {
	var k domain.IdempotencyKey
	err := r.db.QueryRowContext(ctx, `
		SELECT key, user_id, order_id, request_hash, created_at
		FROM idempotency_keys
		WHERE key = $1 AND user_id = $2
	`, key, userID).Scan(&k.Key, &k.UserID, &k.OrderID, &k.RequestHash, &k.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "idempotency_key", ID: key}
	}
	if err != nil {
		r.logger.Error("Failed to get idempotency key", zap.Error(err))
		return nil, err
	}
	return &k, nil
}

func (r *idempotencyKeyRepository) Create(ctx context.Context, k *domain.IdempotencyKey) error {
	if k.CreatedAt.IsZero() {
		k.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO idempotency_keys (key, user_id, order_id, request_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key, user_id) DO NOTHING
	`, k.Key, k.UserID, k.OrderID, k.RequestHash, k.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to store idempotency key", zap.Error(err))
		return err
	}
	return nil
}
