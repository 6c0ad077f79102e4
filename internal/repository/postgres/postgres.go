package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/config"
	"github.com/candlecraft/storefront/internal/repository"
	"github.com/candlecraft/storefront/pkg/errors"
)

const uniqueViolation = "23505"

// NewConnection opens and pings a Postgres connection pool
func NewConnection(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

// NewRepositories wires every Postgres repository onto db
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		User:              NewUserRepository(db, logger),
		Product:           NewProductRepository(db, logger),
		Order:             NewOrderRepository(db, logger),
		OrderEvent:        NewOrderEventRepository(db, logger),
		IdempotencyKey:    NewIdempotencyKeyRepository(db, logger),
		PhoneVerification: NewPhoneVerificationRepository(db, logger),
	}
}

// Migrate creates the schema if it does not exist
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// conflictFrom turns a unique violation into an ErrConflict naming the column
func conflictFrom(err error, resource string) error {
	pqErr, ok := err.(*pq.Error)
	if !ok || pqErr.Code != uniqueViolation {
		return err
	}
	field := pqErr.Constraint
	field = strings.TrimPrefix(field, resource+"s_")
	field = strings.TrimSuffix(field, "_key")
	return &errors.ErrConflict{Resource: resource, Field: field}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id             UUID PRIMARY KEY,
		email          TEXT NOT NULL,
		username       TEXT NOT NULL UNIQUE,
		full_name      TEXT NOT NULL,
		phone_number   TEXT NOT NULL UNIQUE,
		phone_verified BOOLEAN NOT NULL DEFAULT FALSE,
		email_verified BOOLEAN NOT NULL DEFAULT FALSE,
		addresses      JSONB NOT NULL DEFAULT '[]',
		role           TEXT NOT NULL DEFAULT 'user',
		password_hash  TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email) WHERE email <> ''`,
	`CREATE TABLE IF NOT EXISTS products (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		price          NUMERIC(12,2) NOT NULL,
		original_price NUMERIC(12,2) NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		images         TEXT[] NOT NULL DEFAULT '{}',
		features       TEXT[] NOT NULL DEFAULT '{}',
		specifications JSONB NOT NULL DEFAULT '{}',
		category       TEXT NOT NULL DEFAULT '',
		in_stock       BOOLEAN NOT NULL DEFAULT TRUE,
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL,
		CHECK (price <= original_price)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id                      UUID PRIMARY KEY,
		user_id                 UUID NOT NULL REFERENCES users (id),
		delivery_address        JSONB NOT NULL,
		order_total             NUMERIC(12,2) NOT NULL,
		status                  TEXT NOT NULL,
		payment_status          TEXT NOT NULL,
		estimated_delivery_date TIMESTAMPTZ,
		created_at              TIMESTAMPTZ NOT NULL,
		updated_at              TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_user_id_idx ON orders (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id            UUID PRIMARY KEY,
		order_id      UUID NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
		position      INT NOT NULL,
		product_id    TEXT NOT NULL,
		product_name  TEXT NOT NULL,
		product_image TEXT NOT NULL DEFAULT '',
		quantity      INT NOT NULL CHECK (quantity > 0),
		price         NUMERIC(12,2) NOT NULL,
		total         NUMERIC(12,2) NOT NULL,
		is_gift       BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS order_events (
		id         UUID PRIMARY KEY,
		order_id   UUID NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
		event_type TEXT NOT NULL,
		event_data JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS idempotency_keys (
		key          TEXT NOT NULL,
		user_id      UUID NOT NULL,
		order_id     UUID NOT NULL,
		request_hash TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (key, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS phone_verifications (
		id           UUID PRIMARY KEY,
		phone_number TEXT NOT NULL,
		code_hash    TEXT NOT NULL,
		status       TEXT NOT NULL,
		attempts     INT NOT NULL DEFAULT 0,
		sent_at      TIMESTAMPTZ NOT NULL,
		expires_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS phone_verifications_phone_idx ON phone_verifications (phone_number)`,
}
