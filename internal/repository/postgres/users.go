package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/pkg/errors"
)

const userColumns = `id, email, username, full_name, phone_number, phone_verified, email_verified,
	addresses, role, password_hash, created_at, updated_at`

type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

func (r *userRepository) scan(row *sql.Row) (*domain.UserProfile, error) {
	var user domain.UserProfile
	var addresses []byte

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.FullName,
		&user.PhoneNumber,
		&user.PhoneVerified,
		&user.EmailVerified,
		&addresses,
		&user.Role,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(addresses, &user.Addresses); err != nil {
		return nil, fmt.Errorf("failed to decode addresses: %w", err)
	}
	if user.Addresses == nil {
		user.Addresses = []domain.Address{}
	}

	return &user, nil
}

func (r *userRepository) getBy(ctx context.Context, column, value string) (*domain.UserProfile, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1 LIMIT 1`

	user, err := r.scan(r.db.QueryRowContext(ctx, query, value))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "user", ID: value}
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.String("by", column), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.UserProfile, error) {
	return r.getBy(ctx, "id", id.String())
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	return r.getBy(ctx, "email", email)
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*domain.UserProfile, error) {
	return r.getBy(ctx, "phone_number", phone)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.UserProfile, error) {
	return r.getBy(ctx, "username", username)
}

func (r *userRepository) Create(ctx context.Context, user *domain.UserProfile) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	now := time.Now()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	if user.Addresses == nil {
		user.Addresses = []domain.Address{}
	}

	addresses, err := json.Marshal(user.Addresses)
	if err != nil {
		return fmt.Errorf("failed to encode addresses: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.FullName,
		user.PhoneNumber,
		user.PhoneVerified,
		user.EmailVerified,
		addresses,
		user.Role,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create user", zap.Error(err))
		return conflictFrom(err, "user")
	}

	return nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.UserProfile) error {
	query := `
		UPDATE users
		SET email = $2, username = $3, full_name = $4, phone_number = $5, phone_verified = $6,
			email_verified = $7, addresses = $8, role = $9, password_hash = $10, updated_at = $11
		WHERE id = $1
	`

	user.UpdatedAt = time.Now()
	addresses, err := json.Marshal(user.Addresses)
	if err != nil {
		return fmt.Errorf("failed to encode addresses: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.FullName,
		user.PhoneNumber,
		user.PhoneVerified,
		user.EmailVerified,
		addresses,
		user.Role,
		user.PasswordHash,
		user.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update user", zap.Error(err))
		return conflictFrom(err, "user")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &errors.ErrNotFound{Resource: "user", ID: user.ID.String()}
	}

	return nil
}
