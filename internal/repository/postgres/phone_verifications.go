package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/pkg/errors"
)

type phoneVerificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPhoneVerificationRepository creates a new phone verification repository
func NewPhoneVerificationRepository(db *sql.DB, logger *zap.Logger) *phoneVerificationRepository {
	return &phoneVerificationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *phoneVerificationRepository) Create(ctx context.Context, v *domain.PhoneVerification) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO phone_verifications (id, phone_number, code_hash, status, attempts, sent_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, v.ID, v.PhoneNumber, v.CodeHash, v.Status, v.Attempts, v.SentAt, v.ExpiresAt)
	if err != nil {
		r.logger.Error("Failed to track phone verification", zap.Error(err))
		return err
	}
	return nil
}

func (r *phoneVerificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PhoneVerification, error) {
	var v domain.PhoneVerification
	err := r.db.QueryRowContext(ctx, `
		SELECT id, phone_number, code_hash, status, attempts, sent_at, expires_at
		FROM phone_verifications
		WHERE id = $1
	`, id).Scan(&v.ID, &v.PhoneNumber, &v.CodeHash, &v.Status, &v.Attempts, &v.SentAt, &v.ExpiresAt)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "phone_verification", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get phone verification", zap.Error(err))
		return nil, err
	}
	return &v, nil
}

func (r *phoneVerificationRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE phone_verifications SET attempts = attempts + 1 WHERE id = $1`, id)
	return err
}

func (r *phoneVerificationRepository) DeleteByPhone(ctx context.Context, phone string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM phone_verifications WHERE phone_number = $1`, phone)
	return err
}
