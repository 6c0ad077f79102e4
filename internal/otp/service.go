// Package otp sends and confirms one-time phone verification codes.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/candlecraft/storefront/internal/config"
	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/internal/repository"
	"github.com/candlecraft/storefront/internal/sms"
	"github.com/candlecraft/storefront/pkg/errors"
)

const codeLength = 6

// Confirmation is returned by SendCode. Handle is opaque to callers and must be
// passed back to ConfirmCode.
type Confirmation struct {
	Handle      string
	PhoneNumber string
	CanResendAt time.Time
}

// VerifiedPhone is the result of a successful confirmation
type VerifiedPhone struct {
	PhoneNumber string
}

type Service struct {
	verifications repository.PhoneVerificationRepository
	sender        sms.Sender
	cfg           config.OTPConfig
	logger        *zap.Logger

	now      func() time.Time
	generate func() (string, error)

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCodeGenerator overrides random code generation
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.generate = gen }
}

// NewService creates a new OTP service
func NewService(verifications repository.PhoneVerificationRepository, sender sms.Sender, cfg config.OTPConfig, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		verifications: verifications,
		sender:        sender,
		cfg:           cfg,
		logger:        logger,
		now:           time.Now,
		generate:      randomCode,
		lastSent:      make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResendCooldown is the minimum gap between two codes to the same number
func (s *Service) ResendCooldown() time.Duration {
	return s.cfg.ResendCooldown
}

// CanResend reports whether a new code may be sent to phone and, if not, how long to wait
func (s *Service) CanResend(phone string) (bool, time.Duration) {
	formatted := FormatPhoneNumber(phone)

	s.mu.Lock()
	last, ok := s.lastSent[formatted]
	s.mu.Unlock()
	if !ok {
		return true, 0
	}

	elapsed := s.now().Sub(last)
	if elapsed >= s.cfg.ResendCooldown {
		return true, 0
	}
	return false, s.cfg.ResendCooldown - elapsed
}

// SendCode issues a fresh code to phone, invalidating any earlier one
func (s *Service) SendCode(ctx context.Context, phone string) (*Confirmation, error) {
	if phone == "" {
		return nil, NewError(CodeMissingPhoneNumber)
	}
	formatted := FormatPhoneNumber(phone)
	if !isFormattedMobile(formatted) {
		return nil, NewError(CodeInvalidPhoneNumber)
	}

	if ok, wait := s.CanResend(formatted); !ok {
		return nil, CooldownError(int(math.Ceil(wait.Seconds())))
	}

	if err := s.verifications.DeleteByPhone(ctx, formatted); err != nil {
		s.logger.Debug("No old OTP to invalidate", zap.String("phone", formatted), zap.Error(err))
	}

	code, err := s.generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash code: %w", err)
	}

	now := s.now()
	verification := &domain.PhoneVerification{
		ID:          uuid.New(),
		PhoneNumber: formatted,
		CodeHash:    string(hash),
		Status:      domain.VerificationStatusPending,
		SentAt:      now,
		ExpiresAt:   now.Add(s.cfg.CodeTTL),
	}
	if err := s.verifications.Create(ctx, verification); err != nil {
		return nil, fmt.Errorf("failed to track verification: %w", err)
	}

	message := fmt.Sprintf("%s is your Candle Craft verification code. It expires in %d minutes.",
		code, int(s.cfg.CodeTTL.Minutes()))
	if err := s.sender.Send(ctx, formatted, message); err != nil {
		s.logger.Error("Failed to send OTP", zap.String("phone", formatted), zap.Error(err))
		if delErr := s.verifications.DeleteByPhone(ctx, formatted); delErr != nil {
			s.logger.Warn("Failed to discard unsent verification", zap.Error(delErr))
		}
		if capErr, ok := errors.AsCapability(err); ok {
			return nil, NewError(capErr.Code)
		}
		return nil, NewError("auth/network-request-failed")
	}

	s.mu.Lock()
	for k, sent := range s.lastSent {
		if now.Sub(sent) >= s.cfg.ResendCooldown {
			delete(s.lastSent, k)
		}
	}
	s.lastSent[formatted] = now
	s.mu.Unlock()

	s.logger.Info("OTP sent", zap.String("phone", formatted))

	return &Confirmation{
		Handle:      verification.ID.String(),
		PhoneNumber: formatted,
		CanResendAt: now.Add(s.cfg.ResendCooldown),
	}, nil
}

// ConfirmCode checks code against the verification behind handle
func (s *Service) ConfirmCode(ctx context.Context, handle, code string) (*VerifiedPhone, error) {
	id, err := uuid.Parse(handle)
	if err != nil {
		return nil, NewError(CodeSessionExpired)
	}

	verification, err := s.verifications.GetByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, NewError(CodeSessionExpired)
		}
		return nil, err
	}

	if verification.Status != domain.VerificationStatusPending {
		return nil, NewError(CodeSessionExpired)
	}
	if s.now().After(verification.ExpiresAt) {
		return nil, NewError(CodeCodeExpired)
	}
	if verification.Attempts >= s.cfg.MaxAttempts {
		return nil, NewError(CodeTooManyRequests)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(verification.CodeHash), []byte(code)); err != nil {
		if incErr := s.verifications.IncrementAttempts(ctx, id); incErr != nil {
			s.logger.Warn("Failed to record OTP attempt", zap.Error(incErr))
		}
		return nil, NewError(CodeInvalidVerificationCode)
	}

	s.mu.Lock()
	delete(s.lastSent, verification.PhoneNumber)
	s.mu.Unlock()

	if err := s.verifications.DeleteByPhone(ctx, verification.PhoneNumber); err != nil {
		s.logger.Warn("Failed to clean up verification", zap.Error(err))
	}

	return &VerifiedPhone{PhoneNumber: verification.PhoneNumber}, nil
}

func randomCode() (string, error) {
	limit := big.NewInt(int64(math.Pow10(codeLength)))
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeLength, n.Int64()), nil
}
