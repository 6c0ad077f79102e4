// Package auth owns accounts: signup, login by email/phone/username, session
// tokens and the profile of the signed-in user.
package auth

import (
	"context"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/candlecraft/storefront/internal/config"
	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/internal/otp"
	"github.com/candlecraft/storefront/internal/repository"
	"github.com/candlecraft/storefront/pkg/errors"
)

const (
	minPasswordLength = 6
	maxFailedLogins   = 5
	failedLoginWindow = 15 * time.Minute
)

// Session is returned by a successful login
type Session struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expiresAt"`
	User      *domain.UserProfile `json:"user"`
}

// LoginRequest identifies the account by email, phone or username
type LoginRequest struct {
	Identifier string           `json:"identifier" binding:"required"`
	Password   string           `json:"password" binding:"required"`
	LoginType  domain.LoginType `json:"loginType" binding:"required"`
}

type failedLogins struct {
	count int
	first time.Time
}

type Service struct {
	users  repository.UserRepository
	cfg    config.AuthConfig
	logger *zap.Logger
	now    func() time.Time

	revoked *denylist

	mu       sync.Mutex
	failures map[string]*failedLogins
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new auth service
func NewService(users repository.UserRepository, cfg config.AuthConfig, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		users:    users,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		revoked:  newDenylist(),
		failures: make(map[string]*failedLogins),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup creates the account and its profile. The phone number is expected to
// be verified already.
func (s *Service) Signup(ctx context.Context, data domain.SignupData) (*domain.UserProfile, error) {
	if data.PhoneNumber == "" || data.Username == "" || data.FullName == "" || data.Password == "" {
		return nil, &errors.ErrValidation{Message: "Please fill in all required fields"}
	}
	if data.Email != "" && !isValidEmail(data.Email) {
		return nil, signupError(CodeInvalidEmail)
	}
	if len(data.Password) < minPasswordLength {
		return nil, signupError(CodeWeakPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(data.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, signupError(CodeSignupFailed)
	}

	user := &domain.UserProfile{
		ID:            uuid.New(),
		Email:         data.Email,
		Username:      data.Username,
		FullName:      data.FullName,
		PhoneNumber:   otp.FormatPhoneNumber(data.PhoneNumber),
		PhoneVerified: true,
		EmailVerified: data.Email != "",
		Addresses:     []domain.Address{},
		Role:          domain.RoleUser,
		PasswordHash:  string(hash),
		CreatedAt:     s.now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if conflict, ok := errors.AsConflict(err); ok {
			return nil, signupError(conflictCode(conflict.Field))
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, signupError(CodeSignupFailed)
	}

	s.logger.Info("User signed up",
		zap.String("user_id", user.ID.String()),
		zap.String("sign_in_email", s.SignInEmail(user)),
	)
	return user, nil
}

// CreateAdmin creates an account with the admin role, used by the admin CLI
func (s *Service) CreateAdmin(ctx context.Context, data domain.SignupData) (*domain.UserProfile, error) {
	user, err := s.Signup(ctx, data)
	if err != nil {
		return nil, err
	}
	user.Role = domain.RoleAdmin
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login resolves the profile by the chosen identifier and checks the password
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if !req.LoginType.IsValid() {
		return nil, &errors.ErrValidation{Field: "loginType", Message: "Unsupported login type"}
	}
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" || req.Password == "" {
		return nil, &errors.ErrValidation{Message: "Please fill in all fields"}
	}

	throttleKey := string(req.LoginType) + ":" + strings.ToLower(identifier)
	if s.throttled(throttleKey) {
		return nil, loginError(CodeTooManyRequests)
	}

	user, err := s.lookup(ctx, req.LoginType, identifier)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.recordFailure(throttleKey)
		s.logger.Info("Login rejected", zap.String("sign_in_email", s.SignInEmail(user)))
		return nil, loginError(CodeWrongPassword)
	}
	s.clearFailures(throttleKey)

	token, expiresAt, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *Service) lookup(ctx context.Context, loginType domain.LoginType, identifier string) (*domain.UserProfile, error) {
	var (
		user *domain.UserProfile
		err  error
	)
	switch loginType {
	case domain.LoginTypeEmail:
		if !isValidEmail(identifier) {
			return nil, loginError(CodeInvalidEmail)
		}
		if local, ok := s.syntheticLocalPart(identifier); ok {
			user, err = s.users.GetByPhone(ctx, otp.FormatPhoneNumber(local))
		} else {
			user, err = s.users.GetByEmail(ctx, identifier)
		}
	case domain.LoginTypePhone:
		user, err = s.users.GetByPhone(ctx, otp.FormatPhoneNumber(identifier))
	case domain.LoginTypeUsername:
		user, err = s.users.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, notFoundFor(loginType)
		}
		return nil, err
	}
	return user, nil
}

// SignInEmail is the account email, or the synthesized address of a phone-only account
func (s *Service) SignInEmail(user *domain.UserProfile) string {
	if user.Email != "" {
		return user.Email
	}
	return otp.Digits(user.PhoneNumber) + "@" + s.cfg.SyntheticEmailDomain
}

func (s *Service) syntheticLocalPart(email string) (string, bool) {
	if s.cfg.SyntheticEmailDomain == "" {
		return "", false
	}
	local, found := strings.CutSuffix(strings.ToLower(email), "@"+strings.ToLower(s.cfg.SyntheticEmailDomain))
	return local, found
}

// CurrentUser resolves the profile behind a session token
func (s *Service) CurrentUser(ctx context.Context, token string) (*domain.UserProfile, error) {
	claims, err := s.ParseToken(token)
	if err != nil {
		return nil, err
	}
	if s.revoked.contains(claims.ID, s.now()) {
		return nil, &errors.ErrUnauthorized{Message: "session has been signed out"}
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, &errors.ErrUnauthorized{Message: "invalid token subject"}
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, &errors.ErrUnauthorized{Message: "account no longer exists"}
		}
		return nil, err
	}
	return user, nil
}

// Logout revokes token until it would have expired anyway
func (s *Service) Logout(token string) error {
	claims, err := s.ParseToken(token)
	if err != nil {
		return err
	}
	s.revoked.add(claims.ID, claims.ExpiresAt.Time, s.now())
	return nil
}

func (s *Service) throttled(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.failures[key]
	if !ok {
		return false
	}
	if s.now().Sub(f.first) > failedLoginWindow {
		delete(s.failures, key)
		return false
	}
	return f.count >= maxFailedLogins
}

func (s *Service) recordFailure(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.failures[key]
	if !ok || s.now().Sub(f.first) > failedLoginWindow {
		f = &failedLogins{first: s.now()}
		s.failures[key] = f
	}
	f.count++
}

func (s *Service) clearFailures(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, key)
}

func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func conflictCode(field string) string {
	switch field {
	case "email":
		return CodeEmailInUse
	case "username":
		return CodeUsernameInUse
	case "phone_number":
		return CodePhoneInUse
	default:
		return CodeSignupFailed
	}
}
