// Package signup drives the account creation steps: phone entry, OTP
// verification and personal details.
package signup

import (
	"context"
	"math"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/internal/otp"
	"github.com/candlecraft/storefront/pkg/errors"
)

// Step is a state of the signup flow
type Step string

const (
	StepPhoneInput      Step = "phone-input"
	StepPhoneVerify     Step = "phone-verify"
	StepPersonalDetails Step = "personal-details"
	StepCompleted       Step = "completed"
)

const minPasswordLength = 6

var codePattern = regexp.MustCompile(`^\d{6}$`)

// OTPSender issues and checks phone verification codes
type OTPSender interface {
	SendCode(ctx context.Context, phone string) (*otp.Confirmation, error)
	ConfirmCode(ctx context.Context, handle, code string) (*otp.VerifiedPhone, error)
}

// AccountCreator creates the account once every step is done
type AccountCreator interface {
	Signup(ctx context.Context, data domain.SignupData) (*domain.UserProfile, error)
}

// Details is what the personal-details step collects
type Details struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

// State is a read-only view of a flow
type State struct {
	ID          string              `json:"id"`
	Step        Step                `json:"step"`
	PhoneNumber string              `json:"phoneNumber,omitempty"`
	ResendIn    int                 `json:"resendIn"`
	User        *domain.UserProfile `json:"user,omitempty"`
}

// Flow is one signup in progress. All methods are safe for concurrent use.
type Flow struct {
	id       string
	otp      OTPSender
	accounts AccountCreator
	now      func() time.Time
	logger   *zap.Logger

	mu          sync.Mutex
	step        Step
	data        domain.SignupData
	handle      string
	canResendAt time.Time
	user        *domain.UserProfile

	// sending is set while a code is in flight; mu is not held during the send
	sending bool

	touched atomic.Int64 // unix nanos of the last call
}

// NewFlow starts a flow at phone-input
func NewFlow(id string, sender OTPSender, accounts AccountCreator, now func() time.Time, logger *zap.Logger) *Flow {
	if now == nil {
		now = time.Now
	}
	f := &Flow{
		id:       id,
		otp:      sender,
		accounts: accounts,
		now:      now,
		logger:   logger,
		step:     StepPhoneInput,
	}
	f.touched.Store(now().UnixNano())
	return f
}

func (f *Flow) ID() string { return f.id }

// Step returns the current step
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// State returns a snapshot of the flow
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return State{
		ID:          f.id,
		Step:        f.step,
		PhoneNumber: f.data.PhoneNumber,
		ResendIn:    seconds(f.resendInLocked()),
		User:        f.user,
	}
}

// ResendIn is the time left before another code may be requested. It is
// recomputed from the stored resend timestamp on every call.
func (f *Flow) ResendIn() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resendInLocked()
}

func (f *Flow) resendInLocked() time.Duration {
	if f.canResendAt.IsZero() {
		return 0
	}
	left := f.canResendAt.Sub(f.now())
	if left < 0 {
		return 0
	}
	return left
}

// SubmitPhone validates phone and sends the first code
func (f *Flow) SubmitPhone(ctx context.Context, phone string) error {
	f.mu.Lock()
	if err := f.expect(StepPhoneInput, StepPhoneVerify); err != nil {
		f.mu.Unlock()
		return err
	}
	if !otp.IsValidPhoneNumber(phone) {
		f.mu.Unlock()
		return &errors.ErrValidation{Field: "phoneNumber", Message: "Please enter a valid 10-digit mobile number"}
	}
	if err := f.beginSendLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()

	conf, err := f.otp.SendCode(ctx, phone)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.sending = false
	if err != nil {
		f.logger.Warn("OTP send failed", zap.String("flow_id", f.id), zap.Error(err))
		return err
	}
	if f.step != StepPhoneInput {
		return &errors.ErrInvalidStateTransition{From: string(f.step), To: string(StepPhoneVerify)}
	}

	f.data.PhoneNumber = conf.PhoneNumber
	f.handle = conf.Handle
	f.canResendAt = conf.CanResendAt
	f.step = StepPhoneVerify
	return nil
}

// SubmitCode checks the 6-digit code against the pending confirmation
func (f *Flow) SubmitCode(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.expect(StepPhoneVerify, StepPersonalDetails); err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if !codePattern.MatchString(code) {
		return &errors.ErrValidation{Field: "code", Message: "Please enter a valid 6-digit OTP"}
	}

	verified, err := f.otp.ConfirmCode(ctx, f.handle, code)
	if err != nil {
		return err
	}

	f.data.PhoneNumber = verified.PhoneNumber
	f.handle = ""
	f.canResendAt = time.Time{}
	f.step = StepPersonalDetails
	return nil
}

// Resend requests a new code. It is rejected while the cooldown runs, in
// which case the current confirmation handle stays valid.
func (f *Flow) Resend(ctx context.Context) error {
	f.mu.Lock()
	if err := f.expect(StepPhoneVerify, StepPhoneVerify); err != nil {
		f.mu.Unlock()
		return err
	}
	if left := f.resendInLocked(); left > 0 {
		f.mu.Unlock()
		return otp.CooldownError(seconds(left))
	}
	if err := f.beginSendLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	phone := f.data.PhoneNumber
	f.mu.Unlock()

	conf, err := f.otp.SendCode(ctx, phone)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.sending = false
	if err != nil {
		return err
	}
	// the number was changed while the code was in flight
	if f.step != StepPhoneVerify || f.data.PhoneNumber != phone {
		return &errors.ErrInvalidStateTransition{From: string(f.step), To: string(StepPhoneVerify)}
	}

	f.handle = conf.Handle
	f.canResendAt = conf.CanResendAt
	return nil
}

// beginSendLocked claims the single in-flight send slot
func (f *Flow) beginSendLocked() error {
	if f.sending {
		return otp.NewError(otp.CodeTooManyRequests)
	}
	f.sending = true
	return nil
}

// ChangeNumber goes back to phone-input and drops the pending verification
func (f *Flow) ChangeNumber() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.expect(StepPhoneVerify, StepPhoneInput); err != nil {
		return err
	}
	f.step = StepPhoneInput
	f.handle = ""
	f.canResendAt = time.Time{}
	f.data.PhoneNumber = ""
	return nil
}

// SubmitDetails validates the profile fields and creates the account
func (f *Flow) SubmitDetails(ctx context.Context, details Details) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.expect(StepPersonalDetails, StepCompleted); err != nil {
		return err
	}
	details.Email = strings.TrimSpace(details.Email)
	details.Username = strings.TrimSpace(details.Username)
	details.FullName = strings.TrimSpace(details.FullName)

	if details.Username == "" || details.FullName == "" || details.Password == "" {
		return &errors.ErrValidation{Message: "Please fill in all required fields"}
	}
	if len(details.Password) < minPasswordLength {
		return &errors.ErrValidation{Field: "password", Message: "Password must be at least 6 characters long"}
	}

	data := domain.SignupData{
		PhoneNumber: f.data.PhoneNumber,
		Email:       details.Email,
		Username:    details.Username,
		FullName:    details.FullName,
		Password:    details.Password,
	}
	user, err := f.accounts.Signup(ctx, data)
	if err != nil {
		return err
	}

	f.data = data
	f.data.Password = ""
	f.user = user
	f.step = StepCompleted
	f.logger.Info("Signup completed", zap.String("flow_id", f.id), zap.String("user_id", user.ID.String()))
	return nil
}

// expect fails unless the flow is at step. It also marks the flow as used.
func (f *Flow) expect(step, next Step) error {
	f.touched.Store(f.now().UnixNano())
	if f.step != step {
		return &errors.ErrInvalidStateTransition{From: string(f.step), To: string(next)}
	}
	return nil
}

func (f *Flow) idleSince() time.Time {
	return time.Unix(0, f.touched.Load())
}

func seconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
