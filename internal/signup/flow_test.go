package signup

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/internal/otp"
	"github.com/candlecraft/storefront/pkg/errors"
)

type fakeOTP struct {
	clock      *clock
	sends      []string
	confirms   []string
	valid      map[string]string // handle -> code
	sendErr    error
	confirmErr error
}

func newFakeOTP(c *clock) *fakeOTP {
	return &fakeOTP{clock: c, valid: map[string]string{}}
}

func (f *fakeOTP) SendCode(_ context.Context, phone string) (*otp.Confirmation, error) {
	f.sends = append(f.sends, phone)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	handle := fmt.Sprintf("handle-%d", len(f.sends))
	// a new code invalidates every earlier one
	f.valid = map[string]string{handle: "123456"}
	return &otp.Confirmation{
		Handle:      handle,
		PhoneNumber: otp.FormatPhoneNumber(phone),
		CanResendAt: f.clock.now.Add(120 * time.Second),
	}, nil
}

func (f *fakeOTP) ConfirmCode(_ context.Context, handle, code string) (*otp.VerifiedPhone, error) {
	f.confirms = append(f.confirms, handle)
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	want, ok := f.valid[handle]
	if !ok {
		return nil, otp.NewError(otp.CodeSessionExpired)
	}
	if want != code {
		return nil, otp.NewError(otp.CodeInvalidVerificationCode)
	}
	return &otp.VerifiedPhone{PhoneNumber: "+919876543210"}, nil
}

type fakeAccounts struct {
	got []domain.SignupData
	err error
}

func (a *fakeAccounts) Signup(_ context.Context, data domain.SignupData) (*domain.UserProfile, error) {
	if a.err != nil {
		return nil, a.err
	}
	a.got = append(a.got, data)
	return &domain.UserProfile{ID: uuid.New(), Username: data.Username, PhoneNumber: data.PhoneNumber}, nil
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestFlow() (*Flow, *fakeOTP, *fakeAccounts, *clock) {
	c := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	sender := newFakeOTP(c)
	accounts := &fakeAccounts{}
	return NewFlow("flow-1", sender, accounts, c.Now, zap.NewNop()), sender, accounts, c
}

func TestSubmitPhone_InvalidNumberMakesNoCall(t *testing.T) {
	flow, sender, _, _ := newTestFlow()

	err := flow.SubmitPhone(context.Background(), "12345")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, "Please enter a valid 10-digit mobile number", err.Error())
	assert.Equal(t, StepPhoneInput, flow.Step())
	assert.Empty(t, sender.sends)
}

func TestSubmitPhone_ProviderErrorStaysOnStep(t *testing.T) {
	flow, sender, _, _ := newTestFlow()
	sender.sendErr = otp.NewError(otp.CodeQuotaExceeded)

	err := flow.SubmitPhone(context.Background(), "9876543210")
	require.Error(t, err)
	assert.Equal(t, otp.Message(otp.CodeQuotaExceeded), err.Error())
	assert.Equal(t, StepPhoneInput, flow.Step())
}

func TestFullFlow(t *testing.T) {
	flow, sender, accounts, c := newTestFlow()
	ctx := context.Background()

	require.NoError(t, flow.SubmitPhone(ctx, "98765 43210"))
	assert.Equal(t, StepPhoneVerify, flow.Step())
	assert.Equal(t, []string{"98765 43210"}, sender.sends)
	assert.Equal(t, 120, flow.State().ResendIn)

	c.now = c.now.Add(45 * time.Second)
	assert.Equal(t, 75*time.Second, flow.ResendIn())

	err := flow.SubmitCode(ctx, "12ab56")
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, sender.confirms)

	err = flow.SubmitCode(ctx, "654321")
	require.Error(t, err)
	assert.Equal(t, StepPhoneVerify, flow.Step())

	require.NoError(t, flow.SubmitCode(ctx, "123456"))
	assert.Equal(t, StepPersonalDetails, flow.Step())
	assert.Zero(t, flow.ResendIn())

	err = flow.SubmitDetails(ctx, Details{Username: "wick", Password: "secret1"})
	assert.Equal(t, "Please fill in all required fields", err.Error())

	err = flow.SubmitDetails(ctx, Details{Username: "wick", FullName: "Wick Maker", Password: "12345"})
	assert.Equal(t, "Password must be at least 6 characters long", err.Error())
	assert.Equal(t, StepPersonalDetails, flow.Step())
	assert.Empty(t, accounts.got)

	require.NoError(t, flow.SubmitDetails(ctx, Details{
		Email:    " wick@example.com ",
		Username: "wick",
		FullName: "Wick Maker",
		Password: "secret1",
	}))
	assert.Equal(t, StepCompleted, flow.Step())
	require.Len(t, accounts.got, 1)
	assert.Equal(t, domain.SignupData{
		PhoneNumber: "+919876543210",
		Email:       "wick@example.com",
		Username:    "wick",
		FullName:    "Wick Maker",
		Password:    "secret1",
	}, accounts.got[0])

	state := flow.State()
	require.NotNil(t, state.User)
	assert.Equal(t, "wick", state.User.Username)
}

func TestResend_DuringCooldownKeepsHandle(t *testing.T) {
	flow, sender, _, c := newTestFlow()
	ctx := context.Background()

	require.NoError(t, flow.SubmitPhone(ctx, "9876543210"))

	c.now = c.now.Add(time.Second)
	err := flow.Resend(ctx)
	require.Error(t, err)
	capErr, ok := errors.AsCapability(err)
	require.True(t, ok)
	assert.Equal(t, otp.CodeResendCooldown, capErr.Code)
	assert.Equal(t, "Please wait 119 seconds before requesting another OTP.", err.Error())
	assert.Len(t, sender.sends, 1)

	// the original code still confirms
	require.NoError(t, flow.SubmitCode(ctx, "123456"))
	assert.Equal(t, []string{"handle-1"}, sender.confirms)
}

func TestResend_AfterCooldownReplacesHandle(t *testing.T) {
	flow, sender, _, c := newTestFlow()
	ctx := context.Background()

	require.NoError(t, flow.SubmitPhone(ctx, "9876543210"))
	c.now = c.now.Add(120 * time.Second)

	require.NoError(t, flow.Resend(ctx))
	assert.Equal(t, []string{"9876543210", "+919876543210"}, sender.sends)
	assert.Equal(t, 120, flow.State().ResendIn)

	require.NoError(t, flow.SubmitCode(ctx, "123456"))
	assert.Equal(t, []string{"handle-2"}, sender.confirms)
}

// gatedOTP blocks every SendCode until the gate is opened
type gatedOTP struct {
	*fakeOTP
	entered chan struct{}
	gate    chan struct{}
}

func (g *gatedOTP) SendCode(ctx context.Context, phone string) (*otp.Confirmation, error) {
	g.entered <- struct{}{}
	<-g.gate
	return g.fakeOTP.SendCode(ctx, phone)
}

func TestSubmitPhone_SendDoesNotBlockReads(t *testing.T) {
	c := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	sender := &gatedOTP{fakeOTP: newFakeOTP(c), entered: make(chan struct{}, 1), gate: make(chan struct{})}
	flow := NewFlow("flow-1", sender, &fakeAccounts{}, c.Now, zap.NewNop())
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- flow.SubmitPhone(ctx, "9876543210") }()
	<-sender.entered

	// the send is in flight: reads answer and a second send is turned away
	assert.Equal(t, StepPhoneInput, flow.State().Step)
	err := flow.SubmitPhone(ctx, "9876543210")
	capErr, ok := errors.AsCapability(err)
	require.True(t, ok, "expected capability error, got %v", err)
	assert.Equal(t, otp.CodeTooManyRequests, capErr.Code)

	close(sender.gate)
	require.NoError(t, <-done)
	assert.Equal(t, StepPhoneVerify, flow.Step())
	assert.Len(t, sender.sends, 1)
}

func TestResend_ChangeNumberWhileSending(t *testing.T) {
	c := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	sender := &gatedOTP{fakeOTP: newFakeOTP(c), entered: make(chan struct{}, 1), gate: make(chan struct{})}
	flow := NewFlow("flow-1", sender, &fakeAccounts{}, c.Now, zap.NewNop())
	ctx := context.Background()

	close(sender.gate)
	require.NoError(t, flow.SubmitPhone(ctx, "9876543210"))
	<-sender.entered
	sender.gate = make(chan struct{})
	c.now = c.now.Add(120 * time.Second)

	done := make(chan error, 1)
	go func() { done <- flow.Resend(ctx) }()
	<-sender.entered
	require.NoError(t, flow.ChangeNumber())
	close(sender.gate)

	// the late code is dropped and the flow stays on phone-input
	assert.True(t, errors.IsInvalidStateTransition(<-done))
	state := flow.State()
	assert.Equal(t, StepPhoneInput, state.Step)
	assert.Empty(t, state.PhoneNumber)
	assert.Zero(t, state.ResendIn)
}

func TestChangeNumber(t *testing.T) {
	flow, _, _, _ := newTestFlow()
	ctx := context.Background()

	assert.True(t, errors.IsInvalidStateTransition(flow.ChangeNumber()))

	require.NoError(t, flow.SubmitPhone(ctx, "9876543210"))
	require.NoError(t, flow.ChangeNumber())

	state := flow.State()
	assert.Equal(t, StepPhoneInput, state.Step)
	assert.Empty(t, state.PhoneNumber)
	assert.Zero(t, state.ResendIn)

	// the cleared handle is not usable
	assert.True(t, errors.IsInvalidStateTransition(flow.SubmitCode(ctx, "123456")))
	require.NoError(t, flow.SubmitPhone(ctx, "8123456789"))
	assert.Equal(t, "+918123456789", flow.State().PhoneNumber)
}

func TestOutOfOrderSteps(t *testing.T) {
	flow, _, _, _ := newTestFlow()
	ctx := context.Background()

	assert.True(t, errors.IsInvalidStateTransition(flow.SubmitCode(ctx, "123456")))
	assert.True(t, errors.IsInvalidStateTransition(flow.Resend(ctx)))
	assert.True(t, errors.IsInvalidStateTransition(flow.SubmitDetails(ctx, Details{})))
	assert.Equal(t, StepPhoneInput, flow.Step())
}

func TestSubmitDetails_AccountError(t *testing.T) {
	flow, _, accounts, _ := newTestFlow()
	ctx := context.Background()
	require.NoError(t, flow.SubmitPhone(ctx, "9876543210"))
	require.NoError(t, flow.SubmitCode(ctx, "123456"))

	accounts.err = &errors.ErrCapability{Code: "auth/email-already-in-use", Message: "An account with this email already exists."}
	err := flow.SubmitDetails(ctx, Details{Email: "a@b.co", Username: "u", FullName: "U", Password: "secret1"})
	assert.Equal(t, "An account with this email already exists.", err.Error())
	assert.Equal(t, StepPersonalDetails, flow.Step())
}

func TestRegistry(t *testing.T) {
	c := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	reg := NewRegistry(newFakeOTP(c), &fakeAccounts{}, 30*time.Minute, zap.NewNop())
	reg.now = c.Now

	flow := reg.Start()
	got, err := reg.Get(flow.ID())
	require.NoError(t, err)
	assert.Same(t, flow, got)

	_, err = reg.Get("missing")
	assert.True(t, errors.IsNotFound(err))

	c.now = c.now.Add(20 * time.Minute)
	require.NoError(t, flow.SubmitPhone(context.Background(), "9876543210"))

	c.now = c.now.Add(20 * time.Minute)
	assert.Equal(t, 1, reg.Len())

	c.now = c.now.Add(11 * time.Minute)
	_, err = reg.Get(flow.ID())
	assert.True(t, errors.IsNotFound(err))
}
