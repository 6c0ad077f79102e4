package otp

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/config"
	"github.com/candlecraft/storefront/internal/repository/memory"
	"github.com/candlecraft/storefront/pkg/errors"
)

type recordingSender struct {
	sent []string
	err  error
}

func (s *recordingSender) Send(_ context.Context, phone, message string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, phone+": "+message)
	return nil
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newService(t *testing.T, sender *recordingSender, clock *fakeClock, codes ...string) *Service {
	t.Helper()
	cfg := config.OTPConfig{
		ResendCooldown: 120 * time.Second,
		CodeTTL:        10 * time.Minute,
		MaxAttempts:    3,
		CountryCode:    "+91",
	}
	next := 0
	gen := func() (string, error) {
		code := codes[next%len(codes)]
		next++
		return code, nil
	}
	return NewService(memory.NewRepositories().PhoneVerification, sender, cfg, zap.NewNop(),
		WithClock(clock.Now),
		WithCodeGenerator(gen),
	)
}

func capabilityCode(t *testing.T, err error) string {
	t.Helper()
	capErr, ok := errors.AsCapability(err)
	require.True(t, ok, "expected capability error, got %v", err)
	return capErr.Code
}

func TestPhoneValidation(t *testing.T) {
	assert.True(t, IsValidPhoneNumber("9876543210"))
	assert.True(t, IsValidPhoneNumber("98765 43210"))
	assert.False(t, IsValidPhoneNumber("12345"))
	assert.False(t, IsValidPhoneNumber("5876543210"))
	assert.False(t, IsValidPhoneNumber("98765432101"))

	assert.Equal(t, "+919876543210", FormatPhoneNumber("9876543210"))
	assert.Equal(t, "+919876543210", FormatPhoneNumber("919876543210"))
	assert.Equal(t, "+919876543210", FormatPhoneNumber("+91 98765-43210"))
	assert.Equal(t, "12345", FormatPhoneNumber("12345"))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Daily SMS quota exceeded. Please try again tomorrow.", Message(CodeQuotaExceeded))
	assert.Contains(t, Message("auth/something-new"), "(auth/something-new)")
}

func TestSendAndConfirm(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	sender := &recordingSender{}
	svc := newService(t, sender, clock, "482913")
	ctx := context.Background()

	conf, err := svc.SendCode(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", conf.PhoneNumber)
	assert.Equal(t, clock.now.Add(120*time.Second), conf.CanResendAt)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "482913")

	_, err = svc.ConfirmCode(ctx, conf.Handle, "000000")
	assert.Equal(t, CodeInvalidVerificationCode, capabilityCode(t, err))

	verified, err := svc.ConfirmCode(ctx, conf.Handle, "482913")
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", verified.PhoneNumber)

	// the session is gone once used
	_, err = svc.ConfirmCode(ctx, conf.Handle, "482913")
	assert.Equal(t, CodeSessionExpired, capabilityCode(t, err))

	ok, _ := svc.CanResend("9876543210")
	assert.True(t, ok)
}

func TestSendCode_Cooldown(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	sender := &recordingSender{}
	svc := newService(t, sender, clock, "111111", "222222")
	ctx := context.Background()

	first, err := svc.SendCode(ctx, "9876543210")
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	_, err = svc.SendCode(ctx, "9876543210")
	require.Error(t, err)
	assert.Equal(t, CodeResendCooldown, capabilityCode(t, err))
	assert.Equal(t, "Please wait 90 seconds before requesting another OTP.", err.Error())
	assert.Len(t, sender.sent, 1)

	// rejected resend leaves the first code usable
	_, err = svc.ConfirmCode(ctx, first.Handle, "111111")
	assert.NoError(t, err)
}

func TestSendCode_ForgetsExpiredCooldowns(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	svc := newService(t, &recordingSender{}, clock, "111111")
	ctx := context.Background()

	for _, phone := range []string{"9876543210", "9123456780"} {
		_, err := svc.SendCode(ctx, phone)
		require.NoError(t, err)
	}
	clock.Advance(60 * time.Second)
	_, err := svc.SendCode(ctx, "9000000001")
	require.NoError(t, err)
	assert.Len(t, svc.lastSent, 3)

	clock.Advance(61 * time.Second)
	_, err = svc.SendCode(ctx, "9000000002")
	require.NoError(t, err)

	got := make([]string, 0, len(svc.lastSent))
	for phone := range svc.lastSent {
		got = append(got, phone)
	}
	assert.ElementsMatch(t, []string{"+919000000001", "+919000000002"}, got)
}

func TestSendCode_ResendInvalidatesPrevious(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	svc := newService(t, &recordingSender{}, clock, "111111", "222222")
	ctx := context.Background()

	first, err := svc.SendCode(ctx, "9876543210")
	require.NoError(t, err)

	clock.Advance(121 * time.Second)
	second, err := svc.SendCode(ctx, "9876543210")
	require.NoError(t, err)
	assert.NotEqual(t, first.Handle, second.Handle)

	_, err = svc.ConfirmCode(ctx, first.Handle, "111111")
	assert.Equal(t, CodeSessionExpired, capabilityCode(t, err))

	_, err = svc.ConfirmCode(ctx, second.Handle, "222222")
	assert.NoError(t, err)
}

func TestConfirmCode_Expired(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	svc := newService(t, &recordingSender{}, clock, "333333")
	ctx := context.Background()

	conf, err := svc.SendCode(ctx, "9876543210")
	require.NoError(t, err)

	clock.Advance(11 * time.Minute)
	_, err = svc.ConfirmCode(ctx, conf.Handle, "333333")
	assert.Equal(t, CodeCodeExpired, capabilityCode(t, err))
}

func TestConfirmCode_AttemptLimit(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	svc := newService(t, &recordingSender{}, clock, "444444")
	ctx := context.Background()

	conf, err := svc.SendCode(ctx, "9876543210")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = svc.ConfirmCode(ctx, conf.Handle, "000000")
		assert.Equal(t, CodeInvalidVerificationCode, capabilityCode(t, err))
	}
	_, err = svc.ConfirmCode(ctx, conf.Handle, "444444")
	assert.Equal(t, CodeTooManyRequests, capabilityCode(t, err))
}

func TestSendCode_ProviderErrors(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	ctx := context.Background()

	quota := &recordingSender{err: &errors.ErrCapability{Code: CodeQuotaExceeded}}
	_, err := newService(t, quota, clock, "1").SendCode(ctx, "9876543210")
	assert.Equal(t, CodeQuotaExceeded, capabilityCode(t, err))
	assert.Equal(t, Message(CodeQuotaExceeded), err.Error())

	network := &recordingSender{err: stderrors.New("dial tcp: timeout")}
	svc := newService(t, network, clock, "1")
	_, err = svc.SendCode(ctx, "9876543210")
	assert.Equal(t, "auth/network-request-failed", capabilityCode(t, err))

	// a failed send does not start the cooldown
	ok, _ := svc.CanResend("9876543210")
	assert.True(t, ok)

	_, err = newService(t, &recordingSender{}, clock, "1").SendCode(ctx, "12345")
	assert.Equal(t, CodeInvalidPhoneNumber, capabilityCode(t, err))
}

func TestConfirmCode_BadHandle(t *testing.T) {
	svc := newService(t, &recordingSender{}, &fakeClock{now: time.Now()}, "1")

	_, err := svc.ConfirmCode(context.Background(), "not-a-handle", "123456")
	assert.Equal(t, CodeSessionExpired, capabilityCode(t, err))
}

func TestRandomCode(t *testing.T) {
	code, err := randomCode()
	require.NoError(t, err)
	assert.Len(t, code, 6)
}
