package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30.0, cfg.Cart.GiftCharge)
	assert.Equal(t, 7.0, cfg.Cart.PlatformFee)
	assert.Equal(t, 120*time.Second, cfg.OTP.ResendCooldown)
	assert.Equal(t, 5, cfg.OTP.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.SMS.Timeout)
	assert.Equal(t, "+91", cfg.OTP.CountryCode)
	assert.Equal(t, "temp.candle-craft.com", cfg.Auth.SyntheticEmailDomain)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PLATFORM_FEE", "12.5")
	t.Setenv("OTP_RESEND_COOLDOWN", "30s")
	t.Setenv("SMS_TIMEOUT", "3s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12.5, cfg.Cart.PlatformFee)
	assert.Equal(t, 30*time.Second, cfg.OTP.ResendCooldown)
	assert.Equal(t, 3*time.Second, cfg.SMS.Timeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_TTL", "a day")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}
