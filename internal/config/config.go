package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Auth        AuthConfig
	Cart        CartConfig
	OTP         OTPConfig
	SMS         SMSConfig
	Media       MediaConfig
	CORSOrigins []string
	LogLevel    string
}

type DatabaseConfig struct {
	Driver   string // "postgres" or "memory"
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration

	// Domain used to synthesize login emails for phone-only accounts
	SyntheticEmailDomain string
}

type CartConfig struct {
	StorePath   string
	GiftCharge  float64
	PlatformFee float64
}

type OTPConfig struct {
	ResendCooldown time.Duration
	CodeTTL        time.Duration
	MaxAttempts    int
	CountryCode    string
}

type SMSConfig struct {
	GatewayURL string
	APIKey     string
	SenderID   string
	Timeout    time.Duration
}

type MediaConfig struct {
	Bucket    string
	Region    string
	UploadTTL time.Duration
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Driver:   getEnvOrViper("DB_DRIVER", "postgres"),
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "candlecraft"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret:            getEnvOrViper("JWT_SECRET", ""),
			SyntheticEmailDomain: getEnvOrViper("SYNTHETIC_EMAIL_DOMAIN", "temp.candle-craft.com"),
		},
		Cart: CartConfig{
			StorePath: getEnvOrViper("CART_STORE_PATH", "cart.db"),
		},
		OTP: OTPConfig{
			CountryCode: getEnvOrViper("OTP_COUNTRY_CODE", "+91"),
		},
		SMS: SMSConfig{
			GatewayURL: getEnvOrViper("SMS_GATEWAY_URL", ""),
			APIKey:     getEnvOrViper("SMS_API_KEY", ""),
			SenderID:   getEnvOrViper("SMS_SENDER_ID", "CANDLE"),
		},
		Media: MediaConfig{
			Bucket: getEnvOrViper("S3_BUCKET", ""),
			Region: getEnvOrViper("AWS_REGION", "ap-south-1"),
		},
		CORSOrigins: splitList(getEnvOrViper("CORS_ORIGINS", "http://localhost:5173")),
		LogLevel:    getEnvOrViper("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.Auth.TokenTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.OTP.ResendCooldown, err = getDuration("OTP_RESEND_COOLDOWN", 120*time.Second); err != nil {
		return nil, err
	}
	if cfg.SMS.Timeout, err = getDuration("SMS_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.OTP.CodeTTL, err = getDuration("OTP_CODE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Media.UploadTTL, err = getDuration("S3_UPLOAD_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.OTP.MaxAttempts, err = getInt("OTP_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.Cart.GiftCharge, err = getFloat("GIFT_CHARGE", 30); err != nil {
		return nil, err
	}
	if cfg.Cart.PlatformFee, err = getFloat("PLATFORM_FEE", 7); err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnvOrViper(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := getEnvOrViper(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := getEnvOrViper(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
