package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/config"
	"github.com/candlecraft/storefront/pkg/errors"
)

// defaultTimeout bounds a send; signup requests wait on it
const defaultTimeout = 10 * time.Second

// Sender delivers a text message to a formatted phone number
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

type Client struct {
	gatewayURL string
	apiKey     string
	senderID   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new SMS gateway client
func NewClient(cfg config.SMSConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		gatewayURL: strings.TrimSuffix(cfg.GatewayURL, "/"),
		apiKey:     cfg.APIKey,
		senderID:   cfg.SenderID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// MessageRequest is the gateway's send payload
type MessageRequest struct {
	To       string `json:"to"`
	SenderID string `json:"sender_id"`
	Body     string `json:"body"`
}

// MessageResponse is the gateway's reply
type MessageResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error,omitempty"`
}

// Send posts a message to the gateway. Gateway rejections are mapped onto
// phone-auth provider codes.
func (c *Client) Send(ctx context.Context, phone, message string) error {
	url := fmt.Sprintf("%s/v1/messages", c.gatewayURL)

	jsonData, err := json.Marshal(MessageRequest{
		To:       phone,
		SenderID: c.senderID,
		Body:     message,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		c.logger.Warn("SMS gateway rejected message",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		if code := codeForStatus(resp.StatusCode); code != "" {
			return &errors.ErrCapability{Code: code, Message: code}
		}
		return fmt.Errorf("sms gateway error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var out MessageResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	c.logger.Debug("SMS accepted", zap.String("message_id", out.MessageID))
	return nil
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "auth/invalid-phone-number"
	case http.StatusTooManyRequests:
		return "auth/too-many-requests"
	case http.StatusPaymentRequired:
		return "auth/quota-exceeded"
	case http.StatusUnauthorized, http.StatusForbidden:
		return "auth/invalid-app-credential"
	default:
		return ""
	}
}

// LogSender writes messages to the log instead of delivering them. Used in development.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, phone, message string) error {
	s.logger.Info("SMS (not delivered)", zap.String("to", phone), zap.String("body", message))
	return nil
}
