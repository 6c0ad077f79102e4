package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/config"
	"github.com/candlecraft/storefront/pkg/errors"
)

func TestClient_Send(t *testing.T) {
	var got MessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"message_id":"m-1"}`))
	}))
	defer srv.Close()

	client := NewClient(config.SMSConfig{GatewayURL: srv.URL + "/", APIKey: "key-123", SenderID: "CANDLE"}, zap.NewNop())

	require.NoError(t, client.Send(context.Background(), "+919876543210", "123456 is your code"))
	assert.Equal(t, MessageRequest{To: "+919876543210", SenderID: "CANDLE", Body: "123456 is your code"}, got)
}

func TestClient_Send_MapsRejections(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{http.StatusTooManyRequests, "auth/too-many-requests"},
		{http.StatusPaymentRequired, "auth/quota-exceeded"},
		{http.StatusBadRequest, "auth/invalid-phone-number"},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		client := NewClient(config.SMSConfig{GatewayURL: srv.URL}, zap.NewNop())

		err := client.Send(context.Background(), "+919876543210", "hi")
		capErr, ok := errors.AsCapability(err)
		require.True(t, ok, "status %d", tt.status)
		assert.Equal(t, tt.code, capErr.Code)
		srv.Close()
	}
}

func TestClient_Send_UnmappedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(config.SMSConfig{GatewayURL: srv.URL}, zap.NewNop()).Send(context.Background(), "+919876543210", "hi")
	require.Error(t, err)
	_, ok := errors.AsCapability(err)
	assert.False(t, ok)
}

func TestClient_Send_GatewayTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	assert.Equal(t, defaultTimeout, NewClient(config.SMSConfig{GatewayURL: srv.URL}, zap.NewNop()).httpClient.Timeout)

	client := NewClient(config.SMSConfig{GatewayURL: srv.URL, Timeout: 50 * time.Millisecond}, zap.NewNop())
	start := time.Now()
	err := client.Send(context.Background(), "+919876543210", "hi")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
