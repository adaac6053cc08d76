package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
)

func TestHTTPClientSendsIdempotencyKey(t *testing.T) {
	var gotKey, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "cap-9"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "k", time.Second)
	ref, err := c.Capture(context.Background(), "b1:capture", "auth-1")
	require.NoError(t, err)

	assert.Equal(t, "cap-9", ref)
	assert.Equal(t, "b1:capture", gotKey)
	assert.Equal(t, "/authorizations/auth-1/capture", gotPath)
}

func TestHTTPClientClassifiesErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		code      string
		wantClass error
		wantCause error
	}{
		{"server error is transient", http.StatusBadGateway, "", domain.ErrPaymentGatewayTransient, nil},
		{"throttled is transient", http.StatusTooManyRequests, "", domain.ErrPaymentGatewayTransient, nil},
		{"declined is rejected", http.StatusPaymentRequired, "card_declined", domain.ErrPaymentGatewayRejected, nil},
		{"already captured", http.StatusConflict, "already_captured", domain.ErrPaymentGatewayRejected, ErrAlreadyCaptured},
		{"already voided", http.StatusConflict, "already_voided", domain.ErrPaymentGatewayRejected, ErrAlreadyVoided},
		{"expired", http.StatusConflict, "authorization_expired", domain.ErrPaymentGatewayRejected, ErrAuthorizationExpired},
		{"over refund", http.StatusUnprocessableEntity, "insufficient_captured", domain.ErrPaymentGatewayRejected, ErrInsufficientCaptured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]any{"code": tt.code, "message": "nope"})
			}))
			defer srv.Close()

			c := NewHTTPClient(srv.URL, "", time.Second)
			err := c.Void(context.Background(), "b1:void", "auth-1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantClass)
			if tt.wantCause != nil {
				assert.ErrorIs(t, err, tt.wantCause)
			}
		})
	}
}

func TestHTTPClientUnreachableIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewHTTPClient(url, "", 200*time.Millisecond)
	_, err := c.Authorize(context.Background(), "b1:authorize", 100, "EUR")
	assert.True(t, IsTransient(err))
}

func TestRejectedReasonKeepsGatewayMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(map[string]any{"code": "unknown_authorization", "message": "authorization unknown"})
	}))
	defer srv.Close()

	err := NewHTTPClient(srv.URL, "", time.Second).Void(context.Background(), "b1:void", "auth-1")
	require.Error(t, err)
	assert.True(t, IsRejected(err))
	assert.False(t, IsTransient(err))
	assert.Equal(t, "gateway returned 402: authorization unknown", Reason(err))
}
