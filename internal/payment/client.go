package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClient talks to the gateway's JSON API. Every call carries the
// caller's key in the Idempotency-Key header.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type authorizeBody struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type refundBody struct {
	Amount int64 `json:"amount"`
}

type gatewayResponse struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
}

type gatewayError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *HTTPClient) Authorize(ctx context.Context, key string, amount int64, currency string) (string, error) {
	var resp gatewayResponse
	if err := c.post(ctx, key, "/authorizations", authorizeBody{Amount: amount, Currency: currency}, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *HTTPClient) Capture(ctx context.Context, key, authRef string) (string, error) {
	var resp gatewayResponse
	if err := c.post(ctx, key, "/authorizations/"+url.PathEscape(authRef)+"/capture", nil, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *HTTPClient) Void(ctx context.Context, key, authRef string) error {
	return c.post(ctx, key, "/authorizations/"+url.PathEscape(authRef)+"/void", nil, nil)
}

func (c *HTTPClient) Refund(ctx context.Context, key, captureRef string, amount int64) (RefundResult, error) {
	var resp gatewayResponse
	if err := c.post(ctx, key, "/captures/"+url.PathEscape(captureRef)+"/refunds", refundBody{Amount: amount}, &resp); err != nil {
		return RefundResult{}, err
	}
	if resp.Amount == 0 {
		resp.Amount = amount
	}
	return RefundResult{Ref: resp.ID, Amount: resp.Amount}, nil
}

func (c *HTTPClient) post(ctx context.Context, key, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode gateway request failed: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build gateway request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", key)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		// Timeouts and connection failures: the gateway may or may not have
		// acted, and the idempotency key makes a retry safe.
		return Transient(fmt.Errorf("gateway request failed: %w", err))
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return Transient(fmt.Errorf("read gateway response failed: %w", err))
	}

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode gateway response failed: %w", err)
		}
		return nil
	}
	return classify(res.StatusCode, raw)
}

func classify(status int, raw []byte) error {
	var ge gatewayError
	_ = json.Unmarshal(raw, &ge)

	var cause error
	switch ge.Code {
	case "already_captured":
		cause = ErrAlreadyCaptured
	case "already_voided":
		cause = ErrAlreadyVoided
	case "authorization_expired":
		cause = ErrAuthorizationExpired
	case "insufficient_captured":
		cause = ErrInsufficientCaptured
	default:
		msg := ge.Message
		if msg == "" {
			msg = http.StatusText(status)
		}
		cause = errors.New(msg)
	}
	cause = fmt.Errorf("gateway returned %d: %w", status, cause)

	if status == http.StatusTooManyRequests || status >= 500 {
		return Transient(cause)
	}
	return Rejected(cause)
}
