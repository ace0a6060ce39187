// Package medusa is a typed REST client for the commerce backend's store API.
// All durable state (orders, carts, returns) lives behind this API; the
// storefront only orchestrates calls against it.
package medusa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/dkralj/storefront/internal/session"
	"github.com/dkralj/storefront/pkg/config"
)

// ErrNotFound is returned when the backend reports a missing resource.
var ErrNotFound = errors.New("resource not found")

// APIError is a non-2xx backend response with its decoded message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	pubKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient creates a commerce backend client. The publishable key is sent
// with every request; the bearer token is taken from the request context
// when present (see session.WithToken).
func NewClient(cfg config.MedusaConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		pubKey:  cfg.PublishableKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With("component", "medusa"),
	}
}

// do performs a JSON request against the store API and decodes the response
// into out. Timeout and retry behavior belong to the underlying http.Client.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.pubKey != "" {
		req.Header.Set("x-publishable-api-key", c.pubKey)
	}
	if token := session.TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := decodeErrorMessage(resp.Body)
		c.logger.DebugContext(ctx, "Backend call failed",
			"method", method, "path", path, "status", resp.StatusCode, "message", message)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
		}
		return &APIError{Status: resp.StatusCode, Message: message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeErrorMessage extracts the backend's error message, falling back to
// the raw body when the payload is not the usual {"message": ...} shape.
func decodeErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "unknown error"
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return string(raw)
}
