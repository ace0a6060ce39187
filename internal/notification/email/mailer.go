package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dkralj/storefront/pkg/config"
)

// Message is one transactional email dispatch request.
type Message struct {
	Template string `json:"template"`
	To       string `json:"to"`
	From     string `json:"from"`
	Data     any    `json:"data"`
}

// Mailer dispatches transactional emails.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// HTTPMailer posts dispatch requests to the email provider's REST API.
type HTTPMailer struct {
	baseURL string
	apiKey  string
	from    string
	client  *http.Client
}

func NewHTTPMailer(cfg config.MailerConfig) *HTTPMailer {
	return &HTTPMailer{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		from:    cfg.From,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (m *HTTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = m.from
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode email message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/send", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("email dispatch failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("email provider returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
