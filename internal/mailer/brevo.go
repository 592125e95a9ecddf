package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	brevoTransport    = "api"
	maxProviderDetail = 4096
)

// BrevoConfig configures the Brevo v3 transactional email endpoint.
type BrevoConfig struct {
	APIKey  string
	URL     string
	Timeout time.Duration
	Client  *http.Client
}

// BrevoSender posts messages to the Brevo HTTP API.
type BrevoSender struct {
	apiKey string
	url    string
	client *http.Client
}

type brevoContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoPayload struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	TextContent string         `json:"textContent"`
	ReplyTo     *brevoContact  `json:"replyTo,omitempty"`
}

// NewBrevoSender constructs an HTTP API sender.
func NewBrevoSender(cfg BrevoConfig) *BrevoSender {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &BrevoSender{apiKey: cfg.APIKey, url: cfg.URL, client: client}
}

// Transport reports the delivery mode name.
func (b *BrevoSender) Transport() string {
	return brevoTransport
}

// Send issues a single synchronous POST. Only 200, 201 and 202 count as delivered.
func (b *BrevoSender) Send(ctx context.Context, msg Message) error {
	payload := brevoPayload{
		Sender:      brevoContact{Name: sanitizeHeader(msg.SenderName), Email: sanitizeHeader(msg.SenderAddress)},
		To:          []brevoContact{{Name: sanitizeHeader(msg.RecipientName), Email: sanitizeHeader(msg.RecipientAddress)}},
		Subject:     sanitizeHeader(msg.Subject),
		TextContent: msg.Body,
	}
	if replyTo := sanitizeHeader(msg.ReplyTo); replyTo != "" {
		payload.ReplyTo = &brevoContact{Name: sanitizeHeader(msg.SenderName), Email: replyTo}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &DeliveryError{Transport: brevoTransport, Err: fmt.Errorf("encode payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Transport: brevoTransport, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return &DeliveryError{Transport: brevoTransport, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxProviderDetail))
	detail := strings.TrimSpace(string(raw))

	if resp.StatusCode == http.StatusUnauthorized {
		return &DeliveryError{
			Transport:  brevoTransport,
			StatusCode: resp.StatusCode,
			Detail:     detail,
			Err:        errors.New("brevo api key unauthorized: use the HTTP API key and make sure the sender address is verified"),
		}
	}

	return &DeliveryError{
		Transport:  brevoTransport,
		StatusCode: resp.StatusCode,
		Detail:     detail,
		Err:        fmt.Errorf("brevo api error: %s", resp.Status),
	}
}
