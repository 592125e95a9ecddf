// Package mailer delivers single plain-text email messages through SMTP, an SMTP relay or
// the Brevo transactional email API.
package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-contact-relay/internal/config"
)

// Message is one outbound email.
type Message struct {
	SenderName       string
	SenderAddress    string
	RecipientAddress string
	RecipientName    string
	Subject          string
	Body             string
	ReplyTo          string
}

// Sender delivers a message through a single transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Transport() string
}

// ConfigError reports delivery settings that are required but absent.
type ConfigError struct {
	Mode    string
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("email delivery is not configured for mode %q: missing %s", e.Mode, strings.Join(e.Missing, ", "))
}

// DeliveryError wraps a transport, authentication or provider failure. Stage names the
// SMTP step that failed; Detail carries the provider's response body.
type DeliveryError struct {
	Transport  string
	Stage      string
	StatusCode int
	Detail     string
	Err        error
}

func (e *DeliveryError) Error() string {
	var b strings.Builder
	b.WriteString(e.Transport)
	b.WriteString(" delivery failed")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Detail != "" {
		b.WriteString(" - ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// New selects the sender for the configured delivery mode. A *ConfigError is returned when
// the mode is missing required settings.
func New(cfg config.DeliveryConfig, logger zerolog.Logger) (Sender, error) {
	if missing := cfg.Missing(); len(missing) > 0 {
		return nil, &ConfigError{Mode: cfg.Mode, Missing: missing}
	}

	switch cfg.Mode {
	case config.ModeSMTP, config.ModeRelay:
		return NewSMTPSender(SMTPConfig{
			Transport: cfg.Mode,
			Host:      cfg.Host,
			Port:      cfg.Port,
			Username:  cfg.Username,
			Password:  cfg.Password,
			Timeout:   cfg.Timeout,
			StartTLS:  true,
		}), nil
	case config.ModeAPI:
		return NewBrevoSender(BrevoConfig{
			APIKey:  cfg.APIKey,
			URL:     cfg.APIURL,
			Timeout: cfg.Timeout,
		}), nil
	case config.ModeLog:
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unsupported mail mode %q", cfg.Mode)
	}
}

// sanitizeHeader strips line breaks so user input cannot inject extra headers.
func sanitizeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.TrimSpace(value)
}
