package mailer

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender is a development transport that only logs message metadata.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender constructs a logging sender.
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "mailer").Str("transport", "log").Logger()}
}

// Transport reports the delivery mode name.
func (l *LogSender) Transport() string {
	return "log"
}

// Send logs the message and reports success.
func (l *LogSender) Send(ctx context.Context, msg Message) error {
	l.logger.Info().
		Str("to", msg.RecipientAddress).
		Str("subject", msg.Subject).
		Int("body_bytes", len(msg.Body)).
		Msg("email delivered to log")
	return nil
}
