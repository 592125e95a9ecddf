package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-contact-relay/internal/handler"
	"github.com/noah-isme/gema-contact-relay/internal/mailer"
	"github.com/noah-isme/gema-contact-relay/internal/service"
	"github.com/noah-isme/gema-contact-relay/internal/validation"
)

type recordingSender struct {
	mu       sync.Mutex
	messages []mailer.Message
	failOn   map[int]error
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	if err, ok := s.failOn[len(s.messages)]; ok {
		return err
	}
	return nil
}

func (s *recordingSender) Transport() string { return "smtp" }

func (s *recordingSender) sent() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Message(nil), s.messages...)
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
	Data    json.RawMessage `json:"data"`
}

func newContactApp(t *testing.T, deps service.ContactDependencies, acknowledge bool) *fiber.App {
	t.Helper()
	logger := zerolog.New(io.Discard)
	svc := service.NewContactService(deps, service.ContactConfig{
		SenderName:       "Portfolio Contact",
		SenderAddress:    "relay@example.com",
		RecipientName:    "Site Owner",
		RecipientAddress: "owner@example.com",
		Acknowledge:      acknowledge,
	}, logger)

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})
	handler.NewContactHandler(svc, validation.MustContactSchema(), logger).Register(app.Group("/api/contact"))
	return app
}

func postContact(t *testing.T, app *fiber.App, body string) (*http.Response, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	var decoded envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	return resp, decoded
}

func TestContactHandler_DeliversOwnerNotification(t *testing.T) {
	sender := &recordingSender{}
	app := newContactApp(t, service.ContactDependencies{Sender: sender}, false)

	resp, body := postContact(t, app, `{"name":"Ada","email":"ada@example.com","message":"Hello"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "success", body.Status)
	require.Equal(t, "Email sent successfully", body.Message)

	var data struct {
		ReferenceID  string `json:"reference_id"`
		Status       string `json:"status"`
		Acknowledged bool   `json:"acknowledged"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	require.NotEmpty(t, data.ReferenceID)
	require.Equal(t, "sent", data.Status)
	require.False(t, data.Acknowledged)

	sent := sender.sent()
	require.Len(t, sent, 1)
	require.Equal(t, "owner@example.com", sent[0].RecipientAddress)
	require.Equal(t, "New Contact from Ada", sent[0].Subject)
	require.Contains(t, sent[0].Body, "Ada")
	require.Contains(t, sent[0].Body, "ada@example.com")
	require.Contains(t, sent[0].Body, "Hello")
	require.Equal(t, "ada@example.com", sent[0].ReplyTo)
}

func TestContactHandler_RejectsMalformedBodies(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{name: "not json", body: `{"name":`, field: "body"},
		{name: "empty", body: ``, field: "body"},
		{name: "array", body: `[]`, field: "body"},
		{name: "missing name", body: `{"email":"ada@example.com","message":"Hello"}`, field: "body"},
		{name: "numeric message", body: `{"name":"Ada","email":"ada@example.com","message":42}`, field: "message"},
		{name: "blank name", body: `{"name":"   ","email":"ada@example.com","message":"Hello"}`, field: "name"},
		{name: "bad email", body: `{"name":"Ada","email":"not-an-email","message":"Hello"}`, field: "email"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sender := &recordingSender{}
			app := newContactApp(t, service.ContactDependencies{Sender: sender}, false)

			resp, body := postContact(t, app, tc.body)
			require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			require.Equal(t, "error", body.Status)

			var fields []validation.FieldError
			require.NoError(t, json.Unmarshal(body.Details, &fields))
			require.NotEmpty(t, fields)

			found := false
			for _, f := range fields {
				if f.Field == tc.field {
					found = true
				}
			}
			require.True(t, found, "expected a %q field error, got %+v", tc.field, fields)
			require.Empty(t, sender.sent())
		})
	}
}

func TestContactHandler_ConfigErrorShortCircuits(t *testing.T) {
	configErr := &mailer.ConfigError{Mode: "smtp", Missing: []string{"SMTP_USERNAME", "SMTP_PASSWORD"}}
	app := newContactApp(t, service.ContactDependencies{ConfigErr: configErr}, false)

	resp, body := postContact(t, app, `not even json`)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "error", body.Status)
	require.Contains(t, body.Message, "SMTP_USERNAME")
}

func TestContactHandler_OwnerFailureReportsDeliveryError(t *testing.T) {
	sender := &recordingSender{failOn: map[int]error{
		1: &mailer.DeliveryError{Transport: "smtp", Stage: "auth", Err: errors.New("535 authentication failed")},
	}}
	app := newContactApp(t, service.ContactDependencies{Sender: sender}, true)

	resp, body := postContact(t, app, `{"name":"Ada","email":"ada@example.com","message":"Hello"}`)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "Failed to send email", body.Message)
	require.Contains(t, string(body.Details), "535")
	require.Len(t, sender.sent(), 1)
}

func TestContactHandler_PartialDeliveryIsDistinct(t *testing.T) {
	sender := &recordingSender{failOn: map[int]error{
		2: &mailer.DeliveryError{Transport: "smtp", Stage: "rcpt to", Err: errors.New("550 mailbox unavailable")},
	}}
	app := newContactApp(t, service.ContactDependencies{Sender: sender}, true)

	resp, body := postContact(t, app, `{"name":"Ada","email":"ada@example.com","message":"Hello"}`)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "error", body.Status)
	require.NotEqual(t, "Failed to send email", body.Message)

	var data struct {
		ReferenceID   string `json:"reference_id"`
		OwnerNotified bool   `json:"owner_notified"`
		Acknowledged  bool   `json:"acknowledged"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	require.True(t, data.OwnerNotified)
	require.False(t, data.Acknowledged)
	require.NotEmpty(t, data.ReferenceID)

	sent := sender.sent()
	require.Len(t, sent, 2)
	require.Equal(t, "owner@example.com", sent[0].RecipientAddress)
	require.Equal(t, "ada@example.com", sent[1].RecipientAddress)
}

func TestContactHandler_AcknowledgementSent(t *testing.T) {
	sender := &recordingSender{}
	app := newContactApp(t, service.ContactDependencies{Sender: sender}, true)

	resp, body := postContact(t, app, `{"name":"Ada","email":"ada@example.com","message":"Hello","subject":"Hiring"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, string(body.Data), `"acknowledged":true`)

	sent := sender.sent()
	require.Len(t, sent, 2)
	require.Equal(t, "Hiring", sent[0].Subject)
	require.Equal(t, "owner@example.com", sent[1].ReplyTo)
}

func TestContactHandler_HoneypotRejected(t *testing.T) {
	sender := &recordingSender{}
	app := newContactApp(t, service.ContactDependencies{Sender: sender}, false)

	resp, body := postContact(t, app, `{"name":"Bot","email":"bot@example.com","message":"Buy","_note":"gotcha"}`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid payload", body.Message)
	require.Empty(t, sender.sent())
}

func TestContactHandler_ProviderBodyReachesDetails(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"invalid_parameter","message":"sender is not valid"}`))
	}))
	defer provider.Close()

	sender := mailer.NewBrevoSender(mailer.BrevoConfig{APIKey: "k", URL: provider.URL})
	app := newContactApp(t, service.ContactDependencies{Sender: sender}, false)

	resp, body := postContact(t, app, `{"name":"Ada","email":"ada@example.com","message":"Hello"}`)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "Failed to send email", body.Message)
	require.Contains(t, string(body.Details), "400")
	require.Contains(t, string(body.Details), "sender is not valid")
}
