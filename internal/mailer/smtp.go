package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const implicitTLSPort = 465

// SMTPConfig configures an authenticated SMTP submission.
type SMTPConfig struct {
	Transport string
	Host      string
	Port      int
	Username  string
	Password  string
	Timeout   time.Duration
	// StartTLS requires the STARTTLS upgrade before authenticating. Only local test servers
	// run without it.
	StartTLS  bool
	TLSConfig *tls.Config
}

// SMTPSender opens one connection per message; nothing is pooled between calls.
type SMTPSender struct {
	cfg SMTPConfig
	now func() time.Time
}

// NewSMTPSender constructs a sender for direct SMTP or an SMTP relay.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Transport == "" {
		cfg.Transport = "smtp"
	}
	return &SMTPSender{cfg: cfg, now: time.Now}
}

// Transport reports the delivery mode name.
func (s *SMTPSender) Transport() string {
	return s.cfg.Transport
}

// Send submits the message and closes the connection.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	payload := buildMIME(msg, s.now(), s.cfg.Host)
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	conn, err := s.dial(ctx, addr)
	if err != nil {
		return s.fail("connect", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else if s.cfg.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.cfg.Timeout))
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return s.fail("greeting", err)
	}
	defer client.Close()

	if s.cfg.StartTLS && s.cfg.Port != implicitTLSPort {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return s.fail("starttls", errors.New("server does not offer STARTTLS"))
		}
		if err := client.StartTLS(s.tlsConfig()); err != nil {
			return s.fail("starttls", err)
		}
	}

	if s.cfg.Username != "" {
		if ok, _ := client.Extension("AUTH"); !ok {
			return s.fail("auth", errors.New("server does not support authentication"))
		}
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return s.fail("auth", err)
		}
	}

	if err := client.Mail(sanitizeHeader(msg.SenderAddress)); err != nil {
		return s.fail("mail from", err)
	}
	if err := client.Rcpt(sanitizeHeader(msg.RecipientAddress)); err != nil {
		return s.fail("rcpt to", err)
	}

	w, err := client.Data()
	if err != nil {
		return s.fail("data", err)
	}
	if _, err := w.Write(payload); err != nil {
		return s.fail("data", err)
	}
	if err := w.Close(); err != nil {
		return s.fail("data", err)
	}

	if err := client.Quit(); err != nil {
		return s.fail("quit", err)
	}
	return nil
}

func (s *SMTPSender) dial(ctx context.Context, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: s.cfg.Timeout}
	if s.cfg.Port == implicitTLSPort {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: s.tlsConfig()}
		return tlsDialer.DialContext(ctx, "tcp", addr)
	}
	return dialer.DialContext(ctx, "tcp", addr)
}

func (s *SMTPSender) tlsConfig() *tls.Config {
	if s.cfg.TLSConfig != nil {
		return s.cfg.TLSConfig
	}
	return &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
}

func (s *SMTPSender) fail(stage string, err error) error {
	return &DeliveryError{
		Transport: s.cfg.Transport,
		Stage:     stage,
		Err:       fmt.Errorf("%s: %w", stage, err),
	}
}

func buildMIME(msg Message, now time.Time, host string) []byte {
	var buf bytes.Buffer

	from := mail.Address{Name: sanitizeHeader(msg.SenderName), Address: sanitizeHeader(msg.SenderAddress)}
	to := mail.Address{Name: sanitizeHeader(msg.RecipientName), Address: sanitizeHeader(msg.RecipientAddress)}

	writeHeader(&buf, "From", from.String())
	writeHeader(&buf, "To", to.String())
	if replyTo := sanitizeHeader(msg.ReplyTo); replyTo != "" {
		writeHeader(&buf, "Reply-To", (&mail.Address{Address: replyTo}).String())
	}
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", sanitizeHeader(msg.Subject)))
	writeHeader(&buf, "Date", now.Format(time.RFC1123Z))
	writeHeader(&buf, "Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), host))
	writeHeader(&buf, "MIME-Version", "1.0")
	writeHeader(&buf, "Content-Type", "text/plain; charset=UTF-8")
	writeHeader(&buf, "Content-Transfer-Encoding", "8bit")
	buf.WriteString("\r\n")

	body := strings.ReplaceAll(msg.Body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\n", "\r\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\r\n") {
		buf.WriteString("\r\n")
	}

	return buf.Bytes()
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}
