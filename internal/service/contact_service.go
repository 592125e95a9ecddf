package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-contact-relay/internal/dto"
	"github.com/noah-isme/gema-contact-relay/internal/mailer"
	"github.com/noah-isme/gema-contact-relay/internal/models"
	"github.com/noah-isme/gema-contact-relay/internal/observability"
	"github.com/noah-isme/gema-contact-relay/internal/validation"
)

var (
	// ErrContactSpam indicates the honeypot field was filled.
	ErrContactSpam = errors.New("contact submission flagged as spam")
	// ErrContactDuplicate indicates a submission with the same checksum exists recently.
	ErrContactDuplicate = errors.New("duplicate contact submission")
)

// PartialDeliveryError means the owner was notified but the acknowledgement to the
// submitter failed.
type PartialDeliveryError struct {
	ReferenceID string
	Err         error
}

func (e *PartialDeliveryError) Error() string {
	return fmt.Sprintf("owner notified but acknowledgement failed: %v", e.Err)
}

func (e *PartialDeliveryError) Unwrap() error {
	return e.Err
}

// ContactService exposes the contact submission workflow.
type ContactService interface {
	// Available reports the delivery configuration problem that blocks every submission, if any.
	Available() error
	Submit(ctx context.Context, req dto.ContactRequest) (dto.ContactResponse, error)
}

// ContactConfig carries the addressing and limits applied to every submission.
type ContactConfig struct {
	SenderName       string
	SenderAddress    string
	RecipientName    string
	RecipientAddress string
	Acknowledge      bool
	Timeout          time.Duration
	DedupeTTL        time.Duration
}

// ContactDependencies groups the collaborators of the contact service. When ConfigErr is
// set every submission fails with it before any validation or delivery.
type ContactDependencies struct {
	Sender    mailer.Sender
	ConfigErr error
	Cache     *redis.Client
	Validator *validator.Validate
}

type contactService struct {
	sender    mailer.Sender
	configErr error
	cache     *redis.Client
	validator *validator.Validate
	cfg       ContactConfig
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewContactService constructs a contact submission service.
func NewContactService(deps ContactDependencies, cfg ContactConfig, logger zerolog.Logger) ContactService {
	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = 5 * time.Minute
	}
	if deps.Validator == nil {
		deps.Validator = validation.NewValidator()
	}
	if deps.Sender == nil && deps.ConfigErr == nil {
		deps.ConfigErr = errors.New("email delivery is not configured")
	}

	return &contactService{
		sender:    deps.Sender,
		configErr: deps.ConfigErr,
		cache:     deps.Cache,
		validator: deps.Validator,
		cfg:       cfg,
		logger:    logger.With().Str("component", "contact_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gema-contact-relay/internal/service/contact"),
	}
}

func (s *contactService) Available() error {
	return s.configErr
}

func (s *contactService) Submit(ctx context.Context, req dto.ContactRequest) (dto.ContactResponse, error) {
	ctx, span := s.tracer.Start(ctx, "contact.submit")
	defer span.End()

	if s.configErr != nil {
		span.SetStatus(codes.Error, "delivery not configured")
		observability.ContactSubmissions().WithLabelValues("config_error").Inc()
		return dto.ContactResponse{}, s.configErr
	}

	if req.Honeypot != "" {
		span.SetStatus(codes.Error, "honeypot tripped")
		observability.ContactSubmissions().WithLabelValues("spam").Inc()
		return dto.ContactResponse{}, ErrContactSpam
	}

	normalized := normalizeRequest(req)
	if err := s.validator.Struct(normalized); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		observability.ContactSubmissions().WithLabelValues("invalid").Inc()
		return dto.ContactResponse{}, validation.FromValidator(err)
	}

	submission := models.ContactSubmission{
		ReferenceID: uuid.New().String(),
		Name:        normalized.Name,
		Email:       normalized.Email,
		Country:     normalized.Country,
		Phone:       normalized.Phone,
		Subject:     normalized.Subject,
		Message:     normalized.Message,
	}
	span.SetAttributes(
		attribute.String("contact.reference_id", submission.ReferenceID),
		attribute.Bool("contact.acknowledge", s.cfg.Acknowledge),
		attribute.String("mail.transport", s.sender.Transport()),
	)

	dedupeKey, err := s.claim(ctx, submission)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrContactDuplicate) {
			span.SetStatus(codes.Error, "duplicate submission")
			observability.ContactSubmissions().WithLabelValues("duplicate").Inc()
		}
		return dto.ContactResponse{}, err
	}

	logger := s.logger.With().
		Str("reference_id", submission.ReferenceID).
		Str("email", maskEmailAddress(submission.Email)).
		Logger()

	if err := s.deliver(ctx, "owner", s.ownerMessage(submission)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "owner delivery failed")
		observability.ContactSubmissions().WithLabelValues("failed").Inc()
		logger.Error().Err(err).Msg("contact notification failed")
		s.release(dedupeKey)
		return dto.ContactResponse{}, err
	}

	response := dto.ContactResponse{ReferenceID: submission.ReferenceID, Status: "sent"}

	if s.cfg.Acknowledge {
		if err := s.deliver(ctx, "acknowledgement", s.acknowledgementMessage(submission)); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "acknowledgement failed")
			observability.ContactSubmissions().WithLabelValues("partial").Inc()
			logger.Warn().Err(err).Msg("owner notified but acknowledgement failed")
			return response, &PartialDeliveryError{ReferenceID: submission.ReferenceID, Err: err}
		}
		response.Acknowledged = true
	}

	observability.ContactSubmissions().WithLabelValues("sent").Inc()
	logger.Info().Bool("acknowledged", response.Acknowledged).Msg("contact submission processed")
	span.SetStatus(codes.Ok, "delivered")

	return response, nil
}

func (s *contactService) deliver(ctx context.Context, kind string, msg mailer.Message) error {
	ctx, span := s.tracer.Start(ctx, "contact.deliver", trace.WithAttributes(attribute.String("mail.kind", kind)))
	defer span.End()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := s.sender.Send(ctx, msg)
	result := "ok"
	if err != nil {
		result = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
	}
	observability.DeliveryLatency().WithLabelValues(s.sender.Transport(), kind, result).Observe(time.Since(start).Seconds())

	if err != nil {
		var deliveryErr *mailer.DeliveryError
		if errors.As(err, &deliveryErr) {
			return err
		}
		return &mailer.DeliveryError{Transport: s.sender.Transport(), Err: err}
	}
	return nil
}

// claim reserves the submission checksum when duplicate suppression is enabled.
func (s *contactService) claim(ctx context.Context, submission models.ContactSubmission) (string, error) {
	if s.cache == nil {
		return "", nil
	}
	key := fmt.Sprintf("contact:dedupe:%s", computeChecksum(submission.Name, submission.Email, submission.Message))
	ok, err := s.cache.SetNX(ctx, key, submission.ReferenceID, s.cfg.DedupeTTL).Result()
	if err != nil {
		// Suppression is best effort; an unreachable cache must not block delivery.
		s.logger.Warn().Err(err).Str("reference_id", submission.ReferenceID).Msg("dedupe check failed, delivering without it")
		return "", nil
	}
	if !ok {
		return "", ErrContactDuplicate
	}
	return key, nil
}

// release frees the checksum after a failed delivery so the submitter can try again.
func (s *contactService) release(key string) {
	if s.cache == nil || key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cache.Del(ctx, key).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to release dedupe key")
	}
}

func normalizeRequest(req dto.ContactRequest) dto.ContactRequest {
	return dto.ContactRequest{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Country: strings.TrimSpace(req.Country),
		Phone:   strings.TrimSpace(req.Phone),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}
}

func computeChecksum(parts ...string) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(strings.TrimSpace(strings.ToLower(part))))
		hasher.Write([]byte("|"))
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
