package handler

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-contact-relay/internal/dto"
	"github.com/noah-isme/gema-contact-relay/internal/mailer"
	"github.com/noah-isme/gema-contact-relay/internal/service"
	"github.com/noah-isme/gema-contact-relay/internal/utils"
	"github.com/noah-isme/gema-contact-relay/internal/validation"
)

const (
	messageContactSent     = "Email sent successfully"
	messageContactFailed   = "Failed to send email"
	messageContactPartial  = "Your message was delivered but the confirmation email could not be sent"
	messageInvalidPayload  = "invalid payload"
	messageDuplicateSubmit = "duplicate submission"
)

// ContactHandler handles contact submissions.
type ContactHandler struct {
	service service.ContactService
	schema  *validation.ContactSchema
	logger  zerolog.Logger
}

// NewContactHandler constructs a contact handler.
func NewContactHandler(service service.ContactService, schema *validation.ContactSchema, logger zerolog.Logger) *ContactHandler {
	if schema == nil {
		schema = validation.MustContactSchema()
	}
	return &ContactHandler{
		service: service,
		schema:  schema,
		logger:  logger.With().Str("component", "contact_handler").Logger(),
	}
}

// Register wires contact routes.
func (h *ContactHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
}

func (h *ContactHandler) submit(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	if err := h.service.Available(); err != nil {
		logger.Error().Err(err).Msg("contact submission rejected: delivery not configured")
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	body := c.Body()
	if err := h.schema.Validate(body); err != nil {
		return h.validationFailed(c, err)
	}

	var payload dto.ContactRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		return h.validationFailed(c, validation.Malformed("request body is not valid JSON"))
	}

	response, err := h.service.Submit(c.UserContext(), payload)
	if err != nil {
		return h.submitFailed(c, logger, err)
	}

	return utils.SendSuccess(c, messageContactSent, response)
}

func (h *ContactHandler) validationFailed(c *fiber.Ctx, err error) error {
	var validationErr *validation.Error
	if errors.As(err, &validationErr) {
		return utils.SendErrorWithDetails(c, fiber.StatusBadRequest, messageInvalidPayload, validationErr.Fields, nil)
	}
	return utils.SendError(c, fiber.StatusBadRequest, messageInvalidPayload)
}

func (h *ContactHandler) submitFailed(c *fiber.Ctx, logger *zerolog.Logger, err error) error {
	var (
		validationErr *validation.Error
		configErr     *mailer.ConfigError
		partialErr    *service.PartialDeliveryError
		deliveryErr   *mailer.DeliveryError
	)

	switch {
	case errors.As(err, &validationErr):
		return h.validationFailed(c, err)
	case errors.Is(err, service.ErrContactSpam):
		return utils.SendError(c, fiber.StatusBadRequest, messageInvalidPayload)
	case errors.Is(err, service.ErrContactDuplicate):
		return utils.SendError(c, fiber.StatusTooManyRequests, messageDuplicateSubmit)
	case errors.As(err, &configErr):
		logger.Error().Err(err).Msg("contact submission rejected: delivery not configured")
		return utils.SendError(c, fiber.StatusInternalServerError, configErr.Error())
	case errors.As(err, &partialErr):
		logger.Warn().Err(err).Str("reference_id", partialErr.ReferenceID).Msg("acknowledgement delivery failed")
		return utils.SendErrorWithDetails(c, fiber.StatusInternalServerError, messageContactPartial, partialErr.Err.Error(), dto.PartialDeliveryResponse{
			ReferenceID:   partialErr.ReferenceID,
			OwnerNotified: true,
			Acknowledged:  false,
		})
	case errors.As(err, &deliveryErr):
		logger.Error().Err(err).Str("transport", deliveryErr.Transport).Msg("contact delivery failed")
		return utils.SendErrorWithDetails(c, fiber.StatusInternalServerError, messageContactFailed, deliveryErr.Error(), nil)
	default:
		logger.Error().Err(err).Msg("failed to process contact submission")
		return utils.SendErrorWithDetails(c, fiber.StatusInternalServerError, messageContactFailed, err.Error(), nil)
	}
}
