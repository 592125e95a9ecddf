package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-contact-relay/internal/utils"
)

// ErrorHandler renders every unhandled error, router 404/405 included, as the JSON envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status = fiberErr.Code
		message = fiberErr.Message
	}

	return utils.SendError(c, status, message)
}
