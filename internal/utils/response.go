package utils

import "github.com/gofiber/fiber/v2"

// Response statuses understood by the front-end.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIResponse describes the common structure for API responses.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// SendSuccess sends a successful JSON response with a message.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}

	return c.Status(fiber.StatusOK).JSON(APIResponse{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	})
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	return SendErrorWithDetails(c, status, message, nil, nil)
}

// SendErrorWithDetails sends an error payload carrying diagnostic details and optional data.
func SendErrorWithDetails(c *fiber.Ctx, status int, message string, details, data interface{}) error {
	if message == "" {
		message = "error"
	}
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	return c.Status(status).JSON(APIResponse{
		Status:  StatusError,
		Message: message,
		Details: details,
		Data:    data,
	})
}
