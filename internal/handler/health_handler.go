package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-contact-relay/internal/health"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status    string  `json:"status"`
	Timestamp float64 `json:"timestamp"`
}

// APITest answers the reachability probe with a fixed payload.
func APITest() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "API is reachable!",
		})
	}
}

// HealthCheck reports the supervision flag maintained by the health monitor.
func HealthCheck(state *health.State) fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now()
		payload := HealthResponse{
			Status:    "healthy",
			Timestamp: float64(now.UnixNano()) / float64(time.Second),
		}
		status := fiber.StatusOK
		if state != nil && !state.Healthy() {
			payload.Status = "unhealthy"
			status = fiber.StatusInternalServerError
		}
		return c.Status(status).JSON(payload)
	}
}
