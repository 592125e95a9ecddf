package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-contact-relay/internal/handler"
	"github.com/noah-isme/gema-contact-relay/internal/health"
)

func TestAPITestIgnoresRequestInput(t *testing.T) {
	app := fiber.New()
	app.Get("/api/test", handler.APITest())

	for _, target := range []string{"/api/test", "/api/test?verbose=1&x=y"} {
		req := httptest.NewRequest(http.MethodGet, target, strings.NewReader(`{"ignored":true}`))
		req.Header.Set("Authorization", "Bearer nothing")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.JSONEq(t, `{"status":"ok","message":"API is reachable!"}`, string(raw))
	}
}

func TestHealthCheckReflectsState(t *testing.T) {
	state := health.NewState()
	app := fiber.New()
	app.Get("/health", handler.HealthCheck(state))

	before := float64(time.Now().Unix())
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload handler.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "healthy", payload.Status)
	require.GreaterOrEqual(t, payload.Timestamp, before)

	state.MarkUnhealthy(time.Now())
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "unhealthy", payload.Status)
}

func TestErrorHandlerRendersJSONForUnknownRoutes(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})
	app.Get("/api/test", handler.APITest())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "error", payload["status"])
	require.NotEmpty(t, payload["message"])
}
