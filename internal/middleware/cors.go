package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Content-Type, Accept, Origin"
	corsMaxAge       = "86400"
)

// CORS only answers cross-origin requests from the exact origins listed. Allowed origins
// are echoed back; anything else gets no CORS headers and the browser blocks it. Preflight
// requests for registered paths end here with an empty 200; others fall through to the router.
func CORS(origins []string) fiber.Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowed[origin] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		c.Vary(fiber.HeaderOrigin)

		if _, ok := allowed[origin]; ok && origin != "" {
			c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
			c.Set(fiber.HeaderAccessControlAllowMethods, corsAllowMethods)
			c.Set(fiber.HeaderAccessControlAllowHeaders, corsAllowHeaders)
			c.Set(fiber.HeaderAccessControlMaxAge, corsMaxAge)
		}

		if c.Method() == fiber.MethodOptions && hasRoute(c) {
			c.Status(fiber.StatusOK)
			return nil
		}

		return c.Next()
	}
}

// hasRoute reports whether a handler (not middleware) is registered for the request path.
func hasRoute(c *fiber.Ctx) bool {
	path := normalizePath(c.Path())
	for _, route := range c.App().GetRoutes(true) {
		if normalizePath(route.Path) == path {
			return true
		}
	}
	return false
}

func normalizePath(path string) string {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
