// putt-session-system/middleware/sse_auth.go
package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SSEAuthMiddleware validates the gateway token from the `token` query
// param instead of the Authorization header; EventSource clients cannot
// set headers. Identity, when present, also rides in query params.
//
// Usage:
//
//	app.Get("/stream/sessions/:id", middleware.SSEAuthMiddleware(), sessionService.StreamSessionSSE)
func SSEAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("PUTT_SERVICE_TOKEN")
	if expectedToken == "" {
		log.Fatal("PUTT_SERVICE_TOKEN is not set; service cannot authenticate SSE clients")
	}

	return func(c *fiber.Ctx) error {
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "missing token in query",
			})
		}
		if token != expectedToken {
			log.Printf("[SSE_AUTH] invalid token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		// Streams are read-only; identity is optional (spectators).
		c.Locals("user_id", c.Query("uid"))
		c.Locals("user_name", c.Query("name"))

		return c.Next()
	}
}
