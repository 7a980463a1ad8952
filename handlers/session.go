// handlers/session.go
package handlers

import (
	"putt-session-system/middleware"
	"putt-session-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupStreamRoutes must be registered BEFORE the global gateway
// middleware: EventSource clients can't set headers, so the SSE routes
// authenticate with a token query param instead.
func SetupStreamRoutes(app *fiber.App, sessionService *services.SessionService) {
	app.Get("/stream/sessions", middleware.SSEAuthMiddleware(), sessionService.StreamOpenSessionsSSE)
	app.Get("/stream/sessions/:id", middleware.SSEAuthMiddleware(), sessionService.StreamSessionSSE)
}

func SetupSessionRoutes(app *fiber.App, sessionService *services.SessionService) {
	// Public routes; no user context, but still behind Gateway auth.
	// Spectating needs nothing but the session id.
	app.Get("/sessions", sessionService.ListSessionsHandler)
	app.Get("/sessions/:id", sessionService.GetSessionHandler)
	app.Get("/leaderboard", sessionService.LeaderboardHandler)

	// Secured routes; require user context forwarded by the Gateway.
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/sessions", sessionService.CreateSessionHandler)
	secured.Post("/sessions/join", sessionService.JoinByCodeHandler)
	secured.Post("/sessions/:id/join", sessionService.JoinByIDHandler)
	secured.Post("/sessions/:id/scores", sessionService.SubmitScoreHandler)
	secured.Post("/sessions/:id/end", sessionService.EndSessionHandler)
	secured.Delete("/sessions/:id", sessionService.DeleteSessionHandler)
}
