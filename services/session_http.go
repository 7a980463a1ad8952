package services

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"putt-session-system/games"
	"putt-session-system/models"
	"putt-session-system/store"
)

// playerFromLocals builds the joining player from the gateway-provided
// identity context. The values are opaque strings from the identity
// provider; nothing here validates their shape.
func playerFromLocals(c *fiber.Ctx) models.Player {
	p := models.Player{UID: c.Locals("user_id").(string)}
	if name, ok := c.Locals("user_name").(string); ok {
		p.Name = name
	}
	if photo, ok := c.Locals("user_photo").(string); ok {
		p.PhotoURL = photo
	}
	if p.Name == "" {
		p.Name = "Player"
	}
	return p
}

func httpError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	case errors.Is(err, ErrPlayerNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "player not in session"})
	case errors.Is(err, ErrSessionClosed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "session is closed"})
	case errors.Is(err, ErrUnknownGame):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown game variant"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

// CreateSessionHandler opens a new room for the authenticated user.
func (s *SessionService) CreateSessionHandler(c *fiber.Ctx) error {
	var body struct {
		Game games.Game `json:"game"`
		Name string     `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	ownerUID := c.Locals("user_id").(string)
	sess, err := s.CreateSession(c.Context(), ownerUID, body.Game, body.Name)
	if err != nil {
		return httpError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sess)
}

// JoinByCodeHandler joins the authenticated user into the room matching a
// typed code.
func (s *SessionService) JoinByCodeHandler(c *fiber.Ctx) error {
	var body struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&body); err != nil || body.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "join code required"})
	}

	sess, err := s.JoinByCode(c.Context(), body.Code, playerFromLocals(c))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(sess)
}

// JoinByIDHandler joins the authenticated user into a room picked from the
// open listing.
func (s *SessionService) JoinByIDHandler(c *fiber.Ctx) error {
	sess, err := s.JoinByID(c.Context(), c.Params("id"), playerFromLocals(c))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(sess)
}

// SubmitScoreHandler records one set of makes. Out-of-range makes are
// clamped by the engine; only a malformed body is rejected.
func (s *SessionService) SubmitScoreHandler(c *fiber.Ctx) error {
	var body struct {
		Makes *int `json:"makes"`
	}
	if err := c.BodyParser(&body); err != nil || body.Makes == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "makes must be a number"})
	}

	uid := c.Locals("user_id").(string)
	sess, err := s.SubmitScore(c.Context(), c.Params("id"), uid, *body.Makes)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(sess)
}

// EndSessionHandler closes a room. Only the owner may end a session; this
// is the single place that check lives.
func (s *SessionService) EndSessionHandler(c *fiber.Ctx) error {
	sess, err := s.GetSession(c.Context(), c.Params("id"))
	if err != nil {
		return httpError(c, err)
	}
	if sess.OwnerUID != c.Locals("user_id").(string) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "only the owner can end a session"})
	}

	closed, err := s.EndSession(c.Context(), sess.ID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(closed)
}

// DeleteSessionHandler removes a room. Owner only, same as ending.
func (s *SessionService) DeleteSessionHandler(c *fiber.Ctx) error {
	sess, err := s.GetSession(c.Context(), c.Params("id"))
	if err != nil {
		return httpError(c, err)
	}
	if sess.OwnerUID != c.Locals("user_id").(string) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "only the owner can delete a session"})
	}

	if err := s.DeleteSession(c.Context(), sess.ID); err != nil {
		return httpError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetSessionHandler is the spectator read; anyone with the id can watch.
func (s *SessionService) GetSessionHandler(c *fiber.Ctx) error {
	sess, err := s.GetSession(c.Context(), c.Params("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(sess)
}

// ListSessionsHandler returns the open-room listing for the lobby screen.
func (s *SessionService) ListSessionsHandler(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "25"))
	if err != nil || limit <= 0 {
		limit = 25
	}
	rooms, err := s.ListOpenSessions(c.Context(), limit)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(rooms)
}

// LeaderboardHandler serves the recompute-on-read global top list.
func (s *SessionService) LeaderboardHandler(c *fiber.Ctx) error {
	days, err := strconv.Atoi(c.Query("days", "0"))
	if err != nil || days < 0 {
		days = 0
	}
	game := games.Game(c.Query("game", ""))
	if game != "" && !games.Valid(game) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown game variant"})
	}

	rows, err := s.FetchGlobalLeaderboard(c.Context(), days, game)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(rows)
}
