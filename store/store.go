package store

import (
	"context"
	"errors"
	"time"

	"putt-session-system/games"
	"putt-session-system/models"
)

// ErrNotFound is returned when a session id or join code resolves to
// nothing. It is surfaced to the caller and never retried automatically.
var ErrNotFound = errors.New("session not found")

// MaxListLimit caps the open-session listing page size.
const MaxListLimit = 50

// Sessions is the transactional contract over session documents. Every
// mutation goes through Update; a read-modify-write that is atomic
// relative to concurrent Updates on the same id. Nothing in the service
// layer is allowed to compute a patch from a stale read and blind-write it.
type Sessions interface {
	// Create persists a new session and returns its assigned id.
	Create(ctx context.Context, s *models.Session) (string, error)

	// Get returns a one-shot snapshot, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Session, error)

	// Update locks the document, hands it to fn for mutation, and commits.
	// fn returning (false, nil) is a clean no-op: nothing is written, the
	// version does not move, and no change is published; this is what
	// idempotent retries lean on. ErrNotFound surfaces before fn runs.
	Update(ctx context.Context, id string, fn func(*models.Session) (bool, error)) (*models.Session, error)

	// FindByCode resolves a join code with a one-shot query, newest match
	// first. Codes are not collision-checked at creation, so in the
	// (astronomically unlikely) collision case this picks the most recent.
	FindByCode(ctx context.Context, code string) (*models.Session, error)

	// ListOpen returns non-closed sessions, newest first, limit capped at
	// MaxListLimit.
	ListOpen(ctx context.Context, limit int) ([]*models.Session, error)

	// Delete removes the document unconditionally and notifies watchers
	// with a nil snapshot.
	Delete(ctx context.Context, id string) error

	// Subscribe delivers the current document immediately, then again on
	// every committed change, and nil on deletion, until cancelled. Every
	// delivered snapshot is a private deep copy and fully authoritative.
	Subscribe(id string, fn func(*models.Session)) (cancel func())

	// SubscribeOpen is the live variant of ListOpen: the full filtered
	// list is re-delivered whenever the underlying set changes.
	SubscribeOpen(fn func([]*models.Session)) (cancel func())
}

// Leaderboard is the append-only score archive written at session close.
type Leaderboard interface {
	Append(ctx context.Context, rows []models.LeaderboardEntry) error

	// Recent returns rows recorded since the given time, newest first,
	// optionally filtered by game. The limit bounds how much the
	// recompute-on-read aggregation ever has to chew through.
	Recent(ctx context.Context, since time.Time, game games.Game, limit int) ([]models.LeaderboardEntry, error)
}
