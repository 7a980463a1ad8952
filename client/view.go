// Package client implements the per-device reconciliation layer: scores
// are applied to the local view optimistically the moment they are entered,
// and the optimistic overlay lives only until the next authoritative
// snapshot arrives from the store subscription.
package client

import (
	"context"
	"errors"
	"sync"

	"putt-session-system/models"
	"putt-session-system/store"
)

// ErrSpectator is returned when a read-only view tries to write.
var ErrSpectator = errors.New("spectator view cannot submit scores")

// ErrNotJoined is returned when the local player isn't in the session yet.
var ErrNotJoined = errors.New("player has not joined this session")

// Protocol is the slice of the session protocol a view writes through.
// *services.SessionService satisfies it.
type Protocol interface {
	SubmitScore(ctx context.Context, sessionID string, uid string, makes int) (*models.Session, error)
}

// Overlay is the optimistic local state for the view's own player: the
// engine result applied ahead of server confirmation. BaseSets pins the
// confirmed history length it was computed from; once the server-confirmed
// length moves, the overlay is stale by definition.
type Overlay struct {
	SessionID string
	UID       string
	BaseSets  int
	Player    models.Player
}

// RenderFunc receives the authoritative snapshot (nil once the session is
// deleted) plus the optimistic overlay, if one is pending. The overlay's
// player shadows the snapshot's copy of the same uid.
type RenderFunc func(snapshot *models.Session, overlay *Overlay)

// View is one device's live view of one session. The local copy is never
// treated as authoritative: every snapshot delivery replaces it wholesale.
type View struct {
	mu        sync.Mutex
	protocol  Protocol
	sessionID string
	uid       string
	render    RenderFunc

	snapshot *models.Session
	overlay  *Overlay
	cancel   func()
}

// NewView attaches a player view to a session: subscribes, renders the
// initial snapshot, and keeps rendering on every change.
func NewView(sessions store.Sessions, protocol Protocol, sessionID, uid string, render RenderFunc) *View {
	v := &View{
		protocol:  protocol,
		sessionID: sessionID,
		uid:       uid,
		render:    render,
	}
	v.cancel = sessions.Subscribe(sessionID, v.onSnapshot)
	return v
}

// NewSpectatorView attaches a read-only view: pure subscribe-and-render,
// no write capability.
func NewSpectatorView(sessions store.Sessions, sessionID string, render RenderFunc) *View {
	return NewView(sessions, nil, sessionID, "", render)
}

// Close detaches the subscription.
func (v *View) Close() {
	if v.cancel != nil {
		v.cancel()
	}
}

// Snapshot returns the last authoritative snapshot.
func (v *View) Snapshot() *models.Session {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot
}

// Me returns the local player as currently rendered: the overlay if one is
// pending, otherwise the snapshot's copy.
func (v *View) Me() *models.Player {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.overlay != nil {
		p := v.overlay.Player
		return &p
	}
	if v.snapshot == nil {
		return nil
	}
	return v.snapshot.FindPlayer(v.uid)
}

// onSnapshot is the subscription callback: the snapshot fully replaces
// local state, and the overlay is dropped when any of its three anchors
// moved; the player uid, the session id, or the server-confirmed history
// length. That last one is what stops a stale overlay from masking a
// legitimate server-side change arriving from another path.
func (v *View) onSnapshot(s *models.Session) {
	v.mu.Lock()
	v.snapshot = s

	if v.overlay != nil {
		switch {
		case s == nil:
			v.overlay = nil
		case v.overlay.UID != v.uid || v.overlay.SessionID != s.ID:
			v.overlay = nil
		default:
			me := s.FindPlayer(v.uid)
			if me == nil || me.HistoryLen(s.Game) != v.overlay.BaseSets {
				v.overlay = nil
			}
		}
	}

	snap, overlay := v.snapshot, v.overlay
	v.mu.Unlock()

	v.render(snap, overlay)
}

// SubmitMakes records one set: the engine result is rendered immediately
// as an optimistic overlay, then the real submission goes out. On failure
// the overlay is discarded and the error surfaced; on success the next
// authoritative snapshot clears it.
func (v *View) SubmitMakes(ctx context.Context, makes int) error {
	if v.protocol == nil || v.uid == "" {
		return ErrSpectator
	}

	v.mu.Lock()
	if v.snapshot == nil {
		v.mu.Unlock()
		return ErrNotJoined
	}
	me := v.snapshot.FindPlayer(v.uid)
	if me == nil {
		v.mu.Unlock()
		return ErrNotJoined
	}

	optimistic := *me
	points, changed := optimistic.ApplySet(v.snapshot.Game, makes)
	if !changed {
		// Round already capped; nothing to render, nothing to send.
		v.mu.Unlock()
		return nil
	}
	optimistic.TotalPoints += points
	if optimistic.Finished(v.snapshot.Game) {
		optimistic.Status = models.StatusDone
	}

	v.overlay = &Overlay{
		SessionID: v.snapshot.ID,
		UID:       v.uid,
		BaseSets:  me.HistoryLen(v.snapshot.Game),
		Player:    optimistic,
	}
	snap, overlay := v.snapshot, v.overlay
	v.mu.Unlock()

	v.render(snap, overlay)

	if _, err := v.protocol.SubmitScore(ctx, v.sessionID, v.uid, makes); err != nil {
		v.mu.Lock()
		v.overlay = nil
		snap, overlay = v.snapshot, v.overlay
		v.mu.Unlock()

		v.render(snap, overlay)
		return err
	}
	return nil
}
