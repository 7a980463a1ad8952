package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"golang.org/x/text/unicode/norm"

	"putt-session-system/games"
	"putt-session-system/models"
	"putt-session-system/store"
)

var (
	ErrUnknownGame   = errors.New("unknown game variant")
	ErrSessionClosed = errors.New("session is closed")
	ErrPlayerNotFound = errors.New("player not in session")
)

// Archiver is the optional object-storage hook invoked with the final
// document when a session closes. Failures are logged, never surfaced.
type Archiver interface {
	ArchiveSession(ctx context.Context, s *models.Session) error
}

// SessionService carries the whole session protocol. All mutations go
// through the store's transactional Update; the service itself holds no
// session state and adds no locking of its own.
type SessionService struct {
	Sessions    store.Sessions
	Leaderboard store.Leaderboard
	Archiver    Archiver
}

func NewSessionService(sessions store.Sessions, leaderboard store.Leaderboard) *SessionService {
	return &SessionService{Sessions: sessions, Leaderboard: leaderboard}
}

// codeAlphabet leaves out the characters people misread on a paper scorecard
// (I, L, O, Y, 0). Codes are effectively unique: collisions are not checked
// at creation because the space is huge next to the count of open rooms,
// and a collision only misdirects a join, it corrupts nothing.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXZ123456789"

const codeLength = 5

// NewJoinCode returns a fresh 5-character join code.
func NewJoinCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// NormalizeCode upper-cases and trims a user-typed join code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateSession opens a new room in lobby state. The owner is not added as
// a player; they join like everyone else.
func (s *SessionService) CreateSession(ctx context.Context, ownerUID string, game games.Game, name string) (*models.Session, error) {
	if !games.Valid(game) {
		return nil, ErrUnknownGame
	}
	sess := &models.Session{
		Code:     NewJoinCode(),
		Slug:     slug.Make(name),
		OwnerUID: ownerUID,
		Game:     game,
		Name:     name,
		Status:   models.StatusLobby,
		Players:  models.PlayerList{},
	}
	if _, err := s.Sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// JoinByCode resolves a join code with a one-shot query and joins. The
// code→id mapping is not a live index; see the collision note on
// NewJoinCode for why a stale mapping is an accepted risk.
func (s *SessionService) JoinByCode(ctx context.Context, code string, player models.Player) (*models.Session, error) {
	sess, err := s.Sessions.FindByCode(ctx, NormalizeCode(code))
	if err != nil {
		return nil, err
	}
	return s.JoinByID(ctx, sess.ID, player)
}

// JoinByID adds the player inside the store transaction, so two people
// joining at once both land in the list. Joining twice is idempotent: only
// the display fields refresh, accumulated state and points stay untouched.
func (s *SessionService) JoinByID(ctx context.Context, id string, player models.Player) (*models.Session, error) {
	name := norm.NFC.String(strings.TrimSpace(player.Name))

	return s.Sessions.Update(ctx, id, func(sess *models.Session) (bool, error) {
		if !sess.Open() {
			return false, ErrSessionClosed
		}

		if existing := sess.FindPlayer(player.UID); existing != nil {
			// Rejoin: refresh display fields only, never blank them.
			if name != "" {
				existing.Name = name
			}
			if player.PhotoURL != "" {
				existing.PhotoURL = player.PhotoURL
			}
			sess.Status = models.StatusLive
			return true, nil
		}

		p := models.Player{
			UID:      player.UID,
			Name:     name,
			PhotoURL: player.PhotoURL,
			Status:   models.StatusLive,
			JoinedAt: time.Now().UTC(),
		}
		p.EnsureState(sess.Game)
		sess.Players = append(sess.Players, p)
		sess.Status = models.StatusLive
		return true, nil
	})
}

// SubmitScore records one set of makes for a player. The engine runs
// inside the transaction, so two players scoring at once both land, and a
// double-tapped submit on a capped JYLY round is a no-op rather than a
// double-apply. Closed sessions ignore submissions.
func (s *SessionService) SubmitScore(ctx context.Context, id string, uid string, makes int) (*models.Session, error) {
	sess, err := s.Sessions.Update(ctx, id, func(sess *models.Session) (bool, error) {
		if sess.Status == models.StatusClosed {
			return false, nil
		}
		player := sess.FindPlayer(uid)
		if player == nil {
			return false, ErrPlayerNotFound
		}

		points, changed := player.ApplySet(sess.Game, makes)
		if !changed {
			return false, nil
		}
		player.TotalPoints += points
		if player.Finished(sess.Game) {
			player.Status = models.StatusDone
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	// The distance game closes itself once the whole group is done; the
	// other variants only end when the owner says so.
	if sess.Game == games.Jyly && sess.Open() && sess.AllFinished() {
		closed, err := s.EndSession(ctx, id)
		if err != nil {
			log.Printf("[session] auto-close of %s failed: %v", id, err)
			return sess, nil
		}
		sess = closed
	}
	return sess, nil
}

// EndSession closes the room and snapshots every player's final score into
// the append-only leaderboard. Re-running it is safe: the status write is
// a no-op and the appended rows are duplicates the read side tolerates;
// the accepted recovery for a partial fan-out is retrying the whole thing.
// Ownership is enforced at the HTTP layer, not re-checked here.
func (s *SessionService) EndSession(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.Sessions.Update(ctx, id, func(sess *models.Session) (bool, error) {
		if sess.Status == models.StatusClosed {
			return false, nil
		}
		sess.Status = models.StatusClosed
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rows := make([]models.LeaderboardEntry, 0, len(sess.Players))
	for _, p := range sess.Players {
		rows = append(rows, models.LeaderboardEntry{
			SessionID:  sess.ID,
			UID:        p.UID,
			Name:       p.Name,
			Game:       sess.Game,
			Points:     p.TotalPoints,
			RecordedAt: now,
		})
	}
	if err := s.Leaderboard.Append(ctx, rows); err != nil {
		return nil, fmt.Errorf("end session %s: %w", id, err)
	}

	if s.Archiver != nil {
		if err := s.Archiver.ArchiveSession(ctx, sess); err != nil {
			log.Printf("[session] archive of %s failed: %v", id, err)
		}
	}
	return sess, nil
}

// DeleteSession removes the room unconditionally. Leaderboard rows carry
// their own copies of everything and are intentionally left behind.
func (s *SessionService) DeleteSession(ctx context.Context, id string) error {
	return s.Sessions.Delete(ctx, id)
}

// GetSession is the spectator read: anyone with the id can look, nobody's
// player list changes.
func (s *SessionService) GetSession(ctx context.Context, id string) (*models.Session, error) {
	return s.Sessions.Get(ctx, id)
}

// ListOpenSessions returns the recency-ordered lobby/live listing.
func (s *SessionService) ListOpenSessions(ctx context.Context, limit int) ([]*models.Session, error) {
	return s.Sessions.ListOpen(ctx, limit)
}

// ObserveSession subscribes to a single room's snapshots.
func (s *SessionService) ObserveSession(id string, fn func(*models.Session)) func() {
	return s.Sessions.Subscribe(id, fn)
}

// ObserveOpenSessions subscribes to the open-room listing.
func (s *SessionService) ObserveOpenSessions(fn func([]*models.Session)) func() {
	return s.Sessions.SubscribeOpen(fn)
}

const (
	// leaderboardFetchLimit bounds how many rows one aggregation reads.
	leaderboardFetchLimit = 500
	// leaderboardTopN is the size of the returned ranking.
	leaderboardTopN = 20
	// leaderboardDefaultWindowDays is used when the caller passes 0.
	leaderboardDefaultWindowDays = 30
)

// LeaderboardRow is one ranked line of the global leaderboard.
type LeaderboardRow struct {
	UID      string `json:"uid"`
	Name     string `json:"name"`
	Points   int    `json:"points"`
	Sessions int    `json:"sessions"`
}

// FetchGlobalLeaderboard recomputes the global top list on every read from
// a bounded recent window of archive rows: filter by age and game, sum per
// player, sort, cut to the top 20. Duplicate rows from re-run EndSessions
// are simply summed rows like any other; the volume stays bounded by the
// query limit, so no maintained rollup is needed.
func (s *SessionService) FetchGlobalLeaderboard(ctx context.Context, windowDays int, game games.Game) ([]LeaderboardRow, error) {
	if windowDays <= 0 {
		windowDays = leaderboardDefaultWindowDays
	}
	since := time.Now().UTC().AddDate(0, 0, -windowDays)

	entries, err := s.Leaderboard.Recent(ctx, since, game, leaderboardFetchLimit)
	if err != nil {
		return nil, err
	}

	byUID := map[string]*LeaderboardRow{}
	order := []string{}
	for _, e := range entries {
		row, ok := byUID[e.UID]
		if !ok {
			// Entries arrive newest first, so the first name wins.
			row = &LeaderboardRow{UID: e.UID, Name: e.Name}
			byUID[e.UID] = row
			order = append(order, e.UID)
		}
		row.Points += e.Points
		row.Sessions++
	}

	out := make([]LeaderboardRow, 0, len(order))
	for _, uid := range order {
		out = append(out, *byUID[uid])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Points > out[j].Points
	})
	if len(out) > leaderboardTopN {
		out = out[:leaderboardTopN]
	}
	return out, nil
}
