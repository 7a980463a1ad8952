package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"putt-session-system/games"
	"putt-session-system/models"
)

// Memory is an in-process Sessions implementation with the same contract
// as Postgres: Update is atomic per document (a single store mutex stands
// in for the row lock) and watchers get full snapshots after each commit.
// Used by tests and local development without a database.
type Memory struct {
	mu   sync.Mutex
	docs map[string]*models.Session
	hub  *hub
}

func NewMemory() *Memory {
	return &Memory{docs: map[string]*models.Session{}, hub: newHub()}
}

func (m *Memory) Create(_ context.Context, s *models.Session) (string, error) {
	m.mu.Lock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Players == nil {
		s.Players = models.PlayerList{}
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	s.UpdatedAt = s.CreatedAt
	m.docs[s.ID] = s.Clone()
	m.mu.Unlock()

	m.notifyOpenList()
	return s.ID, nil
}

func (m *Memory) Get(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *Memory) Update(_ context.Context, id string, fn func(*models.Session) (bool, error)) (*models.Session, error) {
	m.mu.Lock()
	cur, ok := m.docs[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}

	work := cur.Clone()
	changed, err := fn(work)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if !changed {
		m.mu.Unlock()
		return work, nil
	}

	work.Version++
	work.UpdatedAt = time.Now().UTC()
	m.docs[id] = work.Clone()
	m.mu.Unlock()

	m.hub.publish(id, work)
	m.notifyOpenList()
	return work, nil
}

func (m *Memory) FindByCode(_ context.Context, code string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *models.Session
	for _, s := range m.docs {
		if s.Code != code {
			continue
		}
		if best == nil || s.CreatedAt.After(best.CreatedAt) {
			best = s
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best.Clone(), nil
}

func (m *Memory) ListOpen(_ context.Context, limit int) ([]*models.Session, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	m.mu.Lock()
	open := make([]*models.Session, 0, len(m.docs))
	for _, s := range m.docs {
		if s.Open() {
			open = append(open, s.Clone())
		}
	}
	m.mu.Unlock()

	sort.Slice(open, func(i, j int) bool {
		return open[i].CreatedAt.After(open[j].CreatedAt)
	})
	if len(open) > limit {
		open = open[:limit]
	}
	return open, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.docs, id)
	m.mu.Unlock()

	m.hub.publish(id, nil)
	m.notifyOpenList()
	return nil
}

func (m *Memory) Subscribe(id string, fn func(*models.Session)) func() {
	cancel := m.hub.subscribe(id, fn)
	if s, err := m.Get(context.Background(), id); err == nil {
		fn(s)
	} else {
		fn(nil)
	}
	return cancel
}

func (m *Memory) SubscribeOpen(fn func([]*models.Session)) func() {
	cancel := m.hub.subscribeOpen(fn)
	if list, err := m.ListOpen(context.Background(), MaxListLimit); err == nil {
		fn(list)
	}
	return cancel
}

func (m *Memory) notifyOpenList() {
	if !m.hub.hasListeners() {
		return
	}
	list, _ := m.ListOpen(context.Background(), MaxListLimit)
	m.hub.publishOpen(list)
}

// MemoryLeaderboard is the in-process Leaderboard counterpart.
type MemoryLeaderboard struct {
	mu   sync.Mutex
	rows []models.LeaderboardEntry
}

func NewMemoryLeaderboard() *MemoryLeaderboard {
	return &MemoryLeaderboard{}
}

func (l *MemoryLeaderboard) Append(_ context.Context, rows []models.LeaderboardEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range rows {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.RecordedAt.IsZero() {
			r.RecordedAt = time.Now().UTC()
		}
		l.rows = append(l.rows, r)
	}
	return nil
}

func (l *MemoryLeaderboard) Recent(_ context.Context, since time.Time, game games.Game, limit int) ([]models.LeaderboardEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []models.LeaderboardEntry{}
	for i := len(l.rows) - 1; i >= 0 && len(out) < limit; i-- {
		r := l.rows[i]
		if r.RecordedAt.Before(since) {
			continue
		}
		if game != "" && r.Game != game {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
