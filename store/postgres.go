package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"putt-session-system/games"
	"putt-session-system/models"
)

// Postgres implements Sessions on a single sessions table. The player list
// is one jsonb column, so the row lock taken inside Update gives the same
// whole-document atomicity a document store's transaction would.
type Postgres struct {
	DB  *gorm.DB
	hub *hub
}

func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{DB: db, hub: newHub()}
}

// AutoMigrate creates/updates the tables this store owns.
func (p *Postgres) AutoMigrate() error {
	return p.DB.AutoMigrate(
		&models.Session{},
		&models.LeaderboardEntry{},
		&models.UserStats{},
	)
}

func (p *Postgres) Create(ctx context.Context, s *models.Session) (string, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Players == nil {
		s.Players = models.PlayerList{}
	}
	if err := p.DB.WithContext(ctx).Create(s).Error; err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	p.notifyOpenList()
	return s.ID, nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	if err := p.DB.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

func (p *Postgres) Update(ctx context.Context, id string, fn func(*models.Session) (bool, error)) (*models.Session, error) {
	var out *models.Session
	var changed bool

	err := p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s models.Session
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&s, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		changed, err = fn(&s)
		if err != nil {
			return err
		}
		if !changed {
			out = &s
			return nil
		}

		s.Version++
		if err := tx.Save(&s).Error; err != nil {
			return err
		}
		out = &s
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update session: %w", err)
	}

	if changed {
		p.hub.publish(id, out)
		p.notifyOpenList()
	}
	return out, nil
}

func (p *Postgres) FindByCode(ctx context.Context, code string) (*models.Session, error) {
	var s models.Session
	err := p.DB.WithContext(ctx).
		Where("code = ?", code).
		Order("created_at DESC").
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find session by code: %w", err)
	}
	return &s, nil
}

func (p *Postgres) ListOpen(ctx context.Context, limit int) ([]*models.Session, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	var rows []*models.Session
	err := p.DB.WithContext(ctx).
		Where("status IN ?", []string{models.StatusLobby, models.StatusLive}).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list open sessions: %w", err)
	}
	return rows, nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	if err := p.DB.WithContext(ctx).Delete(&models.Session{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	p.hub.publish(id, nil)
	p.notifyOpenList()
	return nil
}

func (p *Postgres) Subscribe(id string, fn func(*models.Session)) func() {
	cancel := p.hub.subscribe(id, fn)
	// Initial delivery after registration; a duplicate snapshot is harmless
	// because every delivery carries the full document.
	if s, err := p.Get(context.Background(), id); err == nil {
		fn(s)
	} else if errors.Is(err, ErrNotFound) {
		fn(nil)
	}
	return cancel
}

func (p *Postgres) SubscribeOpen(fn func([]*models.Session)) func() {
	cancel := p.hub.subscribeOpen(fn)
	if list, err := p.ListOpen(context.Background(), MaxListLimit); err == nil {
		fn(list)
	}
	return cancel
}

func (p *Postgres) notifyOpenList() {
	if !p.hub.hasListeners() {
		return
	}
	list, err := p.ListOpen(context.Background(), MaxListLimit)
	if err != nil {
		log.Printf("[store] open-list refresh failed: %v", err)
		return
	}
	p.hub.publishOpen(list)
}

// PostgresLeaderboard implements the append-only leaderboard archive.
type PostgresLeaderboard struct {
	DB *gorm.DB
}

func NewPostgresLeaderboard(db *gorm.DB) *PostgresLeaderboard {
	return &PostgresLeaderboard{DB: db}
}

func (l *PostgresLeaderboard) Append(ctx context.Context, rows []models.LeaderboardEntry) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
		if rows[i].RecordedAt.IsZero() {
			rows[i].RecordedAt = time.Now().UTC()
		}
	}
	if err := l.DB.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("append leaderboard rows: %w", err)
	}
	return nil
}

func (l *PostgresLeaderboard) Recent(ctx context.Context, since time.Time, game games.Game, limit int) ([]models.LeaderboardEntry, error) {
	q := l.DB.WithContext(ctx).
		Where("recorded_at >= ?", since).
		Order("recorded_at DESC").
		Limit(limit)
	if game != "" {
		q = q.Where("game = ?", game)
	}
	var rows []models.LeaderboardEntry
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("recent leaderboard rows: %w", err)
	}
	return rows, nil
}
