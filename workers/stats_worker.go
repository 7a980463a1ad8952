package workers

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"putt-session-system/models"
)

// StatsClient folds freshly appended leaderboard rows into the per-user
// counter table. The counters are best-effort and additive: a missed batch
// is picked up on the next tick, and nothing in live play depends on them.
type StatsClient struct {
	DB *gorm.DB
}

func NewStatsClient(db *gorm.DB) *StatsClient {
	return &StatsClient{DB: db}
}

// GetNewEntries returns leaderboard rows recorded since the given time,
// oldest first so the fold is stable.
func (c *StatsClient) GetNewEntries(ctx context.Context, since time.Time) ([]models.LeaderboardEntry, error) {
	var rows []models.LeaderboardEntry
	err := c.DB.WithContext(ctx).
		Where("recorded_at > ?", since).
		Order("recorded_at ASC").
		Find(&rows).Error
	return rows, err
}

// ApplyEntries upserts the aggregate deltas per user. Duplicate rows from a
// re-run EndSession inflate the counters slightly; accepted, these are
// vanity numbers, not money.
func (c *StatsClient) ApplyEntries(ctx context.Context, rows []models.LeaderboardEntry) error {
	type delta struct {
		name     string
		sessions int64
		points   int64
		best     int64
	}
	deltas := map[string]*delta{}
	order := []string{}
	for _, r := range rows {
		d, ok := deltas[r.UID]
		if !ok {
			d = &delta{}
			deltas[r.UID] = d
			order = append(order, r.UID)
		}
		d.name = r.Name
		d.sessions++
		d.points += int64(r.Points)
		if int64(r.Points) > d.best {
			d.best = int64(r.Points)
		}
	}

	for _, uid := range order {
		d := deltas[uid]
		stats := models.UserStats{
			UID:            uid,
			Name:           d.name,
			SessionsPlayed: d.sessions,
			TotalPoints:    d.points,
			BestSession:    d.best,
		}
		err := c.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "uid"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"name":            d.name,
				"sessions_played": gorm.Expr("user_stats.sessions_played + ?", d.sessions),
				"total_points":    gorm.Expr("user_stats.total_points + ?", d.points),
				"best_session":    gorm.Expr("GREATEST(user_stats.best_session, ?)", d.best),
				"updated_at":      time.Now().UTC(),
			}),
		}).Create(&stats).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// PollStats periodically folds new leaderboard rows into user stats.
func PollStats(ctx context.Context, client *StatsClient, pollInterval time.Duration) {
	log.Println("Starting user stats polling...")
	lastSyncTime := time.Now().UTC()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("User stats polling stopped.")
			return
		case <-ticker.C:
			tickTime := time.Now().UTC()

			rows, err := client.GetNewEntries(ctx, lastSyncTime)
			if err != nil {
				log.Printf("[Stats] error fetching new leaderboard rows: %v", err)
				continue
			}
			if len(rows) == 0 {
				continue
			}

			if err := client.ApplyEntries(ctx, rows); err != nil {
				log.Printf("[Stats] failed to apply %d row(s): %v", len(rows), err)
				// Do NOT advance lastSyncTime on failure; retry the same
				// window next tick.
				continue
			}

			lastSyncTime = tickTime
			log.Printf("[Stats] folded %d leaderboard row(s) into user stats", len(rows))
		}
	}
}
