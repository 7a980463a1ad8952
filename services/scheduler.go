// services/scheduler.go
package services

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"

	"putt-session-system/models"
)

// RetentionService prunes session rows nobody needs anymore. Leaderboard
// rows are denormalized and deliberately survive every prune.
type RetentionService struct {
	DB *gorm.DB
}

func NewRetentionService(db *gorm.DB) *RetentionService {
	return &RetentionService{DB: db}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// StartRetentionScheduler runs hourly: closed sessions past the retention
// window are deleted, and lobbies nobody ever joined are expired.
func (s *RetentionService) StartRetentionScheduler() {
	retentionDays := envInt("SESSION_RETENTION_DAYS", 30)
	lobbyTTLHours := envInt("LOBBY_TTL_HOURS", 24)

	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			closedBefore := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)
			res := s.DB.Where("status = ? AND updated_at < ?", models.StatusClosed, closedBefore).
				Delete(&models.Session{})
			if res.Error != nil {
				log.Printf("[Retention] failed to prune closed sessions: %v", res.Error)
			} else if res.RowsAffected > 0 {
				log.Printf("[Retention] pruned %d closed session(s)", res.RowsAffected)
			}

			staleBefore := time.Now().Add(-time.Duration(lobbyTTLHours) * time.Hour)
			res = s.DB.Where("status = ? AND created_at < ?", models.StatusLobby, staleBefore).
				Delete(&models.Session{})
			if res.Error != nil {
				log.Printf("[Retention] failed to expire stale lobbies: %v", res.Error)
			} else if res.RowsAffected > 0 {
				log.Printf("[Retention] expired %d stale lobby session(s)", res.RowsAffected)
			}
		}),
	)
}
