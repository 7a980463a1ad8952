package models

import (
	"time"

	"putt-session-system/games"
)

// LeaderboardEntry is one append-only row written per (session, player)
// when a session is closed. Name/Game/Points are denormalized so the row
// survives the source session being deleted. Rows are never updated in
// place; a re-run of EndSession appends duplicates, which the read-side
// aggregation tolerates.
type LeaderboardEntry struct {
	ID         string     `json:"id" gorm:"primaryKey"`
	SessionID  string     `json:"session_id" gorm:"index"`
	UID        string     `json:"uid" gorm:"index"`
	Name       string     `json:"name"`
	Game       games.Game `json:"game" gorm:"index"`
	Points     int        `json:"points"`
	RecordedAt time.Time  `json:"recorded_at" gorm:"autoCreateTime;index"`
}

// UserStats is a best-effort per-user counter table maintained by a
// background worker from leaderboard rows. Never consulted for session
// correctness; it can lag or miss a batch without breaking play.
type UserStats struct {
	UID            string    `json:"uid" gorm:"primaryKey"`
	Name           string    `json:"name"`
	SessionsPlayed int64     `json:"sessions_played" gorm:"default:0"`
	TotalPoints    int64     `json:"total_points" gorm:"default:0"`
	BestSession    int64     `json:"best_session" gorm:"default:0"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
