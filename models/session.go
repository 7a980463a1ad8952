package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"putt-session-system/games"
)

// Session status values. The lifecycle is one-way: lobby → live → closed.
const (
	StatusLobby  = "lobby"
	StatusLive   = "live"
	StatusClosed = "closed"
	// StatusDone is a player-only status set when a variant's own
	// completion condition is reached. Advisory; drives the "finished"
	// badge, nothing else.
	StatusDone = "done"
)

// Session is the aggregate root for one game room. The whole player list
// lives in a single jsonb column so every mutation is a read-modify-write
// of one row; Version is bumped on each committed update and stands in for
// a document store's transaction token.
type Session struct {
	ID        string     `json:"id" gorm:"primaryKey"`
	Code      string     `json:"code" gorm:"size:8;index"`
	Slug      string     `json:"slug"`
	OwnerUID  string     `json:"owner_uid" gorm:"not null;index"`
	Game      games.Game `json:"game" gorm:"not null"`
	Name      string     `json:"name"`
	Status    string     `json:"status" gorm:"default:'lobby';index"`
	Players   PlayerList `json:"players" gorm:"type:jsonb"`
	Version   int64      `json:"version" gorm:"default:0"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// Open reports whether the session still accepts joins and scores.
func (s *Session) Open() bool {
	return s.Status == StatusLobby || s.Status == StatusLive
}

// FindPlayer returns the player with the given uid, or nil.
func (s *Session) FindPlayer(uid string) *Player {
	for i := range s.Players {
		if s.Players[i].UID == uid {
			return &s.Players[i]
		}
	}
	return nil
}

// AllFinished reports whether every joined player has completed the
// session's game. False for an empty player list.
func (s *Session) AllFinished() bool {
	if len(s.Players) == 0 {
		return false
	}
	for i := range s.Players {
		if !s.Players[i].Finished(s.Game) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy. Snapshots handed to subscribers must never
// share player state with the copy the store keeps mutating.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		// Session only holds plain data; this cannot fail on real documents.
		panic(fmt.Sprintf("session clone: %v", err))
	}
	out := &Session{}
	if err := json.Unmarshal(raw, out); err != nil {
		panic(fmt.Sprintf("session clone: %v", err))
	}
	return out
}

// Player is one participant embedded in a session document. Exactly one of
// the variant state pointers is populated, matching Session.Game.
type Player struct {
	UID         string    `json:"uid"`
	Name        string    `json:"name"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	TotalPoints int       `json:"total_points"`
	Status      string    `json:"status,omitempty"`
	JoinedAt    time.Time `json:"joined_at,omitempty"`

	Jyly   *games.JylyState   `json:"jyly,omitempty"`
	Atw    *games.AtwState    `json:"atw,omitempty"`
	Ladder *games.LadderState `json:"ladder,omitempty"`
	T21    *games.T21State    `json:"t21,omitempty"`
	Race   *games.RaceState   `json:"race,omitempty"`
}

// EnsureState populates the variant state for g with its zero value if the
// player doesn't have one yet.
func (p *Player) EnsureState(g games.Game) {
	switch g {
	case games.Jyly:
		if p.Jyly == nil {
			p.Jyly = games.NewJyly()
		}
	case games.Atw:
		if p.Atw == nil {
			p.Atw = games.NewAtw()
		}
	case games.Ladder:
		if p.Ladder == nil {
			p.Ladder = games.NewLadder()
		}
	case games.T21:
		if p.T21 == nil {
			p.T21 = games.NewT21()
		}
	case games.Race:
		if p.Race == nil {
			p.Race = games.NewRace()
		}
	}
}

// ApplySet runs the matching scoring engine for one set of makes and swaps
// in the returned state. It reports the points delta and whether anything
// changed; a JYLY player at the set cap is a clean no-op.
func (p *Player) ApplySet(g games.Game, makes int) (points int, changed bool) {
	p.EnsureState(g)
	switch g {
	case games.Jyly:
		if p.Jyly.Finished() {
			return 0, false
		}
		p.Jyly, points = p.Jyly.Apply(makes)
	case games.Atw:
		p.Atw, points = p.Atw.Apply(makes)
	case games.Ladder:
		p.Ladder, points = p.Ladder.Apply(makes)
	case games.T21:
		p.T21, points = p.T21.Apply(makes)
	case games.Race:
		p.Race, points = p.Race.Apply(makes)
	default:
		return 0, false
	}
	return points, true
}

// Finished reports whether the variant's own completion condition holds.
// Only JYLY defines one; the other variants run until the group stops.
func (p *Player) Finished(g games.Game) bool {
	if g == games.Jyly {
		return p.Jyly.Finished()
	}
	return false
}

// HistoryLen returns the number of recorded sets for the session's game.
func (p *Player) HistoryLen(g games.Game) int {
	switch g {
	case games.Jyly:
		if p.Jyly != nil {
			return len(p.Jyly.History)
		}
	case games.Atw:
		if p.Atw != nil {
			return len(p.Atw.History)
		}
	case games.Ladder:
		if p.Ladder != nil {
			return len(p.Ladder.History)
		}
	case games.T21:
		if p.T21 != nil {
			return len(p.T21.History)
		}
	case games.Race:
		if p.Race != nil {
			return len(p.Race.History)
		}
	}
	return 0
}

// Points recomputes the player's score from the recorded history. Must
// always agree with TotalPoints.
func (p *Player) Points(g games.Game) int {
	switch g {
	case games.Jyly:
		return p.Jyly.Points()
	case games.Atw:
		return p.Atw.Points()
	case games.Ladder:
		return p.Ladder.Points()
	case games.T21:
		return p.T21.Points()
	case games.Race:
		return p.Race.Points()
	}
	return 0
}

// PlayerList stores the embedded player documents as one jsonb column.
type PlayerList []Player

// Value implements driver.Valuer for GORM.
func (pl PlayerList) Value() (driver.Value, error) {
	if pl == nil {
		pl = PlayerList{}
	}
	return json.Marshal(pl)
}

// Scan implements sql.Scanner for GORM.
func (pl *PlayerList) Scan(value interface{}) error {
	if value == nil {
		*pl = PlayerList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, pl)
	case string:
		return json.Unmarshal([]byte(v), pl)
	default:
		return errors.New("players column: unsupported scan type")
	}
}
