package games

const (
	ladderStartDistance = 5
	ladderMinDistance   = 4
	ladderMaxDistance   = 12
)

// LadderSet records one set at the distance it was thrown from.
type LadderSet struct {
	DistanceM int `json:"distance_m"`
	Makes     int `json:"makes"`
	Points    int `json:"points"`
}

// LadderState is the ladder game state: a single distance that climbs on a
// good set and falls back on a bad one.
type LadderState struct {
	DistanceM int         `json:"distance_m"`
	History   []LadderSet `json:"history"`
}

// NewLadder returns the zero state at 5m.
func NewLadder() *LadderState {
	return &LadderState{DistanceM: ladderStartDistance}
}

// Apply plays one set: 1 point per make; makes >= 3 moves out a meter,
// makes <= 1 moves in a meter, bounded to [4,12]. The receiver is never
// mutated.
func (s *LadderState) Apply(makes int) (*LadderState, int) {
	if s == nil {
		s = NewLadder()
	}
	makes = ClampMakes(makes)
	points := makes

	distance := s.DistanceM
	if distance == 0 {
		distance = ladderStartDistance
	}

	next := distance
	switch {
	case makes >= 3:
		next++
	case makes <= 1:
		next--
	}
	if next < ladderMinDistance {
		next = ladderMinDistance
	}
	if next > ladderMaxDistance {
		next = ladderMaxDistance
	}

	history := make([]LadderSet, len(s.History), len(s.History)+1)
	copy(history, s.History)
	history = append(history, LadderSet{DistanceM: distance, Makes: makes, Points: points})

	return &LadderState{DistanceM: next, History: history}, points
}

// Points sums the points over the full history.
func (s *LadderState) Points() int {
	if s == nil {
		return 0
	}
	sum := 0
	for _, set := range s.History {
		sum += set.Points
	}
	return sum
}
