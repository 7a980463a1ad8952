package games

// RaceTarget is the total a race player is climbing toward.
const RaceTarget = 50

// RaceSet records one set and the (capped) running total after it.
type RaceSet struct {
	Makes  int `json:"makes"`
	Points int `json:"points"`
	Total  int `json:"total"`
}

// RaceState is the race-to-50 state.
type RaceState struct {
	Total   int       `json:"total"`
	Target  int       `json:"target"`
	History []RaceSet `json:"history"`
}

// NewRace returns the zero state with the standard target.
func NewRace() *RaceState {
	return &RaceState{Target: RaceTarget}
}

// Apply plays one set. The total is capped at the target but the set's
// points are always the makes thrown, so a 48→50 set with 5 makes still
// records 5 points. The receiver is never mutated.
func (s *RaceState) Apply(makes int) (*RaceState, int) {
	if s == nil {
		s = NewRace()
	}
	makes = ClampMakes(makes)
	points := makes

	target := s.Target
	if target == 0 {
		target = RaceTarget
	}
	total := s.Total + makes
	if total > target {
		total = target
	}

	history := make([]RaceSet, len(s.History), len(s.History)+1)
	copy(history, s.History)
	history = append(history, RaceSet{Makes: makes, Points: points, Total: total})

	return &RaceState{Total: total, Target: target, History: history}, points
}

// Points sums the points over the full history.
func (s *RaceState) Points() int {
	if s == nil {
		return 0
	}
	sum := 0
	for _, set := range s.History {
		sum += set.Points
	}
	return sum
}
