package games

const (
	t21Target  = 21
	t21Setback = 15
)

// T21Set records one set and the running total after it was applied.
type T21Set struct {
	Makes  int `json:"makes"`
	Points int `json:"points"`
	Total  int `json:"total"`
}

// T21State is the count-to-21 state.
type T21State struct {
	Total   int      `json:"total"`
	History []T21Set `json:"history"`
}

// NewT21 returns the zero state.
func NewT21() *T21State {
	return &T21State{}
}

// Apply plays one set: the total grows by makes, and overshooting 21 drops
// the total back to 15; a setback, not a full reset. Points for the set
// are still the makes thrown. The receiver is never mutated.
func (s *T21State) Apply(makes int) (*T21State, int) {
	if s == nil {
		s = NewT21()
	}
	makes = ClampMakes(makes)
	points := makes

	total := s.Total + makes
	if total > t21Target {
		total = t21Setback
	}

	history := make([]T21Set, len(s.History), len(s.History)+1)
	copy(history, s.History)
	history = append(history, T21Set{Makes: makes, Points: points, Total: total})

	return &T21State{Total: total, History: history}, points
}

// Points sums the points over the full history.
func (s *T21State) Points() int {
	if s == nil {
		return 0
	}
	sum := 0
	for _, set := range s.History {
		sum += set.Points
	}
	return sum
}
