package games

const (
	// JylyStartDistance is the opening distance in meters.
	JylyStartDistance = 10
	// JylyMaxSets is the number of sets in a full round. Apply is a no-op
	// once the history is full.
	JylyMaxSets = 20
)

// JylySet records one played set: the distance that was in effect when the
// set was thrown, not the distance it moved to afterwards.
type JylySet struct {
	DistanceM int `json:"distance_m"`
	Makes     int `json:"makes"`
	Points    int `json:"points"`
}

// JylyState is the per-player state of the distance game.
type JylyState struct {
	DistanceM int       `json:"distance_m"`
	History   []JylySet `json:"history"`
}

// NewJyly returns the zero state: 10m, empty history.
func NewJyly() *JylyState {
	return &JylyState{DistanceM: JylyStartDistance}
}

// JylyScorePerMake returns the points one make is worth at the given
// distance: 10m=10, 9m=9, ... 5m=5, clamped at both ends.
func JylyScorePerMake(distanceM int) int {
	if distanceM < 5 {
		return 5
	}
	if distanceM > 10 {
		return 10
	}
	return distanceM
}

// JylyNextDistance maps this set's makes count to the next distance.
// More makes always means farther out.
func JylyNextDistance(makes int) int {
	switch ClampMakes(makes) {
	case 0:
		return 5
	case 1:
		return 6
	case 2:
		return 7
	case 3:
		return 8
	case 4:
		return 9
	default:
		return 10
	}
}

// Apply plays one set of makes and returns the next state plus the points
// scored. The receiver is never mutated. Once the round is complete the
// same state comes back with zero points.
func (s *JylyState) Apply(makes int) (*JylyState, int) {
	if s == nil {
		s = NewJyly()
	}
	if len(s.History) >= JylyMaxSets {
		return s, 0
	}

	makes = ClampMakes(makes)
	distance := s.DistanceM
	if distance == 0 {
		distance = JylyStartDistance
	}
	points := makes * JylyScorePerMake(distance)

	history := make([]JylySet, len(s.History), len(s.History)+1)
	copy(history, s.History)
	history = append(history, JylySet{DistanceM: distance, Makes: makes, Points: points})

	return &JylyState{DistanceM: JylyNextDistance(makes), History: history}, points
}

// Points sums the points over the full history.
func (s *JylyState) Points() int {
	if s == nil {
		return 0
	}
	sum := 0
	for _, set := range s.History {
		sum += set.Points
	}
	return sum
}

// Finished reports whether the full round has been played.
func (s *JylyState) Finished() bool {
	return s != nil && len(s.History) >= JylyMaxSets
}
