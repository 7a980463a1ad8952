package games

// AtwSet records one set played from a station.
type AtwSet struct {
	StationDistanceM int `json:"station_distance_m"`
	Makes            int `json:"makes"`
	Points           int `json:"points"`
}

// AtwState is the around-the-world state: a fixed station list and a cursor
// that advances cyclically, one set per station. There is no terminal
// condition; callers decide when to stop.
type AtwState struct {
	Station  int      `json:"station"`
	Stations []int    `json:"stations"`
	History  []AtwSet `json:"history"`
}

// NewAtw returns the zero state with the standard 5..10m station cycle.
func NewAtw() *AtwState {
	return &AtwState{Stations: []int{5, 6, 7, 8, 9, 10}}
}

// Apply plays one set at the current station, 1 point per make, and moves
// the cursor to the next station. The receiver is never mutated.
func (s *AtwState) Apply(makes int) (*AtwState, int) {
	if s == nil || len(s.Stations) == 0 {
		s = NewAtw()
	}
	makes = ClampMakes(makes)
	points := makes

	station := s.Station % len(s.Stations)
	history := make([]AtwSet, len(s.History), len(s.History)+1)
	copy(history, s.History)
	history = append(history, AtwSet{StationDistanceM: s.Stations[station], Makes: makes, Points: points})

	return &AtwState{
		Station:  (station + 1) % len(s.Stations),
		Stations: s.Stations,
		History:  history,
	}, points
}

// Points sums the points over the full history.
func (s *AtwState) Points() int {
	if s == nil {
		return 0
	}
	sum := 0
	for _, set := range s.History {
		sum += set.Points
	}
	return sum
}
