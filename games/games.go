package games

// Game identifies one of the supported putting game variants.
type Game string

const (
	Jyly   Game = "JYLY"   // distance game, 20 sets, points scale with distance
	Atw    Game = "ATW"    // around the world: fixed station cycle, 1p per make
	Ladder Game = "LADDER" // single distance moving up/down with performance
	T21    Game = "T21"    // count to 21, overshooting drops back to 15
	Race   Game = "RACE"   // first to 50, total capped at the target
)

// All lists every playable variant.
var All = []Game{Jyly, Atw, Ladder, T21, Race}

// Valid reports whether g is a known variant.
func Valid(g Game) bool {
	for _, v := range All {
		if g == v {
			return true
		}
	}
	return false
}

// SetSize is the number of putts thrown per set in every variant.
const SetSize = 5

// ClampMakes forces a makes count into [0, SetSize]. Out-of-range values are
// clamped rather than rejected; only non-numeric input is treated as a
// client error, and that never reaches the engines.
func ClampMakes(makes int) int {
	if makes < 0 {
		return 0
	}
	if makes > SetSize {
		return SetSize
	}
	return makes
}
