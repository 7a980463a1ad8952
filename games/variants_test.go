package games

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtwStationCycle(t *testing.T) {
	s := NewAtw()
	distances := []int{}
	for i := 0; i < 8; i++ {
		var points int
		s, points = s.Apply(2)
		assert.Equal(t, 2, points)
		distances = append(distances, s.History[i].StationDistanceM)
	}
	// One full cycle and wrap back to the start.
	assert.Equal(t, []int{5, 6, 7, 8, 9, 10, 5, 6}, distances)
	assert.Equal(t, 16, s.Points())
}

func TestLadderMovesAndBounds(t *testing.T) {
	s := NewLadder()
	assert.Equal(t, 5, s.DistanceM)

	s, points := s.Apply(4) // good set, move out
	assert.Equal(t, 4, points)
	assert.Equal(t, 6, s.DistanceM)

	s, _ = s.Apply(2) // middling set, stay
	assert.Equal(t, 6, s.DistanceM)

	s, _ = s.Apply(0) // bad set, move in
	assert.Equal(t, 5, s.DistanceM)

	// Distance never drops below 4m no matter how bad it gets.
	for i := 0; i < 5; i++ {
		s, _ = s.Apply(0)
	}
	assert.Equal(t, 4, s.DistanceM)

	// ...and never climbs past 12m.
	for i := 0; i < 12; i++ {
		s, _ = s.Apply(5)
	}
	assert.Equal(t, 12, s.DistanceM)

	// History records the distance each set was thrown from.
	assert.Equal(t, 5, s.History[0].DistanceM)
	assert.Equal(t, 6, s.History[1].DistanceM)
}

func TestT21SetbackOnOvershoot(t *testing.T) {
	s := &T21State{Total: 19}
	s, points := s.Apply(4)
	assert.Equal(t, 4, points)
	assert.Equal(t, 15, s.Total, "overshooting 21 drops back to 15, not 0")
	require.Len(t, s.History, 1)
	assert.Equal(t, 15, s.History[0].Total)
	assert.Equal(t, 4, s.History[0].Points)

	// Landing exactly on 21 is not an overshoot.
	s = &T21State{Total: 18}
	s, _ = s.Apply(3)
	assert.Equal(t, 21, s.Total)
}

func TestRaceCapKeepsPoints(t *testing.T) {
	s := &RaceState{Total: 48, Target: RaceTarget}
	s, points := s.Apply(5)
	assert.Equal(t, 5, points, "points are the makes thrown, not the capped remainder")
	assert.Equal(t, RaceTarget, s.Total)
	require.Len(t, s.History, 1)
	assert.Equal(t, RaceTarget, s.History[0].Total)
	assert.Equal(t, 5, s.History[0].Points)

	// Further sets keep scoring points while the total stays pinned.
	s, points = s.Apply(3)
	assert.Equal(t, 3, points)
	assert.Equal(t, RaceTarget, s.Total)
	assert.Equal(t, 8, s.Points())
}

func TestClampMakes(t *testing.T) {
	cases := []struct{ in, want int }{
		{-1, 0}, {0, 0}, {3, 3}, {5, 5}, {6, 5}, {100, 5},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClampMakes(c.in), "in=%d", c.in)
	}
}

func TestValidGames(t *testing.T) {
	for _, g := range All {
		assert.True(t, Valid(g))
	}
	assert.False(t, Valid(Game("CRICKET")))
}

// Replaying a history's makes from the zero state must reproduce the state
// that was built incrementally, for every prefix along the way.
func TestReplayPrefixConsistency(t *testing.T) {
	makes := []int{3, 5, 0, 2, 4, 1, 5, 5, 0, 3}

	t.Run("jyly", func(t *testing.T) {
		incremental := NewJyly()
		for i, m := range makes {
			incremental, _ = incremental.Apply(m)

			replayed := NewJyly()
			for _, rm := range makes[:i+1] {
				replayed, _ = replayed.Apply(rm)
			}
			require.Equal(t, incremental, replayed, "prefix of %d", i+1)
		}
	})

	t.Run("ladder", func(t *testing.T) {
		incremental := NewLadder()
		for i, m := range makes {
			incremental, _ = incremental.Apply(m)

			replayed := NewLadder()
			for _, rm := range makes[:i+1] {
				replayed, _ = replayed.Apply(rm)
			}
			require.Equal(t, incremental, replayed, "prefix of %d", i+1)
		}
	})

	t.Run("t21", func(t *testing.T) {
		incremental := NewT21()
		for i, m := range makes {
			incremental, _ = incremental.Apply(m)

			replayed := NewT21()
			for _, rm := range makes[:i+1] {
				replayed, _ = replayed.Apply(rm)
			}
			require.Equal(t, incremental, replayed, "prefix of %d", i+1)
		}
	})

	t.Run("race", func(t *testing.T) {
		incremental := NewRace()
		for i, m := range makes {
			incremental, _ = incremental.Apply(m)

			replayed := NewRace()
			for _, rm := range makes[:i+1] {
				replayed, _ = replayed.Apply(rm)
			}
			require.Equal(t, incremental, replayed, "prefix of %d", i+1)
		}
	})

	t.Run("atw", func(t *testing.T) {
		incremental := NewAtw()
		for i, m := range makes {
			incremental, _ = incremental.Apply(m)

			replayed := NewAtw()
			for _, rm := range makes[:i+1] {
				replayed, _ = replayed.Apply(rm)
			}
			require.Equal(t, incremental, replayed, "prefix of %d", i+1)
		}
	})
}
