package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"putt-session-system/games"
	"putt-session-system/models"
)

func newTestSession(code, status string) *models.Session {
	return &models.Session{
		Code:     code,
		OwnerUID: "owner",
		Game:     games.Jyly,
		Status:   status,
		Players:  models.PlayerList{},
	}
}

func TestMemoryCreateAndGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Create(ctx, newTestSession("ABCDE", models.StatusLobby))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ABCDE", got.Code)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = m.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUpdateBumpsVersion(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, _ := m.Create(ctx, newTestSession("ABCDE", models.StatusLobby))

	out, err := m.Update(ctx, id, func(s *models.Session) (bool, error) {
		s.Status = models.StatusLive
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Version)
	assert.Equal(t, models.StatusLive, out.Status)

	// A no-op update writes nothing and leaves the version alone.
	out, err = m.Update(ctx, id, func(s *models.Session) (bool, error) {
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Version)

	_, err = m.Update(ctx, "nope", func(s *models.Session) (bool, error) {
		t.Fatal("mutation fn must not run for a missing document")
		return false, nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUpdateIsolation(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, _ := m.Create(ctx, newTestSession("ABCDE", models.StatusLobby))

	// The document handed to fn is private: mutating it after the commit
	// must not leak into the stored copy.
	var leaked *models.Session
	_, err := m.Update(ctx, id, func(s *models.Session) (bool, error) {
		leaked = s
		s.Players = append(s.Players, models.Player{UID: "u1", Name: "One"})
		return true, nil
	})
	require.NoError(t, err)
	leaked.Players[0].Name = "Mutated"

	got, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "One", got.Players[0].Name)
}

func TestMemorySubscribeDelivery(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, _ := m.Create(ctx, newTestSession("ABCDE", models.StatusLobby))

	var got []*models.Session
	cancel := m.Subscribe(id, func(s *models.Session) {
		got = append(got, s)
	})
	defer cancel()

	// Initial delivery happens inside Subscribe.
	require.Len(t, got, 1)
	assert.Equal(t, "ABCDE", got[0].Code)

	_, err := m.Update(ctx, id, func(s *models.Session) (bool, error) {
		s.Status = models.StatusLive
		return true, nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.StatusLive, got[1].Status)

	// No-op updates publish nothing.
	_, err = m.Update(ctx, id, func(s *models.Session) (bool, error) { return false, nil })
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Deletion delivers nil.
	require.NoError(t, m.Delete(ctx, id))
	require.Len(t, got, 3)
	assert.Nil(t, got[2])
}

func TestMemorySubscribeCancel(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, _ := m.Create(ctx, newTestSession("ABCDE", models.StatusLobby))

	count := 0
	cancel := m.Subscribe(id, func(*models.Session) { count++ })
	require.Equal(t, 1, count)
	cancel()

	_, _ = m.Update(ctx, id, func(s *models.Session) (bool, error) {
		s.Status = models.StatusLive
		return true, nil
	})
	assert.Equal(t, 1, count)
}

func TestMemoryListOpen(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	idA, _ := m.Create(ctx, newTestSession("AAAAA", models.StatusLobby))
	idB, _ := m.Create(ctx, newTestSession("BBBBB", models.StatusLive))
	idC, _ := m.Create(ctx, newTestSession("CCCCC", models.StatusClosed))

	open, err := m.ListOpen(ctx, 10)
	require.NoError(t, err)
	require.Len(t, open, 2)
	ids := []string{open[0].ID, open[1].ID}
	assert.Contains(t, ids, idA)
	assert.Contains(t, ids, idB)
	assert.NotContains(t, ids, idC)
}

func TestMemorySubscribeOpenTracksChanges(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, _ := m.Create(ctx, newTestSession("AAAAA", models.StatusLive))

	var lists [][]*models.Session
	cancel := m.SubscribeOpen(func(list []*models.Session) {
		lists = append(lists, list)
	})
	defer cancel()

	require.Len(t, lists, 1)
	require.Len(t, lists[0], 1)

	// Closing the session drops it out of the delivered listing.
	_, err := m.Update(ctx, id, func(s *models.Session) (bool, error) {
		s.Status = models.StatusClosed
		return true, nil
	})
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Empty(t, lists[1])
}

func TestMemoryFindByCode(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, _ := m.Create(ctx, newTestSession("QWXZ2", models.StatusLobby))

	got, err := m.FindByCode(ctx, "QWXZ2")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	_, err = m.FindByCode(ctx, "ZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
}
