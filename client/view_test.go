package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"putt-session-system/games"
	"putt-session-system/models"
	"putt-session-system/services"
	"putt-session-system/store"
)

type frame struct {
	snapshot *models.Session
	overlay  *Overlay
}

type recorder struct {
	frames []frame
}

func (r *recorder) render(s *models.Session, o *Overlay) {
	r.frames = append(r.frames, frame{snapshot: s, overlay: o})
}

func (r *recorder) last() frame {
	return r.frames[len(r.frames)-1]
}

func liveSession(t *testing.T, svc *services.SessionService, game games.Game, uids ...string) *models.Session {
	t.Helper()
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, "owner-1", game, "")
	require.NoError(t, err)
	for _, uid := range uids {
		sess, err = svc.JoinByID(ctx, sess.ID, models.Player{UID: uid, Name: "Player " + uid})
		require.NoError(t, err)
	}
	return sess
}

func TestViewRendersInitialSnapshot(t *testing.T) {
	sessions := store.NewMemory()
	svc := services.NewSessionService(sessions, store.NewMemoryLeaderboard())
	sess := liveSession(t, svc, games.Jyly, "u1")

	rec := &recorder{}
	v := NewView(sessions, svc, sess.ID, "u1", rec.render)
	defer v.Close()

	require.Len(t, rec.frames, 1)
	require.NotNil(t, rec.frames[0].snapshot)
	assert.Equal(t, sess.ID, rec.frames[0].snapshot.ID)
	assert.Nil(t, rec.frames[0].overlay)

	me := v.Me()
	require.NotNil(t, me)
	assert.Equal(t, "u1", me.UID)
}

func TestSubmitMakesOptimisticThenConfirmed(t *testing.T) {
	sessions := store.NewMemory()
	svc := services.NewSessionService(sessions, store.NewMemoryLeaderboard())
	sess := liveSession(t, svc, games.Jyly, "u1")

	rec := &recorder{}
	v := NewView(sessions, svc, sess.ID, "u1", rec.render)
	defer v.Close()

	require.NoError(t, v.SubmitMakes(context.Background(), 3))

	// Frame order: initial, optimistic overlay, confirmed snapshot.
	require.GreaterOrEqual(t, len(rec.frames), 3)
	optimistic := rec.frames[1]
	require.NotNil(t, optimistic.overlay)
	assert.Equal(t, 0, optimistic.overlay.BaseSets)
	assert.Equal(t, 30, optimistic.overlay.Player.TotalPoints)
	assert.Equal(t, 1, optimistic.overlay.Player.HistoryLen(games.Jyly))

	confirmed := rec.last()
	assert.Nil(t, confirmed.overlay, "server snapshot with the new set clears the overlay")
	require.NotNil(t, confirmed.snapshot)
	assert.Equal(t, 30, confirmed.snapshot.FindPlayer("u1").TotalPoints)

	// After confirmation Me reads from the snapshot again.
	me := v.Me()
	require.NotNil(t, me)
	assert.Equal(t, 30, me.TotalPoints)
}

func TestOverlayClearedByForeignChange(t *testing.T) {
	sessions := store.NewMemory()
	svc := services.NewSessionService(sessions, store.NewMemoryLeaderboard())
	sess := liveSession(t, svc, games.Jyly, "u1", "u2")

	rec := &recorder{}
	// A protocol that never reaches the store keeps the overlay pending.
	v := NewView(sessions, blockedProtocol{}, sess.ID, "u1", rec.render)
	defer v.Close()

	require.NoError(t, v.SubmitMakes(context.Background(), 3))
	require.NotNil(t, rec.last().overlay)

	// Another player scoring leaves u1's confirmed history untouched, so
	// the overlay survives that snapshot.
	_, err := svc.SubmitScore(context.Background(), sess.ID, "u2", 4)
	require.NoError(t, err)
	require.NotNil(t, rec.last().overlay, "overlay is anchored to our own history only")

	// The moment u1's confirmed history moves, the overlay is stale.
	_, err = svc.SubmitScore(context.Background(), sess.ID, "u1", 3)
	require.NoError(t, err)
	assert.Nil(t, rec.last().overlay)
	assert.Equal(t, 30, rec.last().snapshot.FindPlayer("u1").TotalPoints)
}

func TestOverlayClearedOnDeletion(t *testing.T) {
	sessions := store.NewMemory()
	svc := services.NewSessionService(sessions, store.NewMemoryLeaderboard())
	sess := liveSession(t, svc, games.Atw, "u1")

	rec := &recorder{}
	v := NewView(sessions, blockedProtocol{}, sess.ID, "u1", rec.render)
	defer v.Close()

	require.NoError(t, v.SubmitMakes(context.Background(), 2))
	require.NotNil(t, rec.last().overlay)

	require.NoError(t, svc.DeleteSession(context.Background(), sess.ID))
	assert.Nil(t, rec.last().snapshot, "deletion delivers a nil snapshot")
	assert.Nil(t, rec.last().overlay)
	assert.Nil(t, v.Me())
}

func TestSubmitMakesRollsBackOnError(t *testing.T) {
	sessions := store.NewMemory()
	svc := services.NewSessionService(sessions, store.NewMemoryLeaderboard())
	sess := liveSession(t, svc, games.Ladder, "u1")

	rec := &recorder{}
	boom := errors.New("connection reset")
	v := NewView(sessions, failingProtocol{err: boom}, sess.ID, "u1", rec.render)
	defer v.Close()

	err := v.SubmitMakes(context.Background(), 4)
	assert.ErrorIs(t, err, boom)

	last := rec.last()
	assert.Nil(t, last.overlay, "failed submit drops the optimistic state")
	assert.Equal(t, 0, last.snapshot.FindPlayer("u1").TotalPoints)

	me := v.Me()
	require.NotNil(t, me)
	assert.Equal(t, 0, me.TotalPoints)
}

func TestSubmitMakesCappedRoundIsLocalNoOp(t *testing.T) {
	sessions := store.NewMemory()
	svc := services.NewSessionService(sessions, store.NewMemoryLeaderboard())
	sess := liveSession(t, svc, games.Jyly, "u1")

	ctx := context.Background()
	for i := 0; i < games.JylyMaxSets; i++ {
		_, err := svc.SubmitScore(ctx, sess.ID, "u1", 2)
		require.NoError(t, err)
	}

	rec := &recorder{}
	counting := &countingProtocol{inner: svc}
	v := NewView(sessions, counting, sess.ID, "u1", rec.render)
	defer v.Close()

	frames := len(rec.frames)
	require.NoError(t, v.SubmitMakes(ctx, 5))
	assert.Equal(t, 0, counting.calls, "a capped round never reaches the wire")
	assert.Len(t, rec.frames, frames, "and renders nothing new")
}

func TestSpectatorViewCannotSubmit(t *testing.T) {
	sessions := store.NewMemory()
	svc := services.NewSessionService(sessions, store.NewMemoryLeaderboard())
	sess := liveSession(t, svc, games.Jyly, "u1")

	rec := &recorder{}
	v := NewSpectatorView(sessions, sess.ID, rec.render)
	defer v.Close()

	assert.ErrorIs(t, v.SubmitMakes(context.Background(), 3), ErrSpectator)
	require.NotNil(t, v.Snapshot(), "spectators still get snapshots")
}

func TestSubmitMakesBeforeJoining(t *testing.T) {
	sessions := store.NewMemory()
	svc := services.NewSessionService(sessions, store.NewMemoryLeaderboard())
	sess := liveSession(t, svc, games.Jyly, "u1")

	rec := &recorder{}
	v := NewView(sessions, svc, sess.ID, "ghost", rec.render)
	defer v.Close()

	assert.ErrorIs(t, v.SubmitMakes(context.Background(), 3), ErrNotJoined)
}

// blockedProtocol accepts the submission but never applies it, standing in
// for a request still in flight.
type blockedProtocol struct{}

func (blockedProtocol) SubmitScore(context.Context, string, string, int) (*models.Session, error) {
	return nil, nil
}

type failingProtocol struct{ err error }

func (p failingProtocol) SubmitScore(context.Context, string, string, int) (*models.Session, error) {
	return nil, p.err
}

type countingProtocol struct {
	inner Protocol
	calls int
}

func (p *countingProtocol) SubmitScore(ctx context.Context, sessionID, uid string, makes int) (*models.Session, error) {
	p.calls++
	return p.inner.SubmitScore(ctx, sessionID, uid, makes)
}
