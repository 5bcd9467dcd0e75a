package match_management

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quizduel/internal/models"
)

func waitForSnapshot(t *testing.T, w *MatchWatcher, cond func(*models.Match) bool) *models.Match {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-w.Events():
			if ev.Type == WatchSnapshot && cond(ev.Match) {
				return ev.Match
			}
		case <-deadline:
			t.Fatal("timed out waiting for matching snapshot")
			return nil
		}
	}
}

func waitForEventType(t *testing.T, w *MatchWatcher, eventType string) WatchEvent {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-w.Events():
			if ev.Type == eventType {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", eventType)
			return WatchEvent{}
		}
	}
}

func TestWatcher_InitialSnapshot(t *testing.T) {
	store := setupTestStore(t)
	sync := NewRoundSynchronizer(store, 3, zap.NewNop())
	ctx := context.Background()
	playingMatch(t, store)

	w := NewMatchWatcher(store, sync, zap.NewNop())
	require.NoError(t, w.StartWatching(ctx, "ABC123"))
	defer w.StopWatching()

	snap := waitForSnapshot(t, w, func(m *models.Match) bool { return m != nil })
	assert.Equal(t, "ABC123", snap.MatchID)
	assert.Equal(t, models.StatusPlaying, snap.Status)
	assert.Equal(t, "ABC123", w.MatchID())
}

func TestWatcher_AdvancesRoundWhenBothAnswer(t *testing.T) {
	store := setupTestStore(t)
	sync := NewRoundSynchronizer(store, 3, zap.NewNop())
	ctx := context.Background()
	playingMatch(t, store)

	w := NewMatchWatcher(store, sync, zap.NewNop())
	require.NoError(t, w.StartWatching(ctx, "ABC123"))
	defer w.StopWatching()

	require.NoError(t, w.SubmitAnswer(ctx, "p1", true))
	require.NoError(t, w.SubmitAnswer(ctx, "p2", true))

	// The watcher's own synchronizer must observe both-answered and issue
	// the advancement write; no one calls Evaluate explicitly.
	advanced := waitForSnapshot(t, w, func(m *models.Match) bool {
		return m.CurrentQuestionIndex == 1
	})
	assert.False(t, advanced.Player1.HasAnswered)
	assert.False(t, advanced.Player2.HasAnswered)
	assert.Equal(t, 1, advanced.Player1.Score)
	assert.Equal(t, 1, advanced.Player2.Score)
}

func TestWatcher_TwoWatchersConverge(t *testing.T) {
	store := setupTestStore(t)
	sync := NewRoundSynchronizer(store, 3, zap.NewNop())
	ctx := context.Background()
	playingMatch(t, store)

	// Both players' clients watch and both run the synchronizer, issuing
	// redundant advancement writes derived from the same snapshots.
	w1 := NewMatchWatcher(store, sync, zap.NewNop())
	require.NoError(t, w1.StartWatching(ctx, "ABC123"))
	defer w1.StopWatching()
	w2 := NewMatchWatcher(store, sync, zap.NewNop())
	require.NoError(t, w2.StartWatching(ctx, "ABC123"))
	defer w2.StopWatching()

	require.NoError(t, w1.SubmitAnswer(ctx, "p1", true))
	require.NoError(t, w2.SubmitAnswer(ctx, "p2", false))

	for _, w := range []*MatchWatcher{w1, w2} {
		snap := waitForSnapshot(t, w, func(m *models.Match) bool {
			return m.CurrentQuestionIndex == 1
		})
		// Exactly one advancement despite duplicate writers.
		assert.Equal(t, 1, snap.CurrentQuestionIndex)
		assert.Equal(t, 1, snap.Player1.Score)
		assert.Equal(t, 0, snap.Player2.Score)
	}
}

func TestWatcher_FinishesMatch(t *testing.T) {
	store := setupTestStore(t)
	sync := NewRoundSynchronizer(store, 3, zap.NewNop())
	ctx := context.Background()
	playingMatch(t, store)

	require.NoError(t, store.Update(ctx, "ABC123", map[string]any{
		"currentQuestionIndex": 2,
	}))

	w := NewMatchWatcher(store, sync, zap.NewNop())
	require.NoError(t, w.StartWatching(ctx, "ABC123"))
	defer w.StopWatching()

	require.NoError(t, w.SubmitAnswer(ctx, "p1", true))
	require.NoError(t, w.SubmitAnswer(ctx, "p2", true))

	finished := waitForSnapshot(t, w, func(m *models.Match) bool {
		return m.Status == models.StatusFinished
	})
	assert.Equal(t, 2, finished.CurrentQuestionIndex)
}

func TestWatcher_DeletedMatch(t *testing.T) {
	store := setupTestStore(t)
	sync := NewRoundSynchronizer(store, 3, zap.NewNop())
	ctx := context.Background()
	playingMatch(t, store)

	w := NewMatchWatcher(store, sync, zap.NewNop())
	require.NoError(t, w.StartWatching(ctx, "ABC123"))
	defer w.StopWatching()

	waitForSnapshot(t, w, func(m *models.Match) bool { return m != nil })

	require.NoError(t, store.Delete(ctx, "ABC123"))
	waitForEventType(t, w, WatchDeleted)
	assert.Nil(t, w.Current())
}

func TestWatcher_SubmitWithoutActiveMatch(t *testing.T) {
	store := setupTestStore(t)
	sync := NewRoundSynchronizer(store, 3, zap.NewNop())

	w := NewMatchWatcher(store, sync, zap.NewNop())
	err := w.SubmitAnswer(context.Background(), "p1", true)
	assert.ErrorIs(t, err, models.ErrNoActiveMatch)
}

func TestWatcher_StopWatchingIdempotent(t *testing.T) {
	store := setupTestStore(t)
	sync := NewRoundSynchronizer(store, 3, zap.NewNop())
	ctx := context.Background()
	playingMatch(t, store)

	w := NewMatchWatcher(store, sync, zap.NewNop())

	// Safe with nothing active.
	w.StopWatching()

	require.NoError(t, w.StartWatching(ctx, "ABC123"))
	waitForSnapshot(t, w, func(m *models.Match) bool { return m != nil })

	w.StopWatching()
	w.StopWatching()

	assert.Equal(t, "", w.MatchID())
	assert.Nil(t, w.Current())
	assert.ErrorIs(t, w.SubmitAnswer(ctx, "p1", true), models.ErrNoActiveMatch)
}

func TestWatcher_RestartSwitchesMatch(t *testing.T) {
	store := setupTestStore(t)
	sync := NewRoundSynchronizer(store, 3, zap.NewNop())
	ctx := context.Background()
	playingMatch(t, store)
	_, err := store.CreateIfAbsent(ctx, models.NewMatch("XYZ789", "p3", ""))
	require.NoError(t, err)

	w := NewMatchWatcher(store, sync, zap.NewNop())
	require.NoError(t, w.StartWatching(ctx, "ABC123"))
	waitForSnapshot(t, w, func(m *models.Match) bool { return m.MatchID == "ABC123" })

	require.NoError(t, w.StartWatching(ctx, "XYZ789"))
	defer w.StopWatching()

	snap := waitForSnapshot(t, w, func(m *models.Match) bool { return m.MatchID == "XYZ789" })
	assert.Equal(t, models.StatusWaiting, snap.Status)
	assert.Equal(t, "XYZ789", w.MatchID())
}
