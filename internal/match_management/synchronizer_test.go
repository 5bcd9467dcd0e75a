package match_management

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quizduel/internal/match_store"
	"quizduel/internal/models"
)

// playingMatch persists a two-player match in the playing state and returns
// its snapshot.
func playingMatch(t *testing.T, store match_store.MatchStore) *models.Match {
	t.Helper()
	ctx := context.Background()

	_, err := store.CreateIfAbsent(ctx, models.NewMatch("ABC123", "p1", "p1@example.com"))
	require.NoError(t, err)
	err = store.Update(ctx, "ABC123", map[string]any{
		match_store.FieldPlayer2ID:       "p2",
		match_store.FieldPlayer2Email:    "p2@example.com",
		match_store.FieldPlayer2Score:    0,
		match_store.FieldPlayer2Answered: false,
		match_store.FieldStatus:          models.StatusPlaying,
	})
	require.NoError(t, err)

	m, err := store.Get(ctx, "ABC123")
	require.NoError(t, err)
	return m
}

func TestSubmitAnswer(t *testing.T) {
	store := setupTestStore(t)
	sync := NewRoundSynchronizer(store, 3, zap.NewNop())
	ctx := context.Background()
	playingMatch(t, store)

	require.NoError(t, sync.SubmitAnswer(ctx, "ABC123", "p1", true))

	got, err := store.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.True(t, got.Player1.HasAnswered)
	assert.Equal(t, 1, got.Player1.Score)
	// One answer alone never advances the round.
	assert.Equal(t, 0, got.CurrentQuestionIndex)
	assert.False(t, got.Player2.HasAnswered)
}

func TestSubmitAnswer_Incorrect(t *testing.T) {
	store := setupTestStore(t)
	sync := NewRoundSynchronizer(store, 3, zap.NewNop())
	ctx := context.Background()
	playingMatch(t, store)

	require.NoError(t, sync.SubmitAnswer(ctx, "ABC123", "p2", false))

	got, err := store.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.True(t, got.Player2.HasAnswered)
	assert.Equal(t, 0, got.Player2.Score)
}

func TestSubmitAnswer_NoActiveMatch(t *testing.T) {
	store := setupTestStore(t)
	sync := NewRoundSynchronizer(store, 3, zap.NewNop())

	err := sync.SubmitAnswer(context.Background(), "", "p1", true)
	assert.ErrorIs(t, err, models.ErrNoActiveMatch)
}

func TestSubmitAnswer_NotParticipant(t *testing.T) {
	store := setupTestStore(t)
	sync := NewRoundSynchronizer(store, 3, zap.NewNop())
	playingMatch(t, store)

	err := sync.SubmitAnswer(context.Background(), "ABC123", "intruder", true)
	assert.ErrorIs(t, err, models.ErrNotParticipant)
}

func TestEvaluate_AdvancesRound(t *testing.T) {
	store := setupTestStore(t)
	sync := NewRoundSynchronizer(store, 3, zap.NewNop())
	ctx := context.Background()
	playingMatch(t, store)

	require.NoError(t, sync.SubmitAnswer(ctx, "ABC123", "p1", true))
	require.NoError(t, sync.SubmitAnswer(ctx, "ABC123", "p2", true))

	snapshot, err := store.Get(ctx, "ABC123")
	require.NoError(t, err)
	require.True(t, snapshot.BothAnswered())

	require.NoError(t, sync.Evaluate(ctx, snapshot))

	got, err := store.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentQuestionIndex)
	assert.False(t, got.Player1.HasAnswered)
	assert.False(t, got.Player2.HasAnswered)
	assert.Equal(t, 1, got.Player1.Score)
	assert.Equal(t, 1, got.Player2.Score)
	assert.Equal(t, models.StatusPlaying, got.Status)
}

func TestEvaluate_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	sync := NewRoundSynchronizer(store, 3, zap.NewNop())
	ctx := context.Background()
	playingMatch(t, store)

	require.NoError(t, sync.SubmitAnswer(ctx, "ABC123", "p1", false))
	require.NoError(t, sync.SubmitAnswer(ctx, "ABC123", "p2", false))

	snapshot, err := store.Get(ctx, "ABC123")
	require.NoError(t, err)

	// Both clients observe the same snapshot and both issue the advancement
	// write. The index must advance exactly once.
	require.NoError(t, sync.Evaluate(ctx, snapshot))
	require.NoError(t, sync.Evaluate(ctx, snapshot))

	got, err := store.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentQuestionIndex)
	assert.False(t, got.Player1.HasAnswered)
	assert.False(t, got.Player2.HasAnswered)
}

func TestEvaluate_FinishesOnLastQuestion(t *testing.T) {
	store := setupTestStore(t)
	sync := NewRoundSynchronizer(store, 3, zap.NewNop())
	ctx := context.Background()
	playingMatch(t, store)

	// Last round: index 2 of 3 questions.
	err := store.Update(ctx, "ABC123", map[string]any{match_store.FieldQuestionIndex: 2})
	require.NoError(t, err)
	require.NoError(t, sync.SubmitAnswer(ctx, "ABC123", "p1", true))
	require.NoError(t, sync.SubmitAnswer(ctx, "ABC123", "p2", false))

	snapshot, err := store.Get(ctx, "ABC123")
	require.NoError(t, err)
	require.NoError(t, sync.Evaluate(ctx, snapshot))

	got, err := store.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, got.Status)
	// The index never moves past the last question.
	assert.Equal(t, 2, got.CurrentQuestionIndex)
}

func TestEvaluate_NoOpCases(t *testing.T) {
	store := setupTestStore(t)
	sync := NewRoundSynchronizer(store, 3, zap.NewNop())
	ctx := context.Background()

	m := playingMatch(t, store)
	require.NoError(t, sync.Evaluate(ctx, m), "neither answered")

	require.NoError(t, sync.SubmitAnswer(ctx, "ABC123", "p1", true))
	snapshot, err := store.Get(ctx, "ABC123")
	require.NoError(t, err)
	require.NoError(t, sync.Evaluate(ctx, snapshot), "only one answered")

	got, err := store.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentQuestionIndex)

	// A finished match is terminal no matter what the flags say.
	err = store.Update(ctx, "ABC123", map[string]any{
		match_store.FieldStatus:          models.StatusFinished,
		match_store.FieldPlayer1Answered: true,
		match_store.FieldPlayer2Answered: true,
	})
	require.NoError(t, err)
	snapshot, err = store.Get(ctx, "ABC123")
	require.NoError(t, err)
	require.NoError(t, sync.Evaluate(ctx, snapshot))

	got, err = store.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, got.Status)
	assert.Equal(t, 0, got.CurrentQuestionIndex)

	require.NoError(t, sync.Evaluate(ctx, nil), "nil snapshot")
}
