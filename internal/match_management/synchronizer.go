package match_management

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"quizduel/internal/match_store"
	"quizduel/internal/metrics"
	"quizduel/internal/models"
)

// RoundSynchronizer is the convergent state machine that moves a match
// through its rounds. Every subscribed client evaluates every snapshot and
// may issue the advancement write; the write is derived solely from the
// triggering snapshot, so duplicate writers recompute the identical target
// state and the document converges under last-writer-wins per field.
type RoundSynchronizer struct {
	store          match_store.MatchStore
	totalQuestions int
	logger         *zap.Logger
}

func NewRoundSynchronizer(store match_store.MatchStore, totalQuestions int, logger *zap.Logger) *RoundSynchronizer {
	return &RoundSynchronizer{
		store:          store,
		totalQuestions: totalQuestions,
		logger:         logger,
	}
}

// Evaluate inspects one observed snapshot. When both players have answered
// the current round it either advances the question index and clears both
// answered flags, or marks the match finished after the last question.
// Anything else is a no-op.
func (s *RoundSynchronizer) Evaluate(ctx context.Context, m *models.Match) error {
	if m == nil || m.Status != models.StatusPlaying || !m.BothAnswered() {
		return nil
	}

	if m.CurrentQuestionIndex >= s.totalQuestions-1 {
		err := s.store.Update(ctx, m.MatchID, map[string]any{
			match_store.FieldStatus: models.StatusFinished,
		})
		if err == nil {
			metrics.MatchesFinished.Inc()
			s.logger.Info("match finished", zap.String("matchId", m.MatchID))
		}
		return err
	}

	// The new index comes from the snapshot that triggered us, never from a
	// re-read, which keeps a duplicate advancement write harmless.
	err := s.store.Update(ctx, m.MatchID, map[string]any{
		match_store.FieldQuestionIndex:   m.CurrentQuestionIndex + 1,
		match_store.FieldPlayer1Answered: false,
		match_store.FieldPlayer2Answered: false,
	})
	if err == nil {
		metrics.RoundsAdvanced.Inc()
	}
	return err
}

// SubmitAnswer records the player's submission for the current round: the
// answered flag always, a score increment only on a correct answer. A forced
// submission after the answer window elapses goes through the same path with
// isCorrect=false. Round advancement is not decided here; it falls out of
// Evaluate reacting to the snapshot this write produces.
func (s *RoundSynchronizer) SubmitAnswer(ctx context.Context, matchID, playerID string, isCorrect bool) error {
	if matchID == "" {
		return models.ErrNoActiveMatch
	}

	match, err := s.store.Get(ctx, matchID)
	if err != nil {
		return err
	}
	slot := match.SlotNumber(playerID)
	if slot == 0 {
		return models.ErrNotParticipant
	}

	fields := map[string]any{
		match_store.PlayerAnsweredField(slot): true,
	}
	if isCorrect {
		fields[match_store.PlayerScoreField(slot)] = match_store.Incr{By: 1}
	}
	if err := s.store.Update(ctx, matchID, fields); err != nil {
		return err
	}

	metrics.AnswersSubmitted.WithLabelValues(strconv.FormatBool(isCorrect)).Inc()
	return nil
}
