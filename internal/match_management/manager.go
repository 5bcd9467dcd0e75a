package match_management

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"quizduel/internal/match_store"
	"quizduel/internal/metrics"
	"quizduel/internal/models"
)

// MatchManager owns the match lifecycle: creation with a freshly allocated
// room code, the one-time second-player join, and plain loads. All state
// lives in the store; the manager itself is stateless and safe for
// concurrent use.
type MatchManager struct {
	store     match_store.MatchStore
	allocator *RoomCodeAllocator
	logger    *zap.Logger
}

func NewMatchManager(store match_store.MatchStore, logger *zap.Logger) *MatchManager {
	return &MatchManager{
		store:     store,
		allocator: NewRoomCodeAllocator(store),
		logger:    logger,
	}
}

// CreateMatch allocates a room code and persists the initial waiting match
// with the caller in slot 1. Losing the conditional create to a concurrent
// allocator of the same code restarts allocation from scratch, within the
// same bounded budget.
func (m *MatchManager) CreateMatch(ctx context.Context, playerID, email string) (*models.Match, error) {
	for attempt := 0; attempt < maxAllocationAttempts; attempt++ {
		code, err := m.allocator.Allocate(ctx)
		if err != nil {
			return nil, err
		}

		created, err := m.store.CreateIfAbsent(ctx, models.NewMatch(code, playerID, email))
		if errors.Is(err, models.ErrAlreadyExists) {
			// Lost the allocation race; the code was claimed between our
			// check and the create.
			metrics.RoomCodeCollisions.Inc()
			continue
		}
		if err != nil {
			return nil, err
		}

		metrics.MatchesCreated.Inc()
		m.logger.Info("match created",
			zap.String("matchId", created.MatchID),
			zap.String("playerId", playerID))
		return created, nil
	}
	return nil, models.ErrAllocationExhausted
}

// JoinMatch fills slot 2 and flips the match to playing. The check-then-update
// here is the documented join race: two simultaneous joiners can both pass the
// slot check, and the later write wins the slot. That outcome is benign and
// user-correctable, so no stronger claim is made on this path.
func (m *MatchManager) JoinMatch(ctx context.Context, matchID, playerID, email string) (*models.Match, error) {
	match, err := m.store.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Player2 != nil {
		return nil, models.ErrMatchFull
	}
	if match.Player1 != nil && match.Player1.ID == playerID {
		return nil, models.ErrSelfJoin
	}

	err = m.store.Update(ctx, matchID, map[string]any{
		match_store.FieldPlayer2ID:       playerID,
		match_store.FieldPlayer2Email:    email,
		match_store.FieldPlayer2Score:    0,
		match_store.FieldPlayer2Answered: false,
		match_store.FieldStatus:          models.StatusPlaying,
	})
	if err != nil {
		return nil, err
	}

	metrics.MatchesJoined.Inc()
	m.logger.Info("player joined match",
		zap.String("matchId", matchID),
		zap.String("playerId", playerID))

	return m.store.Get(ctx, matchID)
}

// LoadMatch returns the current match document.
func (m *MatchManager) LoadMatch(ctx context.Context, matchID string) (*models.Match, error) {
	return m.store.Get(ctx, matchID)
}
