package match_management

import (
	"context"
	"errors"
	"math/rand"

	"quizduel/internal/match_store"
	"quizduel/internal/metrics"
	"quizduel/internal/models"
)

const (
	roomCodeLength   = 6
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// maxAllocationAttempts bounds both the draw-and-check loop and the
	// outer create retry so a pathological store state cannot spin forever.
	maxAllocationAttempts = 20
)

// RoomCodeAllocator draws short room codes and confirms against the store
// that no live match already holds them. The check-then-create window is
// closed by the store's conditional create, not here; a losing creator simply
// allocates again.
type RoomCodeAllocator struct {
	store match_store.MatchStore
}

func NewRoomCodeAllocator(store match_store.MatchStore) *RoomCodeAllocator {
	return &RoomCodeAllocator{store: store}
}

// Allocate returns a code with no live match under it, or
// models.ErrAllocationExhausted after the retry budget is spent.
func (a *RoomCodeAllocator) Allocate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxAllocationAttempts; attempt++ {
		code := a.randomCode()

		_, err := a.store.Get(ctx, code)
		if errors.Is(err, models.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}

		// A live match holds this code, draw a fresh one.
		metrics.RoomCodeCollisions.Inc()
	}
	return "", models.ErrAllocationExhausted
}

func (a *RoomCodeAllocator) randomCode() string {
	b := make([]byte, roomCodeLength)
	for i := range b {
		b[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
	}
	return string(b)
}
