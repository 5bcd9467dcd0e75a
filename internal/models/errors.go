package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the referenced match id has no document in the store.
	ErrNotFound = errors.New("match not found")

	// ErrAlreadyExists is returned by a conditional create that lost the race
	// for its room code.
	ErrAlreadyExists = errors.New("match already exists")

	// ErrMatchFull means a join was attempted on a match whose second slot is
	// already occupied.
	ErrMatchFull = errors.New("match already has two players")

	// ErrSelfJoin means the occupant of slot 1 tried to join their own match.
	ErrSelfJoin = errors.New("cannot join your own match")

	// ErrAllocationExhausted means the room-code allocator ran out of retry
	// attempts without finding a free code.
	ErrAllocationExhausted = errors.New("room code allocation attempts exhausted")

	// ErrNoActiveMatch means an answer was submitted without a known match id.
	ErrNoActiveMatch = errors.New("no active match")

	// ErrNotParticipant means the submitting player occupies neither slot.
	ErrNotParticipant = errors.New("player is not part of this match")
)

// StoreUnavailableError wraps a transport or availability failure of the
// underlying match store, as opposed to a domain outcome like ErrNotFound.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("match store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// IsStoreUnavailable reports whether err stems from a store transport failure.
func IsStoreUnavailable(err error) bool {
	var se *StoreUnavailableError
	return errors.As(err, &se)
}
