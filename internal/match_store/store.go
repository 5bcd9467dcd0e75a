package match_store

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"quizduel/internal/models"
)

// Incr marks an update value as an atomic numeric increment applied by the
// store, rather than a field replacement.
type Incr struct {
	By int64
}

// Event is one emission of a match change subscription. Exactly one of the
// three shapes is set: a full snapshot, a deletion marker, or a stream error.
type Event struct {
	Match   *models.Match
	Deleted bool
	Err     error
}

// MatchStore is the contract the match engine requires from the document
// store: plain reads, an atomic conditional create, field-path partial
// updates with last-writer-wins semantics, deletes, and a push-based change
// subscription per match.
type MatchStore interface {
	// Get returns the match document, or models.ErrNotFound.
	Get(ctx context.Context, code string) (*models.Match, error)

	// CreateIfAbsent atomically claims the match's room code and persists the
	// initial document, assigning CreatedAt store-side. Returns
	// models.ErrAlreadyExists if another writer claimed the code first.
	CreateIfAbsent(ctx context.Context, m *models.Match) (*models.Match, error)

	// Update applies a partial merge of the named field paths. Values may be
	// strings, ints, bools, or Incr for atomic increments. Each field path is
	// replaced independently; there is no cross-field compare-and-swap.
	Update(ctx context.Context, code string, fields map[string]any) error

	// Delete removes the document and notifies subscribers with a deletion
	// event. Deleting an absent document is not an error.
	Delete(ctx context.Context, code string) error

	// Subscribe opens a change stream for the match. The current state
	// (or a deletion event if the document is absent) is emitted first,
	// followed by one event per committed write.
	Subscribe(ctx context.Context, code string) (*Subscription, error)
}

// Subscription is a handle on one match change stream. Close is idempotent.
type Subscription struct {
	ID string

	events chan Event
	closed chan struct{}
	once   sync.Once
	pubsub *redis.PubSub
}

// Events returns the stream channel. It is closed when the subscription ends,
// whether by Close or by a stream error.
func (s *Subscription) Events() <-chan Event { return s.events }

// Close tears the subscription down. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.closed)
		if s.pubsub != nil {
			s.pubsub.Close()
		}
	})
}

// send delivers an event unless the subscription has been closed.
func (s *Subscription) send(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.closed:
		return false
	}
}
