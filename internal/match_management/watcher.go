package match_management

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"quizduel/internal/match_store"
	"quizduel/internal/models"
)

// Watch event types surfaced to the presentation layer.
const (
	WatchSnapshot = "snapshot"
	WatchDeleted  = "deleted"
	WatchError    = "error"
)

// WatchEvent is what a watching client receives: a fresh match snapshot, a
// terminal deletion notice, or a stream error. Deletion and stream errors
// are distinct conditions; the caller decides whether to resubscribe after
// an error.
type WatchEvent struct {
	Type  string
	Match *models.Match
	Err   error
}

// MatchWatcher is one client's local view of a match: it owns at most one
// store subscription at a time, caches the last-known snapshot, runs the
// round synchronizer on every change notification, and republishes snapshots
// outward.
type MatchWatcher struct {
	store  match_store.MatchStore
	sync   *RoundSynchronizer
	logger *zap.Logger

	mu      sync.Mutex
	matchID string
	sub     *match_store.Subscription
	current *models.Match

	events chan WatchEvent
}

func NewMatchWatcher(store match_store.MatchStore, sync *RoundSynchronizer, logger *zap.Logger) *MatchWatcher {
	return &MatchWatcher{
		store:  store,
		sync:   sync,
		logger: logger,
		events: make(chan WatchEvent, 16),
	}
}

// Events is the outward stream of watch events. It stays open across
// StartWatching/StopWatching cycles; a slow consumer loses intermediate
// snapshots rather than stalling the synchronizer.
func (w *MatchWatcher) Events() <-chan WatchEvent { return w.events }

// Current returns the last-known snapshot, or nil.
func (w *MatchWatcher) Current() *models.Match {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// MatchID returns the id of the match being watched, or "".
func (w *MatchWatcher) MatchID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.matchID
}

// StartWatching cancels any prior subscription and opens a new one for the
// given match. Every emission refreshes the cached snapshot, feeds the round
// synchronizer, and is forwarded to Events.
func (w *MatchWatcher) StartWatching(ctx context.Context, matchID string) error {
	w.StopWatching()

	sub, err := w.store.Subscribe(ctx, matchID)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.matchID = matchID
	w.sub = sub
	w.current = nil
	w.mu.Unlock()

	go w.run(sub)
	return nil
}

// StopWatching cancels the active subscription. Idempotent; in-flight writes
// already issued by the synchronizer complete, but their results no longer
// matter to this view.
func (w *MatchWatcher) StopWatching() {
	w.mu.Lock()
	sub := w.sub
	w.sub = nil
	w.matchID = ""
	w.current = nil
	w.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}

// SubmitAnswer submits for the given player against the currently watched
// match. Fails with models.ErrNoActiveMatch when nothing is being watched.
func (w *MatchWatcher) SubmitAnswer(ctx context.Context, playerID string, isCorrect bool) error {
	w.mu.Lock()
	matchID := w.matchID
	w.mu.Unlock()

	if matchID == "" {
		return models.ErrNoActiveMatch
	}
	return w.sync.SubmitAnswer(ctx, matchID, playerID, isCorrect)
}

func (w *MatchWatcher) run(sub *match_store.Subscription) {
	for ev := range sub.Events() {
		switch {
		case ev.Err != nil:
			w.forward(WatchEvent{Type: WatchError, Err: ev.Err})

		case ev.Deleted:
			w.mu.Lock()
			if w.sub == sub {
				w.current = nil
			}
			w.mu.Unlock()
			w.forward(WatchEvent{Type: WatchDeleted})

		default:
			w.mu.Lock()
			stale := w.sub != sub
			if !stale {
				w.current = ev.Match
			}
			w.mu.Unlock()
			if stale {
				// A newer StartWatching superseded this subscription.
				return
			}

			w.forward(WatchEvent{Type: WatchSnapshot, Match: ev.Match})

			// Advancement failures are logged, never fatal to the
			// subscription; the next snapshot gets evaluated regardless.
			if err := w.sync.Evaluate(context.Background(), ev.Match); err != nil {
				w.logger.Warn("round advancement write failed",
					zap.String("matchId", ev.Match.MatchID), zap.Error(err))
			}
		}
	}
}

func (w *MatchWatcher) forward(ev WatchEvent) {
	select {
	case w.events <- ev:
	default:
		// Drop if the consumer is slow.
	}
}
