package match_store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"quizduel/internal/models"
)

const (
	matchKeyPrefix     = "match:"
	eventChannelPrefix = "match.events:"
)

func matchKey(code string) string     { return matchKeyPrefix + code }
func eventChannel(code string) string { return eventChannelPrefix + code }

// changePayload is the wire shape published on a match's event channel.
type changePayload struct {
	Deleted bool          `json:"deleted,omitempty"`
	Match   *models.Match `json:"match,omitempty"`
}

// RedisMatchStore keeps each match as a hash under match:<code>, one hash
// field per document field path. HSET-per-field gives last-writer-wins
// semantics per path, HSETNX provides the atomic create claim, and every
// write publishes the full document on match.events:<code> so subscribers
// converge on the committed state.
type RedisMatchStore struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisMatchStore(rdb *redis.Client, logger *zap.Logger) *RedisMatchStore {
	return &RedisMatchStore{rdb: rdb, logger: logger}
}

func (s *RedisMatchStore) Get(ctx context.Context, code string) (*models.Match, error) {
	fields, err := s.rdb.HGetAll(ctx, matchKey(code)).Result()
	if err != nil {
		return nil, &models.StoreUnavailableError{Op: "get", Err: err}
	}
	if len(fields) == 0 {
		return nil, models.ErrNotFound
	}
	return decodeMatch(code, fields)
}

func (s *RedisMatchStore) CreateIfAbsent(ctx context.Context, m *models.Match) (*models.Match, error) {
	key := matchKey(m.MatchID)

	// The status field doubles as the existence claim. HSETNX is the one
	// atomic conditional primitive the engine depends on: a concurrent
	// creator of the same code loses distinguishably instead of overwriting.
	claimed, err := s.rdb.HSetNX(ctx, key, FieldStatus, m.Status).Result()
	if err != nil {
		return nil, &models.StoreUnavailableError{Op: "createIfAbsent", Err: err}
	}
	if !claimed {
		return nil, models.ErrAlreadyExists
	}

	m.CreatedAt = time.Now().UTC()
	fields := make(map[string]any)
	for f, v := range encodeMatch(m) {
		encoded, err := encodeValue(v)
		if err != nil {
			return nil, err
		}
		fields[f] = encoded
	}
	if err := s.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return nil, &models.StoreUnavailableError{Op: "createIfAbsent", Err: err}
	}

	s.publish(ctx, m.MatchID)
	return m, nil
}

func (s *RedisMatchStore) Update(ctx context.Context, code string, fields map[string]any) error {
	key := matchKey(code)

	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return &models.StoreUnavailableError{Op: "update", Err: err}
	}
	if exists == 0 {
		return models.ErrNotFound
	}

	sets := make(map[string]any)
	for field, value := range fields {
		if inc, ok := value.(Incr); ok {
			if err := s.rdb.HIncrBy(ctx, key, field, inc.By).Err(); err != nil {
				return &models.StoreUnavailableError{Op: "update", Err: err}
			}
			continue
		}
		encoded, err := encodeValue(value)
		if err != nil {
			return err
		}
		sets[field] = encoded
	}
	if len(sets) > 0 {
		if err := s.rdb.HSet(ctx, key, sets).Err(); err != nil {
			return &models.StoreUnavailableError{Op: "update", Err: err}
		}
	}

	s.publish(ctx, code)
	return nil
}

func (s *RedisMatchStore) Delete(ctx context.Context, code string) error {
	removed, err := s.rdb.Del(ctx, matchKey(code)).Result()
	if err != nil {
		return &models.StoreUnavailableError{Op: "delete", Err: err}
	}
	if removed > 0 {
		s.publishPayload(ctx, code, changePayload{Deleted: true})
	}
	return nil
}

func (s *RedisMatchStore) Subscribe(ctx context.Context, code string) (*Subscription, error) {
	pubsub := s.rdb.Subscribe(ctx, eventChannel(code))

	// Confirm the subscription is established before the initial read so no
	// write committed after Subscribe returns can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, &models.StoreUnavailableError{Op: "subscribe", Err: err}
	}

	sub := &Subscription{
		ID:     uuid.NewString(),
		events: make(chan Event, 16),
		closed: make(chan struct{}),
		pubsub: pubsub,
	}
	go s.stream(code, sub)
	return sub, nil
}

// stream feeds a subscription: the current state first, then one event per
// published change. A transport failure surfaces as a single stream-error
// event and ends the stream; resubscribing is the caller's decision.
func (s *RedisMatchStore) stream(code string, sub *Subscription) {
	defer close(sub.events)

	initial, err := s.Get(context.Background(), code)
	switch {
	case err == nil:
		if !sub.send(Event{Match: initial}) {
			return
		}
	case errors.Is(err, models.ErrNotFound):
		if !sub.send(Event{Deleted: true}) {
			return
		}
	default:
		sub.send(Event{Err: err})
		return
	}

	for {
		msg, err := sub.pubsub.ReceiveMessage(context.Background())
		if err != nil {
			select {
			case <-sub.closed:
				// Torn down by the subscriber, not a stream failure.
			default:
				sub.send(Event{Err: &models.StoreUnavailableError{Op: "subscribe", Err: err}})
			}
			return
		}

		var payload changePayload
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			s.logger.Warn("dropping malformed change notification",
				zap.String("matchId", code), zap.Error(err))
			continue
		}
		if payload.Deleted {
			if !sub.send(Event{Deleted: true}) {
				return
			}
			continue
		}
		if !sub.send(Event{Match: payload.Match}) {
			return
		}
	}
}

// publish reads the document back and broadcasts it to subscribers. The
// read-back reflects whatever writes have been committed so far, which is
// exactly the snapshot subscribers should converge on.
func (s *RedisMatchStore) publish(ctx context.Context, code string) {
	m, err := s.Get(ctx, code)
	if err != nil {
		s.logger.Warn("failed to read match back for change notification",
			zap.String("matchId", code), zap.Error(err))
		return
	}
	s.publishPayload(ctx, code, changePayload{Match: m})
}

func (s *RedisMatchStore) publishPayload(ctx context.Context, code string, payload changePayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("failed to encode change notification",
			zap.String("matchId", code), zap.Error(err))
		return
	}
	if err := s.rdb.Publish(ctx, eventChannel(code), data).Err(); err != nil {
		s.logger.Warn("failed to publish change notification",
			zap.String("matchId", code), zap.Error(err))
	}
}

// ListCodes returns the room codes of every live match document. Used by the
// housekeeping sweep, not by the engine itself.
func (s *RedisMatchStore) ListCodes(ctx context.Context) ([]string, error) {
	keys, err := s.rdb.Keys(ctx, matchKeyPrefix+"*").Result()
	if err != nil {
		return nil, &models.StoreUnavailableError{Op: "list", Err: err}
	}
	codes := make([]string, 0, len(keys))
	for _, key := range keys {
		codes = append(codes, strings.TrimPrefix(key, matchKeyPrefix))
	}
	return codes, nil
}
