package match_management

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"quizduel/internal/match_store"
	"quizduel/internal/metrics"
	"quizduel/internal/models"
)

// Janitor is the housekeeping sweep the engine itself never performs: it
// deletes finished matches and waiting rooms nobody ever joined once they
// age past their TTLs.
type Janitor struct {
	store       *match_store.RedisMatchStore
	finishedTTL time.Duration
	waitingTTL  time.Duration
	logger      *zap.Logger
	cron        *cron.Cron
}

func NewJanitor(store *match_store.RedisMatchStore, finishedTTL, waitingTTL time.Duration, logger *zap.Logger) *Janitor {
	return &Janitor{
		store:       store,
		finishedTTL: finishedTTL,
		waitingTTL:  waitingTTL,
		logger:      logger,
		cron:        cron.New(),
	}
}

// Start schedules the sweep once a minute.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc("@every 1m", j.Sweep); err != nil {
		return err
	}
	j.cron.Start()
	return nil
}

// Stop halts the schedule; a sweep already running finishes.
func (j *Janitor) Stop() {
	j.cron.Stop()
}

// Sweep scans all live matches and deletes the expired ones.
func (j *Janitor) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	codes, err := j.store.ListCodes(ctx)
	if err != nil {
		j.logger.Warn("janitor sweep failed to list matches", zap.Error(err))
		return
	}

	now := time.Now().UTC()
	for _, code := range codes {
		match, err := j.store.Get(ctx, code)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			j.logger.Warn("janitor failed to read match",
				zap.String("matchId", code), zap.Error(err))
			continue
		}

		if !j.expired(match, now) {
			continue
		}
		if err := j.store.Delete(ctx, code); err != nil {
			j.logger.Warn("janitor failed to delete match",
				zap.String("matchId", code), zap.Error(err))
			continue
		}
		metrics.MatchesSwept.Inc()
		j.logger.Info("swept stale match",
			zap.String("matchId", code), zap.String("status", match.Status))
	}
}

func (j *Janitor) expired(m *models.Match, now time.Time) bool {
	if m.CreatedAt.IsZero() {
		return false
	}
	age := now.Sub(m.CreatedAt)
	switch m.Status {
	case models.StatusFinished:
		return age > j.finishedTTL
	case models.StatusWaiting:
		return age > j.waitingTTL
	default:
		return false
	}
}
