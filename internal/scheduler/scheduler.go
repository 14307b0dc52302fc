package scheduler

import (
	"context"
	"log/slog"
	"time"

	"corpus_syncer/internal/domain"
	"corpus_syncer/internal/service"
)

// Syncer runs one sync and reports its summary.
type Syncer interface {
	Run(ctx context.Context, opts service.RunOptions) (*domain.SyncSummary, error)
}

// Scheduler triggers scheduled sync runs at a fixed interval, one at a time.
// Serializing runs here is what keeps concurrent writes to the same pid out
// of the pipeline.
type Scheduler struct {
	syncer     Syncer
	interval   time.Duration
	runTimeout time.Duration
	mode       string
	logger     *slog.Logger
}

func NewScheduler(syncer Syncer, interval, runTimeout time.Duration, mode string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		syncer:     syncer,
		interval:   interval,
		runTimeout: runTimeout,
		mode:       mode,
		logger:     logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval, "mode", s.mode)

	s.runSync(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runSync(ctx)
		}
	}
}

func (s *Scheduler) runSync(ctx context.Context) {
	syncCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	opts := service.RunOptions{
		SyncType:    domain.SyncTypeScheduled,
		Mode:        s.mode,
		TriggeredBy: "scheduler",
	}

	if _, err := s.syncer.Run(syncCtx, opts); err != nil {
		s.logger.Error("scheduled sync failed", "error", err)
	}
}
