package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ai-video-queue/internal/usecase"
)

// ReaperWorker periodically evicts expired jobs and sessions and reports
// jobs stuck in processing.
type ReaperWorker struct {
	interval time.Duration
	uc       usecase.ReaperUseCase
	now      func() time.Time
	log      *zerolog.Logger
}

func NewReaperWorker(interval time.Duration, uc usecase.ReaperUseCase, logger *zerolog.Logger) *ReaperWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	l := logger.With().Str("component", "ReaperWorker").Logger()
	return &ReaperWorker{
		interval: interval,
		uc:       uc,
		now:      time.Now,
		log:      &l,
	}
}

func (w *ReaperWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting reaper worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping reaper worker")
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *ReaperWorker) runOnce(ctx context.Context) {
	now := w.now()
	if _, err := w.uc.Sweep(ctx, now); err != nil {
		w.log.Error().Err(err).Msg("reaper sweep error")
	}
	if _, err := w.uc.ReportStuck(ctx, now); err != nil {
		w.log.Error().Err(err).Msg("stuck job check error")
	}
}
