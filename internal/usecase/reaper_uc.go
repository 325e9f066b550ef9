package usecase

import (
	"context"
	"time"

	"ai-video-queue/internal/domain/model"
	"ai-video-queue/internal/domain/ports/repository"
	"ai-video-queue/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ReaperUseCase = (*reaperUC)(nil)

type ReaperUseCase interface {
	// Sweep evicts terminal jobs and sessions older than the retention
	// window. Pending and processing jobs are never touched.
	Sweep(ctx context.Context, now time.Time) (int, error)
	// ReportStuck counts processing jobs older than the stuck ceiling.
	ReportStuck(ctx context.Context, now time.Time) (int, error)
}

type reaperUC struct {
	store      repository.JobStore
	archive    repository.JobArchive
	retention  time.Duration
	stuckAfter time.Duration
	log        *zerolog.Logger
}

// NewReaperUseCase builds the eviction use case. archive may be nil.
func NewReaperUseCase(
	store repository.JobStore,
	archive repository.JobArchive,
	retention, stuckAfter time.Duration,
	logger *zerolog.Logger,
) *reaperUC {
	if retention <= 0 {
		retention = time.Hour
	}
	l := logger.With().Str("component", "Reaper").Logger()
	return &reaperUC{
		store:      store,
		archive:    archive,
		retention:  retention,
		stuckAfter: stuckAfter,
		log:        &l,
	}
}

func (r *reaperUC) Sweep(ctx context.Context, now time.Time) (int, error) {
	res, err := r.store.DeleteExpired(ctx, now, r.retention)
	if err != nil {
		return 0, err
	}
	metrics.AddEvicted(len(res.Jobs), res.Sessions)

	if r.archive != nil && len(res.Jobs) > 0 {
		// The store has already dropped these; an archive failure loses them.
		n, err := r.archive.Archive(ctx, res.Jobs)
		if err != nil {
			r.log.Error().Err(err).Int("jobs", len(res.Jobs)).Msg("archive evicted jobs")
		} else {
			metrics.AddArchived(n)
		}
	}

	if len(res.Jobs) > 0 || res.Sessions > 0 {
		r.log.Info().
			Int("jobs", len(res.Jobs)).
			Int("sessions", res.Sessions).
			Dur("retention", r.retention).
			Msg("evicted expired records")
	}
	return len(res.Jobs) + res.Sessions, nil
}

func (r *reaperUC) ReportStuck(ctx context.Context, now time.Time) (int, error) {
	if r.stuckAfter <= 0 {
		return 0, nil
	}
	processing, err := r.store.ListByStatus(ctx, model.JobStatusProcessing)
	if err != nil {
		return 0, err
	}
	stuck := 0
	for _, j := range processing {
		if age := j.Age(now); age > r.stuckAfter {
			stuck++
			r.log.Warn().Str("job_id", j.ID).Dur("age", age).Msg("job stuck in processing")
		}
	}
	metrics.SetStuckJobs(stuck)
	return stuck, nil
}
