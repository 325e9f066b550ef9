package repository

import (
	"context"
	"time"

	"ai-video-queue/internal/domain/model"
)

// EvictionResult describes what a DeleteExpired call removed.
type EvictionResult struct {
	Jobs     []*model.Job
	Sessions int
}

// JobStore owns all job and session records. Every method is atomic with
// respect to concurrent callers and returns copies, never internal records.
type JobStore interface {
	Create(ctx context.Context, prompt, requester, replyChannel string) (string, error)
	Get(ctx context.Context, id string) (*model.Job, error)
	// ListByStatus returns jobs ordered by CreatedAt, ties broken by insertion order.
	ListByStatus(ctx context.Context, status model.JobStatus) ([]*model.Job, error)
	ListJobs(ctx context.Context) ([]*model.Job, error)
	// Transition moves a job forward. It fails with domain.ErrInvalidTransition,
	// domain.ErrNotFound, or domain.ErrDispatcherBusy when another job is processing.
	Transition(ctx context.Context, id string, to model.JobStatus, upd model.JobUpdate) (*model.Job, error)

	UpsertSession(ctx context.Context, requester string, upd model.SessionUpdate) error
	GetSession(ctx context.Context, requester string) (*model.Session, error)
	ListSessions(ctx context.Context) ([]*model.Session, error)

	// DeleteExpired evicts terminal jobs and sessions older than retention.
	DeleteExpired(ctx context.Context, now time.Time, retention time.Duration) (EvictionResult, error)
}
