package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-video-queue/internal/domain"
	"ai-video-queue/internal/domain/model"
	"ai-video-queue/internal/domain/ports/adapter"
	"ai-video-queue/internal/domain/ports/repository"
	"ai-video-queue/internal/infra/logging"
	"ai-video-queue/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ DispatchUseCase = (*dispatchUC)(nil)

type Outcome string

const (
	OutcomeIdle      Outcome = "idle"
	OutcomeBusy      Outcome = "busy"
	OutcomeProcessed Outcome = "processed"
	OutcomeFailed    Outcome = "failed"
)

const defaultDeliveryTimeout = 30 * time.Second

type DispatchUseCase interface {
	// Tick processes at most one pending job, oldest first. It is safe to
	// call concurrently: only one caller can hold the processing slot, the
	// rest return OutcomeBusy without side effects.
	Tick(ctx context.Context) Outcome
}

type DispatchOptions struct {
	Style             adapter.StyleConfig
	GenerationTimeout time.Duration
	DeliveryTimeout   time.Duration
}

type dispatchUC struct {
	store    repository.JobStore
	gen      adapter.GenerationClient
	notifier adapter.Notifier
	msgs     Messages
	events   adapter.EventPublisher
	opts     DispatchOptions
	log      *zerolog.Logger
}

func NewDispatchUseCase(
	store repository.JobStore,
	gen adapter.GenerationClient,
	notifier adapter.Notifier,
	msgs Messages,
	events adapter.EventPublisher,
	opts DispatchOptions,
	logger *zerolog.Logger,
) *dispatchUC {
	if events == nil {
		events = adapter.NopPublisher{}
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = 5 * time.Minute
	}
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = defaultDeliveryTimeout
	}
	l := logger.With().Str("component", "Dispatcher").Logger()
	return &dispatchUC{
		store:    store,
		gen:      gen,
		notifier: notifier,
		msgs:     msgs,
		events:   events,
		opts:     opts,
		log:      &l,
	}
}

func (d *dispatchUC) Tick(ctx context.Context) (outcome Outcome) {
	defer func() { metrics.IncDispatchTick(string(outcome)) }()

	pending, err := d.store.ListByStatus(ctx, model.JobStatusPending)
	if err != nil {
		d.log.Error().Err(err).Msg("list pending jobs")
		return OutcomeIdle
	}
	metrics.SetPendingJobs(len(pending))
	if len(pending) == 0 {
		return OutcomeIdle
	}

	job, err := d.store.Transition(ctx, pending[0].ID, model.JobStatusProcessing, model.JobUpdate{})
	switch {
	case errors.Is(err, domain.ErrDispatcherBusy), errors.Is(err, domain.ErrInvalidTransition):
		// another tick holds the slot or claimed this job first
		return OutcomeBusy
	case err != nil:
		d.log.Error().Err(err).Str("job_id", pending[0].ID).Msg("claim job")
		return OutcomeIdle
	}
	d.events.Publish(model.NewJobEvent(job))

	// The job is ours from here on; caller cancellation must not strand it.
	jobCtx := logging.WithRequester(logging.WithJobID(context.WithoutCancel(ctx), job.ID), job.Requester)
	return d.process(jobCtx, job)
}

func (d *dispatchUC) process(ctx context.Context, job *model.Job) (outcome Outcome) {
	l := logging.With(ctx, d.log)
	defer func() {
		if rec := recover(); rec != nil {
			l.Error().Interface("panic", rec).Msg("panic while processing job")
			outcome = d.fail(ctx, job, fmt.Errorf("internal error: %v", rec), "")
		}
	}()

	l.Info().Msg("processing job")
	ref, err := d.generate(ctx, job)
	if err != nil {
		return d.fail(ctx, job, err, "")
	}

	// Deliver while still processing so a failed delivery never has to
	// move a completed job backwards.
	if err := d.deliver(ctx, adapter.Delivery{
		ReplyChannel: job.ReplyChannel,
		Text:         d.msgs.T("video_ready", job.Prompt),
		MediaURL:     ref,
	}); err != nil {
		return d.fail(ctx, job, err, ref)
	}

	done, err := d.store.Transition(ctx, job.ID, model.JobStatusCompleted, model.JobUpdate{ResultRef: ref})
	if err != nil {
		l.Error().Err(err).Msg("complete job")
		return OutcomeFailed
	}
	if err := d.store.UpsertSession(ctx, job.Requester, model.SessionUpdate{Status: model.SessionCompleted}); err != nil {
		l.Error().Err(err).Msg("session update failed")
	}
	metrics.IncJobProcessed(string(model.JobStatusCompleted))
	d.events.Publish(model.NewJobEvent(done))
	l.Info().Str("result_ref", ref).Dur("duration", done.CompletedAt.Sub(*done.StartedAt)).Msg("job completed")
	return OutcomeProcessed
}

func (d *dispatchUC) generate(ctx context.Context, job *model.Job) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, d.opts.GenerationTimeout)
	defer cancel()

	start := time.Now()
	ref, err := d.gen.Generate(runCtx, job.Prompt, d.opts.Style)
	metrics.ObserveGeneration(d.gen.Name(), time.Since(start), err == nil)

	switch {
	case err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return "", &domain.GenerationError{
			Provider: d.gen.Name(),
			Err:      fmt.Errorf("%w after %s: %v", domain.ErrGenerationTimeout, d.opts.GenerationTimeout, err),
		}
	case err != nil:
		var ge *domain.GenerationError
		if errors.As(err, &ge) {
			return "", err
		}
		return "", &domain.GenerationError{Provider: d.gen.Name(), Err: err}
	case ref == "":
		return "", &domain.GenerationError{Provider: d.gen.Name(), Err: errors.New("empty result reference")}
	}
	return ref, nil
}

func (d *dispatchUC) deliver(ctx context.Context, msg adapter.Delivery) error {
	dctx, cancel := context.WithTimeout(ctx, d.opts.DeliveryTimeout)
	defer cancel()
	return d.notifier.Deliver(dctx, msg)
}

// fail records err on the job and sends a best-effort failure notice.
func (d *dispatchUC) fail(ctx context.Context, job *model.Job, cause error, ref string) Outcome {
	l := logging.With(ctx, d.log)
	l.Error().Err(cause).Msg("job failed")

	failed, err := d.store.Transition(ctx, job.ID, model.JobStatusFailed, model.JobUpdate{
		Error:     cause.Error(),
		ResultRef: ref,
	})
	if err != nil {
		l.Error().Err(err).Msg("mark job failed")
		return OutcomeFailed
	}
	if err := d.store.UpsertSession(ctx, job.Requester, model.SessionUpdate{Status: model.SessionIdle}); err != nil {
		l.Error().Err(err).Msg("session update failed")
	}
	metrics.IncJobProcessed(string(model.JobStatusFailed))
	d.events.Publish(model.NewJobEvent(failed))

	if err := d.deliver(ctx, adapter.Delivery{
		ReplyChannel: job.ReplyChannel,
		Text:         d.msgs.T("video_failed", model.TruncatePrompt(job.Prompt)),
	}); err != nil {
		l.Warn().Err(err).Msg("failure notice not delivered")
	}
	return OutcomeFailed
}
