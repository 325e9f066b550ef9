package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"ai-video-queue/internal/usecase"
)

// ErrTriggerPending is returned by Trigger when the caller stopped waiting
// before the tick finished. The tick itself keeps running.
var ErrTriggerPending = errors.New("dispatch still running")

// DispatchWorker drives the dispatcher off the request path: a ticker
// submits ticks to the pool, and Trigger lets admins request one on demand.
type DispatchWorker struct {
	interval time.Duration
	uc       usecase.DispatchUseCase
	pool     *Pool
	log      *zerolog.Logger

	// set from submit until the tick returns, so it covers queued ticks too
	claimed atomic.Bool
}

func NewDispatchWorker(interval time.Duration, uc usecase.DispatchUseCase, pool *Pool, logger *zerolog.Logger) *DispatchWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	l := logger.With().Str("component", "DispatchWorker").Logger()
	return &DispatchWorker{interval: interval, uc: uc, pool: pool, log: &l}
}

// Run polls for pending jobs until ctx is cancelled.
func (w *DispatchWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting dispatch worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping dispatch worker")
			return ctx.Err()
		case <-ticker.C:
			if err := w.submit(nil); err != nil && !errors.Is(err, errTickClaimed) {
				w.log.Debug().Err(err).Msg("tick skipped")
			}
		}
	}
}

// Trigger runs one tick on the pool and waits for its outcome or for ctx.
// It answers busy at once when another tick is queued or running.
func (w *DispatchWorker) Trigger(ctx context.Context) (usecase.Outcome, error) {
	result := make(chan usecase.Outcome, 1)
	if err := w.submit(result); err != nil {
		if errors.Is(err, errTickClaimed) || errors.Is(err, ErrQueueFull) {
			return usecase.OutcomeBusy, nil
		}
		return "", err
	}
	select {
	case o := <-result:
		return o, nil
	case <-ctx.Done():
		return usecase.OutcomeBusy, ErrTriggerPending
	}
}

var errTickClaimed = errors.New("tick already queued or running")

func (w *DispatchWorker) submit(result chan<- usecase.Outcome) error {
	if !w.claimed.CompareAndSwap(false, true) {
		return errTickClaimed
	}
	if err := w.pool.Submit(w.task(result)); err != nil {
		w.claimed.Store(false)
		return err
	}
	return nil
}

func (w *DispatchWorker) task(result chan<- usecase.Outcome) Task {
	return func(ctx context.Context) error {
		// released before the result is sent so the caller can trigger again
		outcome := func() usecase.Outcome {
			defer w.claimed.Store(false)
			return w.uc.Tick(ctx)
		}()
		if outcome == usecase.OutcomeProcessed || outcome == usecase.OutcomeFailed {
			w.log.Info().Str("outcome", string(outcome)).Msg("dispatch tick finished")
		}
		if result != nil {
			result <- outcome
		}
		return nil
	}
}
