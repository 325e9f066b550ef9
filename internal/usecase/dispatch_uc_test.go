//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ai-video-queue/internal/domain"
	"ai-video-queue/internal/domain/model"
	"ai-video-queue/internal/infra/db/memory"
	"ai-video-queue/internal/usecase"
)

type dispatchFixture struct {
	store    *memory.JobStore
	intake   usecase.IntakeUseCase
	gen      *fakeGenerator
	notifier *fakeNotifier
	pub      *recordingPublisher
	uc       usecase.DispatchUseCase
}

func newDispatchFixture(t *testing.T, fn func(ctx context.Context, prompt string) (string, error), timeout time.Duration) *dispatchFixture {
	t.Helper()
	msgs := testMessages(t)
	f := &dispatchFixture{
		store:    memory.NewJobStore(),
		gen:      &fakeGenerator{fn: fn},
		notifier: &fakeNotifier{},
		pub:      &recordingPublisher{},
	}
	f.intake = usecase.NewIntakeUseCase(f.store, usecase.NewClassifier(10), msgs, nil, f.pub, quietLogger())
	f.uc = usecase.NewDispatchUseCase(f.store, f.gen, f.notifier, msgs, f.pub,
		usecase.DispatchOptions{GenerationTimeout: timeout}, quietLogger())
	return f
}

func TestDispatchUseCase_Success(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, func(context.Context, string) (string, error) {
		return "ref-123", nil
	}, time.Minute)

	job, err := f.intake.Submit(ctx, "telegram", "A robot dancing in the rain", "telegram:42", "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if got := f.uc.Tick(ctx); got != usecase.OutcomeProcessed {
		t.Fatalf("Tick() = %s, want processed", got)
	}

	done, _ := f.store.Get(ctx, job.ID)
	if done.Status != model.JobStatusCompleted || done.ResultRef != "ref-123" {
		t.Errorf("unexpected job %+v", done)
	}
	if done.StartedAt == nil || done.CompletedAt == nil || done.CompletedAt.Before(*done.StartedAt) {
		t.Errorf("timestamps not set in order: %+v", done)
	}

	deliveries := f.notifier.Deliveries()
	if len(deliveries) != 1 {
		t.Fatalf("expected exactly one delivery, got %d", len(deliveries))
	}
	d := deliveries[0]
	if d.ReplyChannel != "telegram:42" || d.MediaURL != "ref-123" {
		t.Errorf("unexpected delivery %+v", d)
	}
	if d.Text != "Here's your video for: 'A robot dancing in the rain'!" {
		t.Errorf("unexpected delivery text %q", d.Text)
	}

	sess, _ := f.store.GetSession(ctx, "telegram:42")
	if sess.Status != model.SessionCompleted {
		t.Errorf("session status = %s, want completed", sess.Status)
	}

	want := []model.JobStatus{model.JobStatusPending, model.JobStatusProcessing, model.JobStatusCompleted}
	got := f.pub.Statuses()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}

	if got := f.uc.Tick(ctx); got != usecase.OutcomeIdle {
		t.Errorf("second Tick() = %s, want idle", got)
	}
}

func TestDispatchUseCase_GenerationFailure(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, func(context.Context, string) (string, error) {
		return "", errors.New("model overloaded")
	}, time.Minute)

	job, _ := f.intake.Submit(ctx, "telegram", "A robot dancing in the rain", "telegram:42", "")
	if got := f.uc.Tick(ctx); got != usecase.OutcomeFailed {
		t.Fatalf("Tick() = %s, want failed", got)
	}

	failed, _ := f.store.Get(ctx, job.ID)
	if failed.Status != model.JobStatusFailed {
		t.Fatalf("status = %s, want failed", failed.Status)
	}
	if !strings.Contains(failed.Error, "model overloaded") {
		t.Errorf("error not recorded: %q", failed.Error)
	}
	if failed.ResultRef != "" {
		t.Errorf("failed job must not carry a result, got %q", failed.ResultRef)
	}

	deliveries := f.notifier.Deliveries()
	if len(deliveries) != 1 || deliveries[0].MediaURL != "" {
		t.Fatalf("expected one text-only failure notice, got %+v", deliveries)
	}
	if !strings.Contains(deliveries[0].Text, "A robot dancing in the rain") {
		t.Errorf("failure notice should quote the prompt: %q", deliveries[0].Text)
	}

	sess, _ := f.store.GetSession(ctx, "telegram:42")
	if sess.Status != model.SessionIdle {
		t.Errorf("session status = %s, want idle", sess.Status)
	}
}

func TestDispatchUseCase_DeliveryFailure(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, func(context.Context, string) (string, error) {
		return "https://cdn.example/video.mp4", nil
	}, time.Minute)
	f.notifier.mediaErr = &domain.DeliveryError{Channel: "telegram", Err: errors.New("chat not found")}

	job, _ := f.intake.Submit(ctx, "telegram", "A robot dancing in the rain", "telegram:42", "")
	if got := f.uc.Tick(ctx); got != usecase.OutcomeFailed {
		t.Fatalf("Tick() = %s, want failed", got)
	}

	failed, _ := f.store.Get(ctx, job.ID)
	if failed.Status != model.JobStatusFailed {
		t.Fatalf("status = %s, want failed", failed.Status)
	}
	if !strings.Contains(failed.Error, "chat not found") {
		t.Errorf("delivery error not recorded: %q", failed.Error)
	}
	if failed.ResultRef != "https://cdn.example/video.mp4" {
		t.Errorf("generated ref should be kept for diagnosis, got %q", failed.ResultRef)
	}
	if n := len(f.notifier.Deliveries()); n != 2 {
		t.Errorf("expected video attempt plus failure notice, got %d deliveries", n)
	}
}

func TestDispatchUseCase_FailureNoticeErrorIsSwallowed(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, func(context.Context, string) (string, error) {
		return "", errors.New("boom")
	}, time.Minute)
	f.notifier.textErr = errors.New("network down")

	job, _ := f.intake.Submit(ctx, "telegram", "A robot dancing in the rain", "telegram:42", "")
	if got := f.uc.Tick(ctx); got != usecase.OutcomeFailed {
		t.Fatalf("Tick() = %s, want failed", got)
	}
	failed, _ := f.store.Get(ctx, job.ID)
	if failed.Status != model.JobStatusFailed || !strings.Contains(failed.Error, "boom") {
		t.Errorf("job should keep the generation error, got %+v", failed)
	}
}

func TestDispatchUseCase_GenerationTimeout(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}, 20*time.Millisecond)

	job, _ := f.intake.Submit(ctx, "telegram", "A robot dancing in the rain", "telegram:42", "")
	if got := f.uc.Tick(ctx); got != usecase.OutcomeFailed {
		t.Fatalf("Tick() = %s, want failed", got)
	}
	failed, _ := f.store.Get(ctx, job.ID)
	if !strings.Contains(failed.Error, domain.ErrGenerationTimeout.Error()) {
		t.Errorf("expected timeout error, got %q", failed.Error)
	}
}

func TestDispatchUseCase_EmptyResultIsFailure(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, func(context.Context, string) (string, error) {
		return "", nil
	}, time.Minute)

	job, _ := f.intake.Submit(ctx, "telegram", "A robot dancing in the rain", "telegram:42", "")
	f.uc.Tick(ctx)
	failed, _ := f.store.Get(ctx, job.ID)
	if failed.Status != model.JobStatusFailed {
		t.Errorf("status = %s, want failed", failed.Status)
	}
}

func TestDispatchUseCase_PanicInAdapterFailsJob(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, func(context.Context, string) (string, error) {
		panic("adapter bug")
	}, time.Minute)

	job, _ := f.intake.Submit(ctx, "telegram", "A robot dancing in the rain", "telegram:42", "")
	if got := f.uc.Tick(ctx); got != usecase.OutcomeFailed {
		t.Fatalf("Tick() = %s, want failed", got)
	}
	failed, _ := f.store.Get(ctx, job.ID)
	if failed.Status != model.JobStatusFailed || !strings.Contains(failed.Error, "adapter bug") {
		t.Errorf("unexpected job %+v", failed)
	}
}

func TestDispatchUseCase_FIFO(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, func(_ context.Context, prompt string) (string, error) {
		return "ref:" + prompt, nil
	}, time.Minute)

	prompts := []string{
		"First prompt about a robot",
		"Second prompt about a cat",
		"Third prompt about a boat",
	}
	for i, p := range prompts {
		if _, err := f.intake.Submit(ctx, "api", p, "u", ""); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	for range prompts {
		if got := f.uc.Tick(ctx); got != usecase.OutcomeProcessed {
			t.Fatalf("Tick() = %s, want processed", got)
		}
	}
	got := f.gen.Prompts()
	if len(got) != len(prompts) {
		t.Fatalf("generated %d prompts, want %d", len(got), len(prompts))
	}
	for i := range prompts {
		if got[i] != prompts[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], prompts[i])
		}
	}
}

func TestDispatchUseCase_ConcurrentTicksAreSingleFlight(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	f := newDispatchFixture(t, func(context.Context, string) (string, error) {
		started <- struct{}{}
		<-release
		return "ref", nil
	}, time.Minute)

	_, _ = f.intake.Submit(ctx, "api", "First prompt about a robot", "u1", "")
	_, _ = f.intake.Submit(ctx, "api", "Second prompt about a cat", "u2", "")

	first := make(chan usecase.Outcome, 1)
	go func() { first <- f.uc.Tick(ctx) }()
	<-started

	const callers = 8
	var wg sync.WaitGroup
	outcomes := make(chan usecase.Outcome, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes <- f.uc.Tick(ctx)
		}()
	}
	wg.Wait()
	close(outcomes)
	for o := range outcomes {
		if o != usecase.OutcomeBusy {
			t.Errorf("concurrent Tick() = %s, want busy", o)
		}
	}

	processing, _ := f.store.ListByStatus(ctx, model.JobStatusProcessing)
	if len(processing) != 1 {
		t.Errorf("expected exactly one processing job, got %d", len(processing))
	}

	close(release)
	if got := <-first; got != usecase.OutcomeProcessed {
		t.Errorf("first Tick() = %s, want processed", got)
	}
	if n := len(f.gen.Prompts()); n != 1 {
		t.Errorf("generator called %d times, want 1", n)
	}
	if got := f.uc.Tick(ctx); got != usecase.OutcomeProcessed {
		t.Errorf("follow-up Tick() = %s, want processed", got)
	}
}

func TestDispatchUseCase_CallerCancellationDoesNotStrandJob(t *testing.T) {
	f := newDispatchFixture(t, func(ctx context.Context, _ string) (string, error) {
		return "ref", ctx.Err()
	}, time.Minute)

	_, _ = f.intake.Submit(context.Background(), "api", "A robot dancing in the rain", "u", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := f.uc.Tick(ctx); got != usecase.OutcomeProcessed {
		t.Errorf("Tick() = %s, want processed", got)
	}
}
