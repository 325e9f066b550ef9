//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-video-queue/internal/domain"
	"ai-video-queue/internal/domain/model"
	"ai-video-queue/internal/infra/db/memory"
	"ai-video-queue/internal/usecase"
)

func TestReaperUseCase(t *testing.T) {
	ctx := context.Background()

	// seed leaves one completed job, one processing job and one pending job.
	seed := func(t *testing.T) (*memory.JobStore, map[model.JobStatus]string) {
		t.Helper()
		store := memory.NewJobStore()
		ids := map[model.JobStatus]string{}

		done, _ := store.Create(ctx, "A robot dancing in the rain", "u1", "")
		if _, err := store.Transition(ctx, done, model.JobStatusProcessing, model.JobUpdate{}); err != nil {
			t.Fatalf("claim: %v", err)
		}
		if _, err := store.Transition(ctx, done, model.JobStatusCompleted, model.JobUpdate{ResultRef: "ref"}); err != nil {
			t.Fatalf("complete: %v", err)
		}
		ids[model.JobStatusCompleted] = done

		busy, _ := store.Create(ctx, "A cat playing piano in space", "u2", "")
		if _, err := store.Transition(ctx, busy, model.JobStatusProcessing, model.JobUpdate{}); err != nil {
			t.Fatalf("claim: %v", err)
		}
		ids[model.JobStatusProcessing] = busy

		waiting, _ := store.Create(ctx, "A paper boat on a stormy street", "u3", "")
		ids[model.JobStatusPending] = waiting
		return store, ids
	}

	t.Run("evicts old terminal jobs and keeps live ones", func(t *testing.T) {
		store, ids := seed(t)
		archive := &fakeArchive{}
		uc := usecase.NewReaperUseCase(store, archive, time.Hour, 0, quietLogger())

		n, err := uc.Sweep(ctx, time.Now().Add(2*time.Hour))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 1 {
			t.Errorf("evicted %d jobs, want 1", n)
		}
		if _, err := store.Get(ctx, ids[model.JobStatusCompleted]); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("completed job should be gone, got %v", err)
		}
		for _, st := range []model.JobStatus{model.JobStatusProcessing, model.JobStatusPending} {
			if _, err := store.Get(ctx, ids[st]); err != nil {
				t.Errorf("%s job must survive eviction: %v", st, err)
			}
		}
		if len(archive.archived) != 1 || archive.archived[0].ID != ids[model.JobStatusCompleted] {
			t.Errorf("unexpected archive contents %+v", archive.archived)
		}
	})

	t.Run("recent terminal jobs are kept", func(t *testing.T) {
		store, ids := seed(t)
		uc := usecase.NewReaperUseCase(store, nil, time.Hour, 0, quietLogger())

		n, err := uc.Sweep(ctx, time.Now())
		if err != nil || n != 0 {
			t.Fatalf("Sweep() = %d, %v; want 0, nil", n, err)
		}
		if _, err := store.Get(ctx, ids[model.JobStatusCompleted]); err != nil {
			t.Errorf("fresh completed job evicted: %v", err)
		}
	})

	t.Run("archive failure does not fail the sweep", func(t *testing.T) {
		store, _ := seed(t)
		uc := usecase.NewReaperUseCase(store, &fakeArchive{err: errors.New("db down")}, time.Hour, 0, quietLogger())

		n, err := uc.Sweep(ctx, time.Now().Add(2*time.Hour))
		if err != nil || n != 1 {
			t.Errorf("Sweep() = %d, %v; want 1, nil", n, err)
		}
	})

	t.Run("counts expired sessions with jobs", func(t *testing.T) {
		store, _ := seed(t)
		for _, u := range []string{"u1", "u2"} {
			if err := store.UpsertSession(ctx, u, model.SessionUpdate{Status: model.SessionCompleted}); err != nil {
				t.Fatalf("upsert session: %v", err)
			}
		}
		uc := usecase.NewReaperUseCase(store, nil, time.Hour, 0, quietLogger())

		n, err := uc.Sweep(ctx, time.Now().Add(2*time.Hour))
		if err != nil || n != 3 {
			t.Fatalf("Sweep() = %d, %v; want 3 (1 job, 2 sessions), nil", n, err)
		}
		if left, _ := store.ListSessions(ctx); len(left) != 0 {
			t.Errorf("%d sessions survived the sweep", len(left))
		}
	})

	t.Run("reports jobs stuck in processing", func(t *testing.T) {
		store, _ := seed(t)
		uc := usecase.NewReaperUseCase(store, nil, time.Hour, 10*time.Minute, quietLogger())

		if n, _ := uc.ReportStuck(ctx, time.Now()); n != 0 {
			t.Errorf("fresh processing job reported stuck")
		}
		if n, _ := uc.ReportStuck(ctx, time.Now().Add(time.Hour)); n != 1 {
			t.Errorf("ReportStuck() = %d, want 1", n)
		}
	})
}
