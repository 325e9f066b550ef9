//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-video-queue/internal/domain"
	"ai-video-queue/internal/domain/model"
	"ai-video-queue/internal/infra/db/memory"
	"ai-video-queue/internal/usecase"
)

func TestClassifier(t *testing.T) {
	c := usecase.NewClassifier(0)
	cases := []struct {
		in   string
		want usecase.IntentKind
	}{
		{"/help", usecase.IntentHelp},
		{"/HELP", usecase.IntentHelp},
		{"Help", usecase.IntentHelp},
		{"/start", usecase.IntentHelp},
		{"/help@video_bot", usecase.IntentHelp},
		{"/helpme", usecase.IntentHelp},
		{"/STATUSES", usecase.IntentStatus},
		{"/queued", usecase.IntentQueue},
		{"/stat", usecase.IntentTooShort},
		{"  status  ", usecase.IntentStatus},
		{"/queue", usecase.IntentQueue},
		{"/examples", usecase.IntentExample},
		{"example please", usecase.IntentExample},
		{"cat", usecase.IntentTooShort},
		{"", usecase.IntentTooShort},
		{"helpful robots building a bridge", usecase.IntentGenerate},
		{"statues of robots in a park", usecase.IntentGenerate},
		{"A cat playing piano in space", usecase.IntentGenerate},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got := c.Classify(tc.in)
			if got.Kind != tc.want {
				t.Fatalf("Classify(%q) = %s, want %s", tc.in, got.Kind, tc.want)
			}
			if tc.want == usecase.IntentGenerate && got.Prompt != strings.TrimSpace(tc.in) {
				t.Errorf("prompt = %q", got.Prompt)
			}
		})
	}

	t.Run("length counts runes", func(t *testing.T) {
		if got := c.Classify("ドラゴンが空を飛ぶ"); got.Kind != usecase.IntentTooShort {
			t.Errorf("9 runes should be too short, got %s", got.Kind)
		}
		if got := c.Classify("ドラゴンが空を飛ぶ！"); got.Kind != usecase.IntentGenerate {
			t.Errorf("10 runes should generate, got %s", got.Kind)
		}
	})
}

func TestIntakeUseCase(t *testing.T) {
	ctx := context.Background()
	msgs := testMessages(t)

	newUC := func(limiter *fakeLimiter) (usecase.IntakeUseCase, *memory.JobStore, *recordingPublisher) {
		store := memory.NewJobStore()
		pub := &recordingPublisher{}
		var uc usecase.IntakeUseCase
		if limiter != nil {
			uc = usecase.NewIntakeUseCase(store, usecase.NewClassifier(10), msgs, limiter, pub, quietLogger())
		} else {
			uc = usecase.NewIntakeUseCase(store, usecase.NewClassifier(10), msgs, nil, pub, quietLogger())
		}
		return uc, store, pub
	}

	t.Run("help does not create a job", func(t *testing.T) {
		uc, store, _ := newUC(nil)
		reply, err := uc.HandleMessage(ctx, usecase.InboundMessage{Requester: "u1", Text: "/help"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Intent != usecase.IntentHelp || reply.Text != msgs.T("help") {
			t.Errorf("unexpected reply %+v", reply)
		}
		jobs, _ := store.ListJobs(ctx)
		if len(jobs) != 0 {
			t.Errorf("expected no jobs, got %d", len(jobs))
		}
	})

	t.Run("short text is rejected with the minimum length", func(t *testing.T) {
		uc, store, _ := newUC(nil)
		reply, err := uc.HandleMessage(ctx, usecase.InboundMessage{Requester: "u1", Text: "cat"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Intent != usecase.IntentTooShort || !strings.Contains(reply.Text, "10") {
			t.Errorf("unexpected reply %+v", reply)
		}
		jobs, _ := store.ListJobs(ctx)
		if len(jobs) != 0 {
			t.Errorf("expected no jobs, got %d", len(jobs))
		}
	})

	t.Run("prompt creates a pending job and a generating session", func(t *testing.T) {
		uc, store, pub := newUC(nil)
		reply, err := uc.HandleMessage(ctx, usecase.InboundMessage{
			Channel:      "webhook",
			Requester:    "whatsapp:+15550001111",
			ReplyChannel: "whatsapp:+15550001111",
			Text:         "A cat playing piano in space",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Intent != usecase.IntentGenerate || reply.JobID == "" {
			t.Fatalf("unexpected reply %+v", reply)
		}
		if !strings.Contains(reply.Text, reply.JobID) {
			t.Errorf("reply should mention the job id: %q", reply.Text)
		}

		job, err := store.Get(ctx, reply.JobID)
		if err != nil {
			t.Fatalf("job not stored: %v", err)
		}
		if job.Status != model.JobStatusPending || job.Prompt != "A cat playing piano in space" {
			t.Errorf("unexpected job %+v", job)
		}
		sess, err := store.GetSession(ctx, "whatsapp:+15550001111")
		if err != nil {
			t.Fatalf("session missing: %v", err)
		}
		if sess.Status != model.SessionGenerating || sess.LastPrompt != job.Prompt {
			t.Errorf("unexpected session %+v", sess)
		}
		if got := pub.Statuses(); len(got) != 1 || got[0] != model.JobStatusPending {
			t.Errorf("expected one pending event, got %v", got)
		}
	})

	t.Run("status reflects the session", func(t *testing.T) {
		uc, _, _ := newUC(nil)
		reply, _ := uc.HandleMessage(ctx, usecase.InboundMessage{Requester: "u2", Text: "/status"})
		if reply.Text != msgs.T("status_idle") {
			t.Errorf("expected idle status, got %q", reply.Text)
		}
		_, _ = uc.HandleMessage(ctx, usecase.InboundMessage{Requester: "u2", Text: "A robot dancing in the rain"})
		reply, _ = uc.HandleMessage(ctx, usecase.InboundMessage{Requester: "u2", Text: "status"})
		if reply.Text != msgs.T("status_generating", "A robot dancing in the rain") {
			t.Errorf("expected generating status, got %q", reply.Text)
		}
	})

	t.Run("queue reports counts and position", func(t *testing.T) {
		uc, _, _ := newUC(nil)
		_, _ = uc.HandleMessage(ctx, usecase.InboundMessage{Requester: "other", Text: "A paper boat on a stormy street"})
		_, _ = uc.HandleMessage(ctx, usecase.InboundMessage{Requester: "u3", Text: "A robot dancing in the rain"})
		_, _ = uc.HandleMessage(ctx, usecase.InboundMessage{Requester: "u3", Text: "A cat playing piano in space"})

		reply, err := uc.HandleMessage(ctx, usecase.InboundMessage{Requester: "u3", Text: "/queue"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := msgs.T("queue_summary", 2, 0, 2); reply.Text != want {
			t.Errorf("got %q, want %q", reply.Text, want)
		}

		reply, _ = uc.HandleMessage(ctx, usecase.InboundMessage{Requester: "nobody", Text: "/queue"})
		if reply.Text != msgs.T("queue_empty") {
			t.Errorf("expected empty queue, got %q", reply.Text)
		}
	})

	t.Run("rate limited requester gets a throttle reply", func(t *testing.T) {
		limiter := &fakeLimiter{allowed: false}
		uc, store, _ := newUC(limiter)
		reply, err := uc.HandleMessage(ctx, usecase.InboundMessage{Requester: "u4", Text: "A cat playing piano in space"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Intent != usecase.IntentRateLimited {
			t.Errorf("expected rate limited, got %s", reply.Intent)
		}
		jobs, _ := store.ListJobs(ctx)
		if len(jobs) != 0 {
			t.Errorf("throttled message must not create a job")
		}
		if len(limiter.keys) != 1 || limiter.keys[0] != "u4" {
			t.Errorf("limiter keyed by %v", limiter.keys)
		}
	})

	t.Run("limiter errors fail open", func(t *testing.T) {
		uc, _, _ := newUC(&fakeLimiter{err: errors.New("redis down")})
		reply, err := uc.HandleMessage(ctx, usecase.InboundMessage{Requester: "u5", Text: "A cat playing piano in space"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Intent != usecase.IntentGenerate {
			t.Errorf("expected generate, got %s", reply.Intent)
		}
	})

	t.Run("missing requester is rejected", func(t *testing.T) {
		uc, _, _ := newUC(nil)
		_, err := uc.HandleMessage(ctx, usecase.InboundMessage{Text: "A cat playing piano in space"})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("submit defaults the reply channel to the requester", func(t *testing.T) {
		uc, _, _ := newUC(nil)
		job, err := uc.Submit(ctx, "api", "A robot dancing in the rain", "telegram:42", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if job.ReplyChannel != "telegram:42" {
			t.Errorf("reply channel = %q", job.ReplyChannel)
		}
	})
}
