//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"testing"

	"ai-video-queue/internal/domain/model"
	"ai-video-queue/internal/domain/ports/adapter"
	"ai-video-queue/internal/infra/i18n"

	"github.com/rs/zerolog"
)

func quietLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func testMessages(t *testing.T) *i18n.Translator {
	t.Helper()
	tr, err := i18n.Default()
	if err != nil {
		t.Fatalf("load translations: %v", err)
	}
	return tr
}

// fakeGenerator records prompts and answers with fn.
type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	fn      func(ctx context.Context, prompt string) (string, error)
}

func (g *fakeGenerator) Name() string { return "fake" }

func (g *fakeGenerator) Generate(ctx context.Context, prompt string, _ adapter.StyleConfig) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	return g.fn(ctx, prompt)
}

func (g *fakeGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// fakeNotifier records deliveries. mediaErr is returned for deliveries that
// carry a video, textErr for plain text ones.
type fakeNotifier struct {
	mu         sync.Mutex
	deliveries []adapter.Delivery
	mediaErr   error
	textErr    error
}

func (n *fakeNotifier) Deliver(_ context.Context, d adapter.Delivery) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deliveries = append(n.deliveries, d)
	if d.MediaURL != "" {
		return n.mediaErr
	}
	return n.textErr
}

func (n *fakeNotifier) Deliveries() []adapter.Delivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]adapter.Delivery(nil), n.deliveries...)
}

type fakeLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (l *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allowed, l.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.JobEvent
}

func (p *recordingPublisher) Publish(e model.JobEvent) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *recordingPublisher) Statuses() []model.JobStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.JobStatus, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Status)
	}
	return out
}

type fakeArchive struct {
	archived []*model.Job
	err      error
}

func (a *fakeArchive) Archive(_ context.Context, jobs []*model.Job) (int, error) {
	if a.err != nil {
		return 0, a.err
	}
	a.archived = append(a.archived, jobs...)
	return len(jobs), nil
}
