package ai

import (
	"context"
	"net/url"
	"time"

	"ai-video-queue/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var _ adapter.GenerationClient = (*NoopAIAdapter)(nil)

// NoopAIAdapter implements adapter.GenerationClient for local/dev testing.
// It waits briefly and returns a placeholder URL instead of calling a provider.
type NoopAIAdapter struct {
	delay time.Duration
	log   *zerolog.Logger
}

func NewNoopAIAdapter(delay time.Duration, logger *zerolog.Logger) *NoopAIAdapter {
	return &NoopAIAdapter{delay: delay, log: logger}
}

func (a *NoopAIAdapter) Name() string { return "noop" }

func (a *NoopAIAdapter) Generate(ctx context.Context, prompt string, _ adapter.StyleConfig) (string, error) {
	// Simulate processing time and respect ctx
	select {
	case <-time.After(a.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	a.log.Debug().Int("prompt_len", len(prompt)).Msg("[noop-ai] generated placeholder video")
	return "https://example.invalid/videos/noop.mp4?prompt=" + url.QueryEscape(prompt), nil
}
