package ai

import (
	"context"
	"fmt"
	"time"

	"ai-video-queue/internal/domain"
	"ai-video-queue/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.GenerationClient = (*limitedAI)(nil)

// limitedAI caps a single provider attempt so a hanging primary still leaves
// budget for the fallback.
type limitedAI struct {
	inner   adapter.GenerationClient
	timeout time.Duration
}

func NewLimitedAI(inner adapter.GenerationClient, attemptTimeout time.Duration) adapter.GenerationClient {
	if attemptTimeout <= 0 {
		return inner
	}
	return &limitedAI{inner: inner, timeout: attemptTimeout}
}

func (l *limitedAI) Name() string { return l.inner.Name() }

func (l *limitedAI) Generate(ctx context.Context, prompt string, style adapter.StyleConfig) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	ref, err := l.inner.Generate(attemptCtx, prompt, style)
	if err != nil && ctx.Err() == nil && attemptCtx.Err() == context.DeadlineExceeded {
		return "", &domain.GenerationError{
			Provider: l.inner.Name(),
			Err:      fmt.Errorf("%w after %s", domain.ErrGenerationTimeout, l.timeout),
		}
	}
	return ref, err
}
