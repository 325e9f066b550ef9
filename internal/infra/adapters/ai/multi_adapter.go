// File: internal/infra/adapters/ai/multi_adapter.go
package ai

import (
	"context"
	"errors"

	"ai-video-queue/internal/domain/ports/adapter"
	"ai-video-queue/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ adapter.GenerationClient = (*FallbackAdapter)(nil)

// FallbackAdapter tries each provider in order and returns the first result.
type FallbackAdapter struct {
	chain []adapter.GenerationClient
	log   *zerolog.Logger
}

// NewFallbackAdapter returns the single client unchanged when no fallback is given.
func NewFallbackAdapter(logger *zerolog.Logger, primary adapter.GenerationClient, fallbacks ...adapter.GenerationClient) adapter.GenerationClient {
	if len(fallbacks) == 0 {
		return primary
	}
	l := logger.With().Str("component", "FallbackAdapter").Logger()
	return &FallbackAdapter{
		chain: append([]adapter.GenerationClient{primary}, fallbacks...),
		log:   &l,
	}
}

func (m *FallbackAdapter) Name() string { return m.chain[0].Name() }

func (m *FallbackAdapter) Generate(ctx context.Context, prompt string, style adapter.StyleConfig) (string, error) {
	var errs []error
	for i, c := range m.chain {
		if i > 0 {
			metrics.IncGenerationFallback(c.Name())
			m.log.Warn().Err(errs[len(errs)-1]).Str("next", c.Name()).Msg("falling back to next provider")
		}
		ref, err := c.Generate(ctx, prompt, style)
		if err == nil && ref != "" {
			return ref, nil
		}
		if err == nil {
			err = errors.New(c.Name() + ": empty result")
		}
		errs = append(errs, err)
		// the overall budget is gone; no provider can succeed now
		if ctx.Err() != nil {
			break
		}
	}
	return "", errors.Join(errs...)
}
