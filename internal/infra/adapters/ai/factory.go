package ai

import (
	"context"
	"fmt"
	"time"

	"ai-video-queue/internal/config"
	"ai-video-queue/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

// NewFromConfig builds the generation client for cfg.Provider. Replicate gets
// the fallback model behind the primary, each attempt capped by AttemptTimeout.
func NewFromConfig(ctx context.Context, cfg config.GenerationConfig, dev bool, logger *zerolog.Logger) (adapter.GenerationClient, error) {
	switch cfg.Provider {
	case "noop":
		return NewNoopAIAdapter(2*time.Second, logger), nil
	case "gemini":
		g, err := NewGeminiAdapter(ctx, cfg.GeminiKey, cfg.GeminiURL, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "replicate":
		if cfg.ReplicateToken == "" && dev {
			logger.Warn().Msg("no replicate token in dev mode; using noop generation")
			return NewNoopAIAdapter(2*time.Second, logger), nil
		}
		primary, err := NewReplicateAdapter(cfg.ReplicateToken, cfg.ReplicateBaseURL, cfg.Model)
		if err != nil {
			return nil, err
		}
		if cfg.FallbackModel == "" {
			return primary, nil
		}
		fallback, err := NewReplicateAdapter(cfg.ReplicateToken, cfg.ReplicateBaseURL, cfg.FallbackModel, WithPromptOnly())
		if err != nil {
			return nil, err
		}
		return NewFallbackAdapter(logger, NewLimitedAI(primary, cfg.AttemptTimeout), fallback), nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}
