// File: internal/infra/adapters/ai/gemini_adapter.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"ai-video-queue/internal/domain"
	"ai-video-queue/internal/domain/ports/adapter"
)

var _ adapter.GenerationClient = (*GeminiAdapter)(nil)

// GeminiAdapter generates videos with Veo through the Gemini API.
type GeminiAdapter struct {
	client       *genai.Client
	model        string
	pollInterval time.Duration
}

// NewGeminiAdapter creates a Veo adapter using the official SDK.
func NewGeminiAdapter(ctx context.Context, apiKey, baseUrl, model string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseUrl,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, model: model, pollInterval: 10 * time.Second}, nil
}

func (g *GeminiAdapter) Name() string { return "gemini/" + g.model }

func (g *GeminiAdapter) Generate(ctx context.Context, prompt string, style adapter.StyleConfig) (string, error) {
	op, err := g.client.Models.GenerateVideos(ctx, g.model, prompt, nil, videoConfig(style))
	if err != nil {
		return "", g.wrap(err)
	}
	for !op.Done {
		select {
		case <-ctx.Done():
			return "", g.wrap(ctx.Err())
		case <-time.After(g.pollInterval):
		}
		if op, err = g.client.Operations.GetVideosOperation(ctx, op, nil); err != nil {
			return "", g.wrap(err)
		}
	}
	ref, err := videoURI(op)
	if err != nil {
		return "", g.wrap(err)
	}
	return ref, nil
}

func (g *GeminiAdapter) wrap(err error) error {
	return &domain.GenerationError{Provider: g.Name(), Err: err}
}

func videoConfig(style adapter.StyleConfig) *genai.GenerateVideosConfig {
	cfg := &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		AspectRatio:    style.AspectRatio,
		NegativePrompt: style.NegativePrompt,
	}
	if style.DurationSecs > 0 {
		d := int32(style.DurationSecs)
		cfg.DurationSeconds = &d
	}
	return cfg
}

func videoURI(op *genai.GenerateVideosOperation) (string, error) {
	if op.Error != nil {
		return "", fmt.Errorf("operation %s: %v", op.Name, op.Error)
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 {
		if op.Response != nil && op.Response.RAIMediaFilteredCount > 0 {
			return "", fmt.Errorf("operation %s: video filtered: %v", op.Name, op.Response.RAIMediaFilteredReasons)
		}
		return "", fmt.Errorf("operation %s: no video returned", op.Name)
	}
	v := op.Response.GeneratedVideos[0].Video
	if v == nil || v.URI == "" {
		return "", fmt.Errorf("operation %s: video has no uri", op.Name)
	}
	return v.URI, nil
}
