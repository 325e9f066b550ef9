package adapter

import "context"

// StyleConfig is the fixed rendering configuration sent with every prompt.
type StyleConfig struct {
	NegativePrompt string
	AspectRatio    string // e.g. "16:9"
	DurationSecs   int
}

// GenerationClient turns a prompt into a media reference (usually a URL).
// Calls may take minutes; failures are returned as *domain.GenerationError.
type GenerationClient interface {
	Name() string
	Generate(ctx context.Context, prompt string, style StyleConfig) (string, error)
}
