// File: internal/infra/adapters/ai/replicate_adapter.go
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-video-queue/internal/domain"
	"ai-video-queue/internal/domain/ports/adapter"
)

var _ adapter.GenerationClient = (*ReplicateAdapter)(nil)

const defaultPollInterval = 2 * time.Second

// ReplicateAdapter runs one Replicate model through the predictions REST API
// and polls until the prediction settles.
type ReplicateAdapter struct {
	token        string
	baseURL      string
	modelRef     string // owner/name or owner/name:version
	minimalInput bool   // send the prompt only, ignore StyleConfig
	pollInterval time.Duration
	client       *http.Client
}

type ReplicateOption func(*ReplicateAdapter)

// WithPromptOnly makes the adapter send only the prompt. Older models reject
// unknown inputs such as aspect_ratio.
func WithPromptOnly() ReplicateOption {
	return func(a *ReplicateAdapter) { a.minimalInput = true }
}

func WithPollInterval(d time.Duration) ReplicateOption {
	return func(a *ReplicateAdapter) { a.pollInterval = d }
}

func WithHTTPClient(c *http.Client) ReplicateOption {
	return func(a *ReplicateAdapter) { a.client = c }
}

func NewReplicateAdapter(token, baseURL, modelRef string, opts ...ReplicateOption) (*ReplicateAdapter, error) {
	if strings.TrimSpace(modelRef) == "" {
		return nil, errors.New("replicate: empty model reference")
	}
	a := &ReplicateAdapter{
		token:        token,
		baseURL:      strings.TrimRight(baseURL, "/"),
		modelRef:     modelRef,
		pollInterval: defaultPollInterval,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(a)
	}
	return a, nil
}

func (a *ReplicateAdapter) Name() string {
	name := a.modelRef
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[:i]
	}
	return "replicate/" + name
}

// replicatePrediction is the subset of the prediction object we read.
type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"` // starting|processing|succeeded|failed|canceled
	Output json.RawMessage `json:"output"`
	Error  interface{}     `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

func (a *ReplicateAdapter) Generate(ctx context.Context, prompt string, style adapter.StyleConfig) (string, error) {
	pred, err := a.create(ctx, a.input(prompt, style))
	if err != nil {
		return "", a.wrap(err)
	}
	for !isSettled(pred.Status) {
		select {
		case <-ctx.Done():
			return "", a.wrap(ctx.Err())
		case <-time.After(a.pollInterval):
		}
		if pred, err = a.get(ctx, pred); err != nil {
			return "", a.wrap(err)
		}
	}
	if pred.Status != "succeeded" {
		return "", a.wrap(fmt.Errorf("prediction %s %s: %v", pred.ID, pred.Status, pred.Error))
	}
	ref, err := firstOutputURL(pred.Output)
	if err != nil {
		return "", a.wrap(fmt.Errorf("prediction %s: %w", pred.ID, err))
	}
	return ref, nil
}

func (a *ReplicateAdapter) input(prompt string, style adapter.StyleConfig) map[string]interface{} {
	in := map[string]interface{}{"prompt": prompt}
	if a.minimalInput {
		return in
	}
	if style.NegativePrompt != "" {
		in["negative_prompt"] = style.NegativePrompt
	}
	if style.AspectRatio != "" {
		in["aspect_ratio"] = style.AspectRatio
	}
	if style.DurationSecs > 0 {
		in["duration"] = fmt.Sprintf("%ds", style.DurationSecs)
	}
	return in
}

func (a *ReplicateAdapter) create(ctx context.Context, input map[string]interface{}) (*replicatePrediction, error) {
	body := map[string]interface{}{"input": input}
	url := a.baseURL + "/predictions"
	if _, version, ok := strings.Cut(a.modelRef, ":"); ok {
		body["version"] = version
	} else {
		url = a.baseURL + "/models/" + a.modelRef + "/predictions"
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request data: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req)
}

func (a *ReplicateAdapter) get(ctx context.Context, pred *replicatePrediction) (*replicatePrediction, error) {
	url := pred.URLs.Get
	if url == "" {
		url = a.baseURL + "/predictions/" + pred.ID
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return a.do(req)
}

func (a *ReplicateAdapter) do(req *http.Request) (*replicatePrediction, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("replicate http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var pred replicatePrediction
	if err := json.Unmarshal(body, &pred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(body))
	}
	return &pred, nil
}

func (a *ReplicateAdapter) wrap(err error) error {
	return &domain.GenerationError{Provider: a.Name(), Err: err}
}

func isSettled(status string) bool {
	switch status {
	case "succeeded", "failed", "canceled":
		return true
	}
	return false
}

// firstOutputURL accepts both a single URL and a list of URLs.
func firstOutputURL(raw json.RawMessage) (string, error) {
	var one string
	if err := json.Unmarshal(raw, &one); err == nil && one != "" {
		return one, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 && many[0] != "" {
		return many[0], nil
	}
	return "", errors.New("prediction has no output url")
}
