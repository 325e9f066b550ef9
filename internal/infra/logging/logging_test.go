//go:build !integration

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestRedact(t *testing.T) {
	cases := map[string]string{
		"short":              "***",
		"telegram:123456789": "tele...89",
	}
	for in, want := range cases {
		if got := Redact(in, false); got != want {
			t.Errorf("Redact(%q) = %q, want %q", in, got, want)
		}
	}
	if got := Redact("telegram:123456789", true); got != "telegram:123456789" {
		t.Errorf("dev mode must not redact, got %q", got)
	}
}

func TestWith_AttachesContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithTraceID(context.Background(), "trace-1")
	ctx = WithJobID(ctx, "job-1")
	ctx = WithRequester(ctx, "whatsapp:+15550001111")

	l := With(ctx, &base)
	l.Info().Msg("hello")

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["trace_id"] != "trace-1" || got["job_id"] != "job-1" {
		t.Fatalf("missing ids: %v", got)
	}
	if got["requester"] == "whatsapp:+15550001111" {
		t.Fatalf("requester must be redacted")
	}
	if TraceIDFrom(ctx) != "trace-1" {
		t.Fatalf("TraceIDFrom mismatch")
	}
}
