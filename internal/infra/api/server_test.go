//go:build !integration

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ai-video-queue/internal/config"
	apiv1 "ai-video-queue/internal/infra/api/apiv1"
	"ai-video-queue/internal/infra/db/memory"
	"ai-video-queue/internal/infra/metrics"
)

func newTestRouter(t *testing.T, events http.Handler) http.Handler {
	t.Helper()
	metrics.MustRegister()
	l := zerolog.Nop()
	v1 := apiv1.NewServer(apiv1.Deps{Store: memory.NewJobStore()}, &l)
	return NewRouter(config.HTTPConfig{RequestTimeout: time.Second}, v1, nil, events, &l)
}

func TestRouter_Ambient(t *testing.T) {
	h := newTestRouter(t, nil)

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
			t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Errorf("trace id header missing")
		}
	})

	t.Run("caller request id is kept", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
			t.Errorf("X-Request-ID = %q", got)
		}
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "http_request_duration_seconds") {
			t.Fatalf("metrics endpoint missing http histogram: %d", rec.Code)
		}
	})

	t.Run("static page", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `fetch("/jobs"`) {
			t.Fatalf("index = %d", rec.Code)
		}
	})

	t.Run("api mounted", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/unknown", nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("want 404, got %d", rec.Code)
		}
	})
}

func TestRouter_RecoversPanics(t *testing.T) {
	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	h := newTestRouter(t, boom)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/jobs", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
}
