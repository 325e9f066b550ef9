package api

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ai-video-queue/internal/config"
	apiv1 "ai-video-queue/internal/infra/api/apiv1"
)

//go:embed static
var staticFS embed.FS

// Server is the public HTTP surface: JSON API, webhooks, admin routes,
// event stream, metrics and the web page.
type Server struct {
	srv *http.Server
	log *zerolog.Logger
}

// NewRouter assembles the routes. events may be nil to disable /ws/jobs.
func NewRouter(cfg config.HTTPConfig, v1 *apiv1.Server, auth *apiv1.AuthManager, events http.Handler, logger *zerolog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(
		TraceID(),
		RequestLog(logger),
		Recover(logger),
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	if events != nil {
		r.Handle("/ws/jobs", events)
	}

	// the websocket route above outlives any request deadline
	r.Group(func(r chi.Router) {
		r.Use(Timeout(cfg.RequestTimeout))
		apiv1.RegisterAPIV1(r, v1, auth)
	})

	r.Handle("/*", staticHandler(cfg.StaticDir))
	return r
}

func staticHandler(dir string) http.Handler {
	if dir != "" {
		return http.FileServer(http.Dir(dir))
	}
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

func NewServer(cfg config.HTTPConfig, handler http.Handler, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "HTTPServer").Logger()
	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: &l,
	}
}

// Start blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("HTTP server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
