package apiv1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"ai-video-queue/internal/domain"
	"ai-video-queue/internal/domain/ports/repository"
	"ai-video-queue/internal/usecase"
)

// DispatchTrigger runs one dispatcher tick on demand.
type DispatchTrigger interface {
	Trigger(ctx context.Context) (usecase.Outcome, error)
}

// Deps are the collaborators behind the HTTP surface. Dispatch, Reaper
// and Archive may be nil; their routes then answer 501.
type Deps struct {
	Intake   usecase.IntakeUseCase
	Store    repository.JobStore
	Dispatch DispatchTrigger
	Reaper   usecase.ReaperUseCase
	Archive  repository.ArchiveReader

	TwilioAuthToken  string
	TwilioWebhookURL string
}

type Server struct {
	Deps
	log *zerolog.Logger
}

func NewServer(deps Deps, logger *zerolog.Logger) *Server {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	l := logger.With().Str("component", "APIv1").Logger()
	return &Server{Deps: deps, log: &l}
}

// RegisterAPIV1 mounts the job, webhook and admin routes on r.
func RegisterAPIV1(r chi.Router, s *Server, auth *AuthManager) {
	r.Post("/jobs", s.createJob)
	r.Get("/jobs/{id}", s.getJob)

	r.Post("/webhooks/message", s.messageWebhook)
	r.Post("/webhooks/twilio", s.twilioWebhook)

	r.Group(func(r chi.Router) {
		r.Use(RequireAdmin(auth, s.log))
		r.Post("/dispatch/tick", s.triggerDispatch)
		r.Get("/sessions", s.listSessions)
		r.Get("/admin/jobs", s.listJobs)
		r.Get("/admin/archive", s.listArchive)
		r.Post("/admin/sweep", s.sweep)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

// statusFor maps domain errors onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, code, http.StatusText(code))
		return
	}
	writeError(w, code, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	if err := dec.Decode(v); err != nil {
		return errors.Join(domain.ErrInvalidArgument, err)
	}
	return nil
}
