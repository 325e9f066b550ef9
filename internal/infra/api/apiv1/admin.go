package apiv1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"ai-video-queue/internal/domain/model"
	"ai-video-queue/internal/infra/worker"
)

type listResponse[T any] struct {
	Items []T `json:"items"`
}

type dispatchResponse struct {
	Outcome string `json:"outcome"`
}

func (s *Server) triggerDispatch(w http.ResponseWriter, r *http.Request) {
	if s.Dispatch == nil {
		writeError(w, http.StatusNotImplemented, "dispatcher not configured")
		return
	}
	outcome, err := s.Dispatch.Trigger(r.Context())
	switch {
	case errors.Is(err, worker.ErrTriggerPending):
		writeJSON(w, http.StatusAccepted, dispatchResponse{Outcome: "running"})
	case err != nil:
		s.fail(w, r, err)
	default:
		writeJSON(w, http.StatusOK, dispatchResponse{Outcome: string(outcome)})
	}
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.Store.ListJobs(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[model.JobView]{Items: jobViews(jobs)})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.Store.ListSessions(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items := make([]model.SessionView, 0, len(sessions))
	for _, sess := range sessions {
		items = append(items, model.NewSessionView(sess))
	}
	writeJSON(w, http.StatusOK, listResponse[model.SessionView]{Items: items})
}

func (s *Server) listArchive(w http.ResponseWriter, r *http.Request) {
	if s.Archive == nil {
		writeError(w, http.StatusNotImplemented, "archive not configured")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	jobs, err := s.Archive.Recent(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[model.JobView]{Items: jobViews(jobs)})
}

type sweepResponse struct {
	Evicted int `json:"evicted"`
}

func (s *Server) sweep(w http.ResponseWriter, r *http.Request) {
	if s.Reaper == nil {
		writeError(w, http.StatusNotImplemented, "reaper not configured")
		return
	}
	n, err := s.Reaper.Sweep(r.Context(), time.Now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sweepResponse{Evicted: n})
}

func jobViews(jobs []*model.Job) []model.JobView {
	items := make([]model.JobView, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, model.NewJobView(j))
	}
	return items
}
