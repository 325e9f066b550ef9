package apiv1

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ai-video-queue/internal/domain/model"
)

type createJobRequest struct {
	Prompt       string `json:"prompt"`
	Requester    string `json:"requester"`
	ReplyChannel string `json:"replyChannel"`
}

type createJobResponse struct {
	JobID string `json:"jobId"`
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "missing body")
		return
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" || strings.TrimSpace(req.Requester) == "" {
		writeError(w, http.StatusBadRequest, "prompt and requester are required")
		return
	}

	job, err := s.Intake.Submit(r.Context(), "api", req.Prompt, req.Requester, req.ReplyChannel)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, createJobResponse{JobID: job.ID})
}

// getJob returns the job with a masked requester. The full prompt is kept
// so the submitter can recognise it.
func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	view := model.NewJobView(job)
	view.Prompt = job.Prompt
	writeJSON(w, http.StatusOK, view)
}
