package model

import (
	"time"
	"unicode/utf8"
)

const (
	requesterSuffixLen = 4
	promptPreviewLen   = 40
)

// MaskRequester keeps only the last few characters of a channel identifier.
func MaskRequester(id string) string {
	r := []rune(id)
	if len(r) <= requesterSuffixLen {
		return "***"
	}
	return "***" + string(r[len(r)-requesterSuffixLen:])
}

// TruncatePrompt shortens prompt text for diagnostic views.
func TruncatePrompt(p string) string {
	if utf8.RuneCountInString(p) <= promptPreviewLen {
		return p
	}
	r := []rune(p)
	return string(r[:promptPreviewLen]) + "…"
}

// JobView is the PII-minimised projection of a Job.
type JobView struct {
	ID          string     `json:"id"`
	Status      JobStatus  `json:"status"`
	Requester   string     `json:"requester"`
	Prompt      string     `json:"prompt"`
	ResultRef   string     `json:"result_ref,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func NewJobView(j *Job) JobView {
	return JobView{
		ID:          j.ID,
		Status:      j.Status,
		Requester:   MaskRequester(j.Requester),
		Prompt:      TruncatePrompt(j.Prompt),
		ResultRef:   j.ResultRef,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}

// SessionView is the PII-minimised projection of a Session.
type SessionView struct {
	Requester  string        `json:"requester"`
	Status     SessionStatus `json:"status"`
	LastPrompt string        `json:"last_prompt"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func NewSessionView(s *Session) SessionView {
	return SessionView{
		Requester:  MaskRequester(s.Requester),
		Status:     s.Status,
		LastPrompt: TruncatePrompt(s.LastPrompt),
		UpdatedAt:  s.UpdatedAt,
	}
}
