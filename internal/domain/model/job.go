package model

import "time"

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo encodes the only forward path:
// pending -> processing -> completed | failed.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusProcessing
	case JobStatusProcessing:
		return next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}

// Job is one queued generation request and its lifecycle record.
// StartedAt and CompletedAt are written once and never mutated afterwards,
// so shallow copies of a Job are safe to hand out.
type Job struct {
	ID           string     `json:"id"`
	Prompt       string     `json:"prompt"`
	Requester    string     `json:"requester"`
	ReplyChannel string     `json:"reply_channel"`
	Status       JobStatus  `json:"status"`
	ResultRef    string     `json:"result_ref,omitempty"`
	Error        string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	// Seq is the store insertion sequence; it breaks CreatedAt ties.
	Seq uint64 `json:"-"`
}

// Clone returns a copy that shares no mutable state with j.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	return &cp
}

// Age is the time spent in the current status.
func (j *Job) Age(now time.Time) time.Duration {
	switch {
	case j.CompletedAt != nil:
		return now.Sub(*j.CompletedAt)
	case j.StartedAt != nil:
		return now.Sub(*j.StartedAt)
	default:
		return now.Sub(j.CreatedAt)
	}
}

// JobUpdate carries the optional fields written by a status transition.
type JobUpdate struct {
	At        time.Time // zero means "now"
	ResultRef string
	Error     string
}
