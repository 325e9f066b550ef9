package model

import "time"

// JobEvent is published on every job lifecycle change.
type JobEvent struct {
	JobID     string    `json:"job_id"`
	Status    JobStatus `json:"status"`
	ResultRef string    `json:"result_ref,omitempty"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

func NewJobEvent(j *Job) JobEvent {
	at := j.CreatedAt
	switch {
	case j.CompletedAt != nil:
		at = *j.CompletedAt
	case j.StartedAt != nil:
		at = *j.StartedAt
	}
	return JobEvent{
		JobID:     j.ID,
		Status:    j.Status,
		ResultRef: j.ResultRef,
		Error:     j.Error,
		At:        at,
	}
}
