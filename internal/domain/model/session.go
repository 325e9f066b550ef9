package model

import (
	"time"
)

type SessionStatus string

const (
	SessionIdle       SessionStatus = "idle"
	SessionGenerating SessionStatus = "generating"
	SessionCompleted  SessionStatus = "completed"
)

// Session is the transient conversational state kept per requester.
// It is overwritten on every update, never keyed by job.
type Session struct {
	Requester  string        `json:"requester"`
	Status     SessionStatus `json:"status"`
	LastPrompt string        `json:"last_prompt"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// SessionUpdate is applied with last-write-wins semantics. An empty
// LastPrompt keeps the previous prompt.
type SessionUpdate struct {
	Status     SessionStatus
	LastPrompt string
	At         time.Time
}
