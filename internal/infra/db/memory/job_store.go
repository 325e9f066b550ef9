// Package memory holds the in-process job and session store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"ai-video-queue/internal/domain"
	"ai-video-queue/internal/domain/model"
	"ai-video-queue/internal/domain/ports/repository"

	"github.com/oklog/ulid/v2"
)

var _ repository.JobStore = (*JobStore)(nil)

// JobStore keeps jobs and sessions behind a single mutex. Records never
// leave the store; callers get clones.
type JobStore struct {
	mu       sync.Mutex
	jobs     map[string]*model.Job
	sessions map[string]*model.Session
	seq      uint64

	// processing is the id of the job holding the single processing slot.
	processing string

	now   func() time.Time
	newID func() string
}

func NewJobStore() *JobStore {
	return &JobStore{
		jobs:     make(map[string]*model.Job),
		sessions: make(map[string]*model.Session),
		now:      time.Now,
		newID:    func() string { return ulid.Make().String() },
	}
}

func (s *JobStore) Create(_ context.Context, prompt, requester, replyChannel string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	requester = strings.TrimSpace(requester)
	if prompt == "" || requester == "" {
		return "", fmt.Errorf("prompt and requester are required: %w", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(replyChannel) == "" {
		replyChannel = requester
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for _, exists := s.jobs[id]; exists; _, exists = s.jobs[id] {
		id = s.newID()
	}
	s.seq++
	s.jobs[id] = &model.Job{
		ID:           id,
		Prompt:       prompt,
		Requester:    requester,
		ReplyChannel: replyChannel,
		Status:       model.JobStatusPending,
		CreatedAt:    s.now(),
		Seq:          s.seq,
	}
	return id, nil
}

func (s *JobStore) Get(_ context.Context, id string) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return j.Clone(), nil
}

func (s *JobStore) ListByStatus(_ context.Context, status model.JobStatus) ([]*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Job, 0)
	for _, j := range s.jobs {
		if j.Status == status {
			out = append(out, j.Clone())
		}
	}
	sortFIFO(out)
	return out, nil
}

func (s *JobStore) ListJobs(_ context.Context) ([]*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.Clone())
	}
	sortFIFO(out)
	return out, nil
}

func (s *JobStore) Transition(_ context.Context, id string, to model.JobStatus, upd model.JobUpdate) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if to == model.JobStatusProcessing && s.processing != "" && s.processing != id {
		return nil, domain.ErrDispatcherBusy
	}
	if !j.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, j.Status, to)
	}

	at := upd.At
	if at.IsZero() {
		at = s.now()
	}
	// timestamps never run backwards: created <= started <= completed
	floor := j.CreatedAt
	if j.StartedAt != nil {
		floor = *j.StartedAt
	}
	if at.Before(floor) {
		at = floor
	}
	switch to {
	case model.JobStatusProcessing:
		j.StartedAt = &at
		s.processing = id
	case model.JobStatusCompleted, model.JobStatusFailed:
		j.CompletedAt = &at
		if upd.ResultRef != "" {
			j.ResultRef = upd.ResultRef
		}
		if to == model.JobStatusFailed {
			j.Error = upd.Error
			if j.Error == "" {
				j.Error = "unknown error"
			}
		}
		s.processing = ""
	}
	j.Status = to
	return j.Clone(), nil
}

func (s *JobStore) UpsertSession(_ context.Context, requester string, upd model.SessionUpdate) error {
	if requester == "" {
		return fmt.Errorf("requester is required: %w", domain.ErrInvalidArgument)
	}
	at := upd.At
	if at.IsZero() {
		at = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[requester]
	if !ok {
		sess = &model.Session{Requester: requester, Status: model.SessionIdle}
		s.sessions[requester] = sess
	}
	if upd.Status != "" {
		sess.Status = upd.Status
	}
	if upd.LastPrompt != "" {
		sess.LastPrompt = upd.LastPrompt
	}
	sess.UpdatedAt = at
	return nil
}

func (s *JobStore) GetSession(_ context.Context, requester string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[requester]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *JobStore) ListSessions(_ context.Context) ([]*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		cp := *sess
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].UpdatedAt.After(out[k].UpdatedAt) })
	return out, nil
}

// DeleteExpired never touches pending or processing jobs, whatever their age.
func (s *JobStore) DeleteExpired(_ context.Context, now time.Time, retention time.Duration) (repository.EvictionResult, error) {
	cutoff := now.Add(-retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	var res repository.EvictionResult
	for id, j := range s.jobs {
		if !j.Status.IsTerminal() || j.CompletedAt == nil {
			continue
		}
		if j.CompletedAt.Before(cutoff) {
			res.Jobs = append(res.Jobs, j.Clone())
			delete(s.jobs, id)
		}
	}
	for key, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, key)
			res.Sessions++
		}
	}
	sortFIFO(res.Jobs)
	return res, nil
}

func sortFIFO(jobs []*model.Job) {
	sort.Slice(jobs, func(i, k int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[k].CreatedAt) {
			return jobs[i].CreatedAt.Before(jobs[k].CreatedAt)
		}
		return jobs[i].Seq < jobs[k].Seq
	})
}
