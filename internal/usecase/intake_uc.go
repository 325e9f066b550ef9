package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-video-queue/internal/domain"
	"ai-video-queue/internal/domain/model"
	"ai-video-queue/internal/domain/ports/adapter"
	"ai-video-queue/internal/domain/ports/repository"
	"ai-video-queue/internal/infra/logging"
	"ai-video-queue/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ IntakeUseCase = (*intakeUC)(nil)

// IntentRateLimited is reported when a requester was throttled before classification.
const IntentRateLimited IntentKind = "rate_limited"

// Messages renders user-facing text by key.
type Messages interface {
	T(key string, args ...interface{}) string
}

// InboundMessage is one free-text message from a messaging channel.
type InboundMessage struct {
	Channel      string // telegram | whatsapp | webhook
	Requester    string
	ReplyChannel string
	Text         string
}

// Reply is the synchronous answer to an inbound message.
type Reply struct {
	Intent IntentKind `json:"intent"`
	Text   string     `json:"reply"`
	JobID  string     `json:"job_id,omitempty"`
}

type IntakeUseCase interface {
	// HandleMessage classifies a message and returns the immediate reply.
	// Generation requests are queued; the result arrives later via the Notifier.
	HandleMessage(ctx context.Context, msg InboundMessage) (Reply, error)
	// Submit queues a prompt directly, bypassing command classification.
	Submit(ctx context.Context, channel, prompt, requester, replyChannel string) (*model.Job, error)
}

type intakeUC struct {
	store      repository.JobStore
	classifier Classifier
	msgs       Messages
	limiter    adapter.RateLimiter
	events     adapter.EventPublisher
	log        *zerolog.Logger
}

// NewIntakeUseCase wires the intake path. limiter and events may be nil.
func NewIntakeUseCase(
	store repository.JobStore,
	classifier Classifier,
	msgs Messages,
	limiter adapter.RateLimiter,
	events adapter.EventPublisher,
	logger *zerolog.Logger,
) *intakeUC {
	if events == nil {
		events = adapter.NopPublisher{}
	}
	l := logger.With().Str("component", "IntakeUseCase").Logger()
	return &intakeUC{
		store:      store,
		classifier: classifier,
		msgs:       msgs,
		limiter:    limiter,
		events:     events,
		log:        &l,
	}
}

func (u *intakeUC) HandleMessage(ctx context.Context, msg InboundMessage) (Reply, error) {
	if strings.TrimSpace(msg.Requester) == "" {
		return Reply{}, fmt.Errorf("requester is required: %w", domain.ErrInvalidArgument)
	}
	ctx = logging.WithRequester(ctx, msg.Requester)

	if u.limiter != nil {
		allowed, err := u.limiter.Allow(ctx, msg.Requester)
		if err != nil {
			logging.With(ctx, u.log).Warn().Err(err).Msg("rate limiter unavailable; allowing message")
		} else if !allowed {
			metrics.IncRateLimitTriggered()
			return Reply{Intent: IntentRateLimited, Text: u.msgs.T("rate_limited")}, nil
		}
	}

	intent := u.classifier.Classify(msg.Text)
	metrics.IncIntakeMessage(string(intent.Kind))

	switch intent.Kind {
	case IntentHelp:
		return Reply{Intent: intent.Kind, Text: u.msgs.T("help")}, nil
	case IntentStatus:
		return u.statusReply(ctx, msg.Requester)
	case IntentQueue:
		return u.queueReply(ctx, msg.Requester)
	case IntentExample:
		return Reply{Intent: intent.Kind, Text: u.msgs.T("example")}, nil
	case IntentTooShort:
		return Reply{Intent: intent.Kind, Text: u.msgs.T("too_short", u.classifier.MinPromptLength())}, nil
	}

	job, err := u.Submit(ctx, msg.Channel, intent.Prompt, msg.Requester, msg.ReplyChannel)
	if err != nil {
		return Reply{Intent: intent.Kind, Text: u.msgs.T("error_generic")}, err
	}
	return Reply{
		Intent: IntentGenerate,
		Text:   u.msgs.T("queued", model.TruncatePrompt(job.Prompt), job.ID),
		JobID:  job.ID,
	}, nil
}

func (u *intakeUC) Submit(ctx context.Context, channel, prompt, requester, replyChannel string) (*model.Job, error) {
	id, err := u.store.Create(ctx, prompt, requester, replyChannel)
	if err != nil {
		return nil, err
	}
	job, err := u.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read back job %s: %w", id, err)
	}
	if err := u.store.UpsertSession(ctx, job.Requester, model.SessionUpdate{
		Status:     model.SessionGenerating,
		LastPrompt: job.Prompt,
	}); err != nil {
		logging.With(ctx, u.log).Error().Err(err).Msg("session upsert failed")
	}

	if channel == "" {
		channel = "api"
	}
	metrics.IncJobCreated(channel)
	u.events.Publish(model.NewJobEvent(job))
	logging.With(logging.WithJobID(ctx, job.ID), u.log).Info().Str("channel", channel).Msg("job queued")
	return job, nil
}

func (u *intakeUC) statusReply(ctx context.Context, requester string) (Reply, error) {
	sess, err := u.store.GetSession(ctx, requester)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return Reply{}, err
	}
	text := u.msgs.T("status_idle")
	if sess != nil {
		switch sess.Status {
		case model.SessionGenerating:
			text = u.msgs.T("status_generating", model.TruncatePrompt(sess.LastPrompt))
		case model.SessionCompleted:
			text = u.msgs.T("status_completed", model.TruncatePrompt(sess.LastPrompt))
		}
	}
	return Reply{Intent: IntentStatus, Text: text}, nil
}

// QueueCounts summarises one requester's place in the queue.
type QueueCounts struct {
	Pending    int
	Processing int
	// Position is the 1-based global queue position of the requester's
	// oldest pending job, 0 when nothing is pending.
	Position int
}

// CountQueue derives per-requester counts from the store's FIFO listings.
func CountQueue(ctx context.Context, store repository.JobStore, requester string) (QueueCounts, error) {
	var qc QueueCounts
	pending, err := store.ListByStatus(ctx, model.JobStatusPending)
	if err != nil {
		return qc, err
	}
	processing, err := store.ListByStatus(ctx, model.JobStatusProcessing)
	if err != nil {
		return qc, err
	}
	for i, j := range pending {
		if j.Requester != requester {
			continue
		}
		if qc.Pending == 0 {
			qc.Position = i + 1
		}
		qc.Pending++
	}
	for _, j := range processing {
		if j.Requester == requester {
			qc.Processing++
		}
	}
	return qc, nil
}

func (u *intakeUC) queueReply(ctx context.Context, requester string) (Reply, error) {
	qc, err := CountQueue(ctx, u.store, requester)
	if err != nil {
		return Reply{}, err
	}
	var text string
	switch {
	case qc.Pending > 0:
		text = u.msgs.T("queue_summary", qc.Pending, qc.Processing, qc.Position)
	case qc.Processing > 0:
		text = u.msgs.T("queue_processing_only")
	default:
		text = u.msgs.T("queue_empty")
	}
	return Reply{Intent: IntentQueue, Text: text}, nil
}
