package adapter

import "ai-video-queue/internal/domain/model"

// EventPublisher fans job lifecycle events out to observers. Publish must
// not block the caller.
type EventPublisher interface {
	Publish(ev model.JobEvent)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(model.JobEvent) {}
