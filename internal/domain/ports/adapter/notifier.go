package adapter

import "context"

// Delivery is a message for one reply channel, optionally with media.
type Delivery struct {
	ReplyChannel string
	Text         string
	MediaURL     string
}

// Notifier delivers messages back to users. Failures are returned as
// *domain.DeliveryError.
type Notifier interface {
	Deliver(ctx context.Context, d Delivery) error
}
