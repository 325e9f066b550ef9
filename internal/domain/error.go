package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidTransition = errors.New("invalid job status transition")
	ErrDispatcherBusy    = errors.New("another job is already processing")
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrGenerationTimeout = errors.New("generation timed out")
)

// GenerationError is returned by generation adapters when the provider call
// fails or times out. The job that triggered it terminates as failed.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation via %s failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// DeliveryError is returned by notifiers. It is logged and never re-raised.
type DeliveryError struct {
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
