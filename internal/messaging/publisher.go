package messaging

import (
	"context"

	"github.com/swagly/proof-validator/internal/domain"
)

// Publisher defines the interface for publishing proof lifecycle events to the message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishProofEvent publishes a proof that reached a terminal status
	PublishProofEvent(ctx context.Context, event *domain.ProofEvent) error
	// Close closes the connection
	Close()
}

// NoopPublisher is used when no broker is configured
type NoopPublisher struct{}

// NewNoopPublisher creates a publisher that drops every event
func NewNoopPublisher() Publisher {
	return NoopPublisher{}
}

func (NoopPublisher) PublishProofEvent(context.Context, *domain.ProofEvent) error {
	return nil
}

func (NoopPublisher) Close() {}
