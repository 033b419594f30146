package jetstream

import (
	"context"

	"github.com/nats-io/nats.go"
)

// ClientInterface is the subset of JetStream the publisher needs
type ClientInterface interface {
	// SetupStream ensures the stream exists with the given configuration
	SetupStream(ctx context.Context, streamConfig *nats.StreamConfig) error

	// Publish publishes a message to a subject with optional headers
	Publish(ctx context.Context, subject string, data []byte, headers map[string]string) error

	// Close closes the NATS connection
	Close()
}
