package mock

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/mock"

	"gitlab.com/timkado/api/wa-automations/internal/jetstream"
	"gitlab.com/timkado/api/wa-automations/internal/model"
)

// ClientMock is a mock implementation of the JetStream Client
type ClientMock struct {
	mock.Mock
}

// Ensure ClientMock implements jetstream.ClientInterface
var _ jetstream.ClientInterface = (*ClientMock)(nil)

// SetupStream mocks the SetupStream method
func (m *ClientMock) SetupStream(ctx context.Context, streamConfig *nats.StreamConfig) error {
	args := m.Called(ctx, streamConfig)
	return args.Error(0)
}

// Publish mocks the Publish method
func (m *ClientMock) Publish(ctx context.Context, subject string, data []byte, headers map[string]string) error {
	args := m.Called(ctx, subject, data, headers)
	return args.Error(0)
}

// Close mocks the Close method
func (m *ClientMock) Close() {
	m.Called()
}

// PublisherMock mocks jetstream.OutcomePublisher
type PublisherMock struct {
	mock.Mock
}

var _ jetstream.OutcomePublisher = (*PublisherMock)(nil)

// PublishOutcome mocks the PublishOutcome method
func (m *PublisherMock) PublishOutcome(ctx context.Context, outcome model.DispatchOutcome) error {
	args := m.Called(ctx, outcome)
	return args.Error(0)
}

// Close mocks the Close method
func (m *PublisherMock) Close() {
	m.Called()
}
