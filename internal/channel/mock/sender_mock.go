package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/timkado/api/wa-automations/internal/channel"
)

// SenderMock mocks channel.Sender
type SenderMock struct {
	mock.Mock
}

// Name mocks the Name method
func (m *SenderMock) Name() string {
	return "mock"
}

// Send mocks the Send method
func (m *SenderMock) Send(ctx context.Context, msg channel.Message) (*channel.Result, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.Result), args.Error(1)
}

var _ channel.Sender = (*SenderMock)(nil)
