package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/timkado/api/wa-automations/internal/model"
	"gitlab.com/timkado/api/wa-automations/internal/storage"
)

var _ storage.Repository = (*RepositoryMock)(nil)

func TestRepositoryMock_NilResults(t *testing.T) {
	m := &RepositoryMock{}
	ctx := context.Background()
	m.On("FindByOwner", ctx, "user-1").Return(nil, errors.New("missing"))
	m.On("FindMarketingAudience", ctx, "c-1").Return([]model.Client{{ID: "client-1"}}, nil)

	company, err := m.FindByOwner(ctx, "user-1")
	assert.Nil(t, company)
	assert.EqualError(t, err, "missing")

	clients, err := m.FindMarketingAudience(ctx, "c-1")
	assert.NoError(t, err)
	assert.Len(t, clients, 1)
	m.AssertExpectations(t)
}
