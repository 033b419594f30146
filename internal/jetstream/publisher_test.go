package jetstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/wa-automations/internal/apperrors"
	"gitlab.com/timkado/api/wa-automations/internal/config"
	"gitlab.com/timkado/api/wa-automations/internal/jetstream"
	jsmock "gitlab.com/timkado/api/wa-automations/internal/jetstream/mock"
	"gitlab.com/timkado/api/wa-automations/internal/model"
	"gitlab.com/timkado/api/wa-automations/internal/tenant"
	"gitlab.com/timkado/api/wa-automations/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Initialize("fatal")
	os.Exit(m.Run())
}

func sampleOutcome() model.DispatchOutcome {
	return model.DispatchOutcome{
		RecipientLabel: "Ana",
		AutomationType: model.AutomationBirthday,
		Status:         model.DispatchSent,
		CompanyID:      "co-1",
		UnitID:         "unit-1",
	}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "v1.automations.co-1.birthday", jetstream.Subject("v1.automations", sampleOutcome()))
	assert.Equal(t, "v1.automations.unknown.rescue",
		jetstream.Subject("v1.automations", model.DispatchOutcome{AutomationType: model.AutomationRescue}))
	assert.Equal(t, "p.a_b.appointment_reminder",
		jetstream.Subject("p", model.DispatchOutcome{CompanyID: "a.b", AutomationType: model.AutomationAppointmentReminder}))
}

func TestOutcomeStreamConfig(t *testing.T) {
	cfg := jetstream.OutcomeStreamConfig(config.NATSConfig{Stream: "automation_outcomes", SubjectPrefix: "v1.automations", MaxAgeDays: 7})

	assert.Equal(t, "automation_outcomes", cfg.Name)
	assert.Equal(t, []string{"v1.automations.>"}, cfg.Subjects)
	assert.Equal(t, 7*24*time.Hour, cfg.MaxAge)
	assert.Equal(t, nats.FileStorage, cfg.Storage)
}

func TestPublisher_PublishOutcome(t *testing.T) {
	client := new(jsmock.ClientMock)
	ctx := tenant.WithRunID(context.Background(), "run-42")

	client.On("Publish", mock.Anything, "v1.automations.co-1.birthday", mock.MatchedBy(func(data []byte) bool {
		var ev jetstream.OutcomeEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return false
		}
		return ev.RunID == "run-42" && ev.CompanyID == "co-1" && ev.UnitID == "unit-1" &&
			ev.Status == model.DispatchSent && ev.RecipientLabel == "Ana" && ev.OccurredAt != "" && !ev.Retryable
	}), map[string]string{"X-Run-ID": "run-42"}).Return(nil).Once()

	err := jetstream.NewPublisher(client, "v1.automations").PublishOutcome(ctx, sampleOutcome())

	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestPublisher_PublishFailureIsNATSError(t *testing.T) {
	client := new(jsmock.ClientMock)
	client.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("nats: timeout")).Once()

	err := jetstream.NewPublisher(client, "v1.automations").PublishOutcome(context.Background(), sampleOutcome())

	assert.ErrorIs(t, err, apperrors.ErrNATS)
	client.AssertExpectations(t)
}

func TestPublisher_CarriesRetryableFlag(t *testing.T) {
	client := new(jsmock.ClientMock)
	outcome := sampleOutcome()
	outcome.Status = model.DispatchFailed
	outcome.Error = "retryable: http 503: channel send failed"
	outcome.Retryable = true

	client.On("Publish", mock.Anything, mock.Anything, mock.MatchedBy(func(data []byte) bool {
		var ev jetstream.OutcomeEvent
		return json.Unmarshal(data, &ev) == nil && ev.Retryable && ev.Status == model.DispatchFailed
	}), mock.Anything).Return(nil).Once()

	require.NoError(t, jetstream.NewPublisher(client, "v1.automations").PublishOutcome(context.Background(), outcome))
	client.AssertExpectations(t)
}

func TestPublisher_Close(t *testing.T) {
	client := new(jsmock.ClientMock)
	client.On("Close").Return().Once()

	jetstream.NewPublisher(client, "p").Close()

	client.AssertExpectations(t)
}

func TestNewOutcomePublisher_NoURLIsNoop(t *testing.T) {
	pub, err := jetstream.NewOutcomePublisher(context.Background(), config.NATSConfig{})

	require.NoError(t, err)
	assert.IsType(t, jetstream.NoopPublisher{}, pub)
	assert.NoError(t, pub.PublishOutcome(context.Background(), sampleOutcome()))
	pub.Close()
}
