package jetstream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/wa-automations/internal/apperrors"
	"gitlab.com/timkado/api/wa-automations/internal/config"
	"gitlab.com/timkado/api/wa-automations/internal/model"
	"gitlab.com/timkado/api/wa-automations/internal/observer"
	"gitlab.com/timkado/api/wa-automations/internal/tenant"
	"gitlab.com/timkado/api/wa-automations/pkg/logger"
	"gitlab.com/timkado/api/wa-automations/pkg/utils"
)

const runIDHeader = "X-Run-ID"

// OutcomePublisher announces dispatch outcomes to downstream consumers.
// Publishing is best effort and never affects a run.
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, outcome model.DispatchOutcome) error
	Close()
}

// OutcomeEvent is the payload published for every recipient outcome
type OutcomeEvent struct {
	RunID          string               `json:"run_id,omitempty"`
	CompanyID      string               `json:"company_id"`
	UnitID         string               `json:"unit_id,omitempty"`
	AutomationType model.AutomationType `json:"automation_type"`
	RecipientLabel string               `json:"recipient_label"`
	Status         model.DispatchStatus `json:"status"`
	Error          string               `json:"error,omitempty"`
	Retryable      bool                 `json:"retryable,omitempty"`
	OccurredAt     string               `json:"occurred_at"`
}

// OutcomeStreamConfig returns the stream holding outcome events
func OutcomeStreamConfig(cfg config.NATSConfig) *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  []string{cfg.SubjectPrefix + ".>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    time.Duration(cfg.MaxAgeDays) * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
}

// Subject returns <prefix>.<company_id>.<automation_type>
func Subject(prefix string, o model.DispatchOutcome) string {
	return fmt.Sprintf("%s.%s.%s", prefix, subjectToken(o.CompanyID), subjectToken(string(o.AutomationType)))
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(s)
}

// Publisher publishes outcome events to JetStream
type Publisher struct {
	client ClientInterface
	prefix string
}

var _ OutcomePublisher = (*Publisher)(nil)

// NewPublisher creates a publisher on client
func NewPublisher(client ClientInterface, subjectPrefix string) *Publisher {
	return &Publisher{client: client, prefix: subjectPrefix}
}

// PublishOutcome implements OutcomePublisher
func (p *Publisher) PublishOutcome(ctx context.Context, outcome model.DispatchOutcome) error {
	runID, _ := tenant.RunIDFromContext(ctx)
	event := OutcomeEvent{
		RunID:          runID,
		CompanyID:      outcome.CompanyID,
		UnitID:         outcome.UnitID,
		AutomationType: outcome.AutomationType,
		RecipientLabel: outcome.RecipientLabel,
		Status:         outcome.Status,
		Error:          outcome.Error,
		Retryable:      outcome.Retryable,
		OccurredAt:     utils.FormatISO8601(utils.Now()),
	}
	data, err := json.Marshal(event)
	if err != nil {
		observer.IncEventPublished(err)
		return fmt.Errorf("marshal outcome event: %w", err)
	}

	subject := Subject(p.prefix, outcome)
	var headers map[string]string
	if runID != "" {
		headers = map[string]string{runIDHeader: runID}
	}

	err = p.client.Publish(ctx, subject, data, headers)
	observer.IncEventPublished(err)
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to publish outcome event",
			zap.String("subject", subject),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", apperrors.ErrNATS, err)
	}
	return nil
}

// Close closes the underlying client
func (p *Publisher) Close() {
	p.client.Close()
}

// NoopPublisher drops every event; used when NATS is not configured
type NoopPublisher struct{}

var _ OutcomePublisher = NoopPublisher{}

// PublishOutcome implements OutcomePublisher
func (NoopPublisher) PublishOutcome(context.Context, model.DispatchOutcome) error { return nil }

// Close implements OutcomePublisher
func (NoopPublisher) Close() {}

// NewOutcomePublisher connects to NATS and provisions the outcome stream.
// An empty URL yields a NoopPublisher.
func NewOutcomePublisher(ctx context.Context, cfg config.NATSConfig) (OutcomePublisher, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		logger.FromContext(ctx).Info("NATS URL not configured, outcome events disabled")
		return NoopPublisher{}, nil
	}

	client, err := NewClient(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrNATS, err)
	}
	if err := client.SetupStream(ctx, OutcomeStreamConfig(cfg)); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", apperrors.ErrNATS, err)
	}
	return NewPublisher(client, cfg.SubjectPrefix), nil
}
