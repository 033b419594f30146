package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/wa-automations/internal/channel"
	"gitlab.com/timkado/api/wa-automations/internal/model"
	"gitlab.com/timkado/api/wa-automations/internal/observer"
	"gitlab.com/timkado/api/wa-automations/internal/pacing"
	"gitlab.com/timkado/api/wa-automations/internal/selector"
	"gitlab.com/timkado/api/wa-automations/internal/template"
	"gitlab.com/timkado/api/wa-automations/pkg/logger"
)

// MarketingJobName labels marketing runs in logs and metrics
const MarketingJobName = "marketing_automations"

// marketingBatchLabel tags pacing metrics; one batch spans both automation types
const marketingBatchLabel = "marketing"

// MarketingJob sends birthday greetings and rescue messages at each tenant's send time
type MarketingJob struct {
	*Engine
}

var _ Job = (*MarketingJob)(nil)

// NewMarketingJob creates the marketing job on e
func NewMarketingJob(e *Engine) *MarketingJob {
	return &MarketingJob{Engine: e}
}

// Name implements Job
func (j *MarketingJob) Name() string {
	return MarketingJobName
}

// Run processes every tenant with birthday or rescue automation enabled
func (j *MarketingJob) Run(ctx context.Context) (summary *model.RunSummary, err error) {
	start := time.Now()
	ctx, log, err := j.startRun(ctx, MarketingJobName)
	defer func() { j.finishRun(log, MarketingJobName, start, summary, err) }()
	if err != nil {
		return nil, err
	}

	settings, err := j.repos.Settings.FindMarketingEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load marketing settings: %w", err)
	}
	if len(settings) == 0 {
		log.Info("No tenant has marketing automations enabled")
		return model.NewRunSummary(MessageNoTenants), nil
	}

	now := j.clock()
	log.Info("Starting marketing run",
		zap.Int("tenants", len(settings)),
		zap.String("business_time", now.In(j.selector.Zone()).Format("2006-01-02 15:04")),
	)

	return j.fanOut(ctx, MarketingJobName, settings, func(ctx context.Context, s model.BusinessSettings) (*model.RunSummary, error) {
		return j.runTenant(ctx, s, now)
	}), nil
}

func (j *MarketingJob) runTenant(ctx context.Context, s model.BusinessSettings, now time.Time) (*model.RunSummary, error) {
	summary := model.NewRunSummary(MessageCompleted)
	log := logger.FromContext(ctx).With(zap.String("user_id", s.UserID))

	hour, minute := s.SendTime(j.cfg.DefaultSendHour, j.cfg.DefaultSendMinute)
	if !j.selector.InSendWindow(now, hour, minute) {
		observer.IncTenantProcessed(MarketingJobName, "outside_window")
		log.Debug("Outside send window, skipping tenant",
			zap.Int("send_hour", hour),
			zap.Int("send_minute", minute),
			zap.Int("distance_minutes", selector.SendWindowDistance(now, j.selector.Zone(), hour, minute)),
		)
		return summary, nil
	}

	company, err := j.resolveCompany(ctx, s)
	if err != nil {
		return summary, fmt.Errorf("resolve company: %w", err)
	}
	ctx, log = j.withTenant(ctx, company)

	clients, err := j.repos.Clients.FindMarketingAudience(ctx, company.ID)
	if err != nil {
		return summary, fmt.Errorf("load clients: %w", err)
	}
	units, err := j.repos.Units.FindWithChannelByCompany(ctx, company.ID)
	if err != nil {
		return summary, fmt.Errorf("load units: %w", err)
	}
	observer.IncTenantProcessed(MarketingJobName, "processed")

	unitByID := make(map[string]*model.Unit, len(units))
	for i := range units {
		if units[i].HasChannelCredentials() {
			unitByID[units[i].ID] = &units[i]
		}
	}

	candidates := j.selector.MarketingCandidates(clients, &s, now, j.cfg.DefaultRescueDays)
	if len(candidates) == 0 {
		log.Debug("No marketing candidates", zap.Int("clients", len(clients)))
		return summary, nil
	}

	deliverable := 0
	for _, c := range candidates {
		if channel.DigitsOnly(c.Client.PhoneNumber()) != "" && unitByID[c.Client.Unit()] != nil {
			deliverable++
		}
	}
	log.Info("Marketing candidates selected",
		zap.Int("candidates", len(candidates)),
		zap.Int("deliverable", deliverable),
		zap.Int("units_with_channel", len(unitByID)),
	)

	paced := j.pacer.NewBatch(marketingBatchLabel, deliverable)
	for _, c := range candidates {
		if err := j.handleCandidate(ctx, s, company, c, unitByID, paced, summary, now); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (j *MarketingJob) handleCandidate(ctx context.Context, s model.BusinessSettings, company *model.Company, c selector.MarketingCandidate,
	unitByID map[string]*model.Unit, paced *pacing.Batch, summary *model.RunSummary, now time.Time) error {
	client := c.Client
	label := orFallback(client.Name, template.FallbackClientName)
	log := logger.FromContext(ctx).With(
		zap.String("client_id", client.ID),
		zap.String("automation_type", string(c.Type)),
	)

	if channel.DigitsOnly(client.PhoneNumber()) == "" {
		log.Debug("Client without phone, ignoring")
		j.emit(ctx, summary, ignored(company.ID, client.Unit(), label, c.Type, reasonMissingPhone))
		return nil
	}
	unit := unitByID[client.Unit()]
	if unit == nil {
		log.Debug("Client unit has no channel credentials, ignoring", zap.String("unit_id", client.Unit()))
		j.emit(ctx, summary, ignored(company.ID, client.Unit(), label, c.Type, reasonNoChannel))
		return nil
	}

	exists, err := j.guard.AlreadySent(ctx, client.ID, c.Type, now)
	if err != nil {
		log.Error("Dedup lookup failed, leaving client for next tick", zap.Error(err))
		j.emit(ctx, summary, lookupFailed(company.ID, unit.ID, label, c.Type))
		return nil
	}
	if exists {
		log.Debug("Already sent in current bucket")
		j.emit(ctx, summary, model.DispatchOutcome{
			RecipientLabel: label,
			AutomationType: c.Type,
			Status:         model.DispatchSkipped,
			CompanyID:      company.ID,
			UnitID:         unit.ID,
		})
		return nil
	}

	var days *int
	if c.Type == model.AutomationRescue {
		d := c.DaysSinceVisit
		days = &d
	}
	clientID := client.ID
	outcome, err := j.deliver(ctx, paced, dispatch{
		companyID:  company.ID,
		unit:       unit,
		label:      label,
		phone:      client.PhoneNumber(),
		body:       j.renderer.RenderFor(&s, c.Type, template.ForClient(client, unit.Name, days)),
		automation: c.Type,
		dedupKey:   j.guard.Key(c.Type, client.ID, now),
		clientID:   &clientID,
	})
	if err != nil {
		return fmt.Errorf("marketing run interrupted: %w", err)
	}
	j.emit(ctx, summary, outcome)
	return nil
}
