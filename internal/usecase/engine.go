package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/wa-automations/internal/apperrors"
	"gitlab.com/timkado/api/wa-automations/internal/channel"
	"gitlab.com/timkado/api/wa-automations/internal/config"
	"gitlab.com/timkado/api/wa-automations/internal/delivery"
	"gitlab.com/timkado/api/wa-automations/internal/jetstream"
	"gitlab.com/timkado/api/wa-automations/internal/model"
	"gitlab.com/timkado/api/wa-automations/internal/observer"
	"gitlab.com/timkado/api/wa-automations/internal/pacing"
	"gitlab.com/timkado/api/wa-automations/internal/selector"
	"gitlab.com/timkado/api/wa-automations/internal/storage"
	"gitlab.com/timkado/api/wa-automations/internal/template"
	"gitlab.com/timkado/api/wa-automations/internal/tenant"
	"gitlab.com/timkado/api/wa-automations/pkg/logger"
)

// Summary messages
const (
	MessageCompleted = "processing completed"
	MessageNoTenants = "no tenants with automation enabled"
)

// Job is one automation run triggered by the scheduler, HTTP or CLI
type Job interface {
	Name() string
	Run(ctx context.Context) (*model.RunSummary, error)
}

// Repos groups the stores the engine reads and writes
type Repos struct {
	Settings     storage.SettingsRepo
	Companies    storage.CompanyRepo
	Units        storage.UnitRepo
	Appointments storage.AppointmentRepo
	Clients      storage.ClientRepo
	Catalog      storage.CatalogRepo
	Logs         storage.AutomationLogRepo
}

// ReposFrom exposes a combined repository as Repos
func ReposFrom(r storage.Repository) Repos {
	return Repos{
		Settings:     r,
		Companies:    r,
		Units:        r,
		Appointments: r,
		Clients:      r,
		Catalog:      r,
		Logs:         r,
	}
}

// Engine holds what both jobs share. It has no per-run state.
type Engine struct {
	repos     Repos
	cfg       config.AutomationConfig
	selector  *selector.Selector
	renderer  *template.Renderer
	guard     *delivery.Guard
	recorder  *delivery.Recorder
	pacer     *pacing.Pacer
	sender    channel.Sender
	publisher jetstream.OutcomePublisher
	pool      *TenantPool
	clock     func() time.Time
	log       *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the wall clock
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithPacer overrides the pacing scheduler
func WithPacer(p *pacing.Pacer) Option {
	return func(e *Engine) { e.pacer = p }
}

// WithPublisher sets the outcome event publisher
func WithPublisher(p jetstream.OutcomePublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// NewEngine wires the engine. sender may be nil when the provider endpoint is
// not configured; every run then fails with a configuration error.
func NewEngine(cfg config.AutomationConfig, repos Repos, sender channel.Sender, log *zap.Logger, opts ...Option) (*Engine, error) {
	sel := selector.New(cfg)
	pool, err := NewTenantPool(cfg.TenantConcurrency, log)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		repos:     repos,
		cfg:       cfg,
		selector:  sel,
		renderer:  template.NewRenderer(sel.Zone()),
		guard:     delivery.NewGuard(repos.Logs, sel.Zone(), cfg.RescueCooldownDays),
		recorder:  delivery.NewRecorder(repos.Logs),
		pacer:     pacing.New(),
		sender:    sender,
		publisher: jetstream.NoopPublisher{},
		pool:      pool,
		clock:     func() time.Time { return time.Now().UTC() },
		log:       log,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Close releases the tenant pool
func (e *Engine) Close() {
	e.pool.Release()
}

// startRun checks run preconditions and tags ctx with a run id and logger
func (e *Engine) startRun(ctx context.Context, job string) (context.Context, *zap.Logger, error) {
	runID := uuid.NewString()
	base := logger.FromContextOr(ctx, e.log).With(zap.String("job", job))
	ctx = logger.WithLogger(tenant.WithRunID(ctx, runID), base)
	log := logger.FromContext(ctx)

	if e.sender == nil {
		log.Error("Evolution API URL is not configured")
		return ctx, log, apperrors.NewFatal(apperrors.ErrConfiguration, "evolution API URL is not configured")
	}
	return ctx, log, nil
}

// fanOut runs one pass per tenant and merges the results in settings order.
// Failed tenants are logged and contribute nothing.
func (e *Engine) fanOut(ctx context.Context, job string, settings []model.BusinessSettings,
	pass func(ctx context.Context, s model.BusinessSettings) (*model.RunSummary, error)) *model.RunSummary {
	tasks := make([]tenantTask, len(settings))
	for i := range settings {
		s := settings[i]
		tasks[i] = func(ctx context.Context) (*model.RunSummary, error) {
			return pass(ctx, s)
		}
	}

	summaries, errs := e.pool.Run(ctx, tasks)

	summary := model.NewRunSummary(MessageCompleted)
	for i, partial := range summaries {
		summary.Merge(partial)
		if errs[i] != nil {
			observer.IncTenantProcessed(job, "error")
			logger.FromContext(ctx).Error("Tenant pass failed",
				zap.String("user_id", settings[i].UserID),
				zap.Error(errs[i]),
			)
		}
	}
	return summary
}

// withTenant scopes ctx and its logger to company
func (e *Engine) withTenant(ctx context.Context, company *model.Company) (context.Context, *zap.Logger) {
	ctx = tenant.WithCompanyID(ctx, company.ID)
	ctx = logger.WithLogger(ctx, logger.FromContextOr(ctx, e.log).With(zap.String("company_name", company.Name)))
	return ctx, logger.FromContext(ctx)
}

// resolveCompany finds the tenant behind a settings row
func (e *Engine) resolveCompany(ctx context.Context, s model.BusinessSettings) (*model.Company, error) {
	company, err := e.repos.Companies.FindByOwner(ctx, s.UserID)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			logger.FromContext(ctx).Info("No company for settings owner, skipping tenant", zap.String("user_id", s.UserID))
		}
		return nil, err
	}
	return company, nil
}

// finishRun logs and measures a completed run
func (e *Engine) finishRun(log *zap.Logger, job string, start time.Time, summary *model.RunSummary, err error) {
	observer.ObserveRunDuration(job, time.Since(start), err)
	if err != nil {
		log.Error("Run failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	log.Info("Run finished",
		zap.String("message", summary.Message),
		zap.Int("sent", summary.Sent),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int("ignored", summary.Ignored),
		zap.Duration("duration", time.Since(start)),
	)
}

// emit adds an outcome to the tenant summary, counts it and publishes it
func (e *Engine) emit(ctx context.Context, summary *model.RunSummary, o model.DispatchOutcome) {
	summary.Add(o)
	observer.IncDispatchOutcome(string(o.AutomationType), o.CompanyID, string(o.Status))
	_ = e.publisher.PublishOutcome(ctx, o)
}

// dispatch is one pending message after dedup and rendering
type dispatch struct {
	companyID     string
	unit          *model.Unit
	label         string
	phone         string
	body          string
	automation    model.AutomationType
	dedupKey      string
	clientID      *string
	appointmentID *string
}

// deliver paces, sends and records d. Only a cancelled context is returned as
// an error; send and log failures become outcomes.
func (e *Engine) deliver(ctx context.Context, batch *pacing.Batch, d dispatch) (model.DispatchOutcome, error) {
	outcome := model.DispatchOutcome{
		RecipientLabel: d.label,
		AutomationType: d.automation,
		CompanyID:      d.companyID,
		UnitID:         d.unit.ID,
	}
	log := logger.FromContext(ctx).With(
		zap.String("unit_id", d.unit.ID),
		zap.String("automation_type", string(d.automation)),
		zap.String("recipient", d.label),
	)

	delay, err := batch.Wait(ctx)
	if err != nil {
		return outcome, err
	}
	if delay > 0 {
		log.Debug("Paced before send", zap.Duration("delay", delay), zap.Int("position", batch.Position()), zap.Int("batch_size", batch.Total()))
	}

	msg := channel.Message{
		Credentials:   d.unit.Credentials(),
		Destination:   channel.NormalizePhone(d.phone, e.cfg.DefaultCountryCode),
		PresenceDelay: e.pacer.PresenceDelay(),
		Body:          d.body,
	}
	result, sendErr := e.sender.Send(ctx, msg)

	status, recErr := e.recorder.Record(ctx, delivery.Attempt{
		CompanyID:     d.companyID,
		ClientID:      d.clientID,
		AppointmentID: d.appointmentID,
		Type:          d.automation,
		DedupKey:      d.dedupKey,
		Result:        result,
		Err:           sendErr,
		At:            e.clock(),
	})
	if recErr != nil {
		log.Error("Failed to record delivery attempt", zap.Error(recErr))
	}

	outcome.Status = status
	if sendErr != nil {
		outcome.Error = sendErr.Error()
		outcome.Retryable = apperrors.IsRetryable(sendErr)
		if outcome.Retryable {
			log.Warn("Message not delivered, provider may accept it later", zap.Error(sendErr))
		} else {
			log.Error("Message rejected by provider", zap.Error(sendErr))
		}
	} else {
		log.Info("Message delivered", zap.String("status", string(status)))
	}
	return outcome, nil
}

// ignored builds the outcome of a recipient that cannot be dispatched
func ignored(companyID, unitID, label string, t model.AutomationType, reason string) model.DispatchOutcome {
	return model.DispatchOutcome{
		RecipientLabel: label,
		AutomationType: t,
		Status:         model.DispatchIgnored,
		Error:          reason,
		CompanyID:      companyID,
		UnitID:         unitID,
	}
}

// Reasons reported on ignored outcomes
const (
	reasonMissingPhone   = "missing phone number"
	reasonNoChannel      = "unit has no channel credentials"
	reasonDedupLookupErr = "dedup lookup failed"
)
