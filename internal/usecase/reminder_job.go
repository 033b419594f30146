package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/wa-automations/internal/apperrors"
	"gitlab.com/timkado/api/wa-automations/internal/channel"
	"gitlab.com/timkado/api/wa-automations/internal/model"
	"gitlab.com/timkado/api/wa-automations/internal/observer"
	"gitlab.com/timkado/api/wa-automations/internal/selector"
	"gitlab.com/timkado/api/wa-automations/internal/template"
	"gitlab.com/timkado/api/wa-automations/pkg/logger"
)

// ReminderJobName labels reminder runs in logs and metrics
const ReminderJobName = "appointment_reminders"

// ReminderJob sends one reminder per upcoming appointment
type ReminderJob struct {
	*Engine
}

var _ Job = (*ReminderJob)(nil)

// NewReminderJob creates the reminder job on e
func NewReminderJob(e *Engine) *ReminderJob {
	return &ReminderJob{Engine: e}
}

// Name implements Job
func (j *ReminderJob) Name() string {
	return ReminderJobName
}

// Run processes every tenant with reminders enabled
func (j *ReminderJob) Run(ctx context.Context) (summary *model.RunSummary, err error) {
	start := time.Now()
	ctx, log, err := j.startRun(ctx, ReminderJobName)
	defer func() { j.finishRun(log, ReminderJobName, start, summary, err) }()
	if err != nil {
		return nil, err
	}

	settings, err := j.repos.Settings.FindReminderEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reminder settings: %w", err)
	}
	if len(settings) == 0 {
		log.Info("No tenant has reminders enabled")
		return model.NewRunSummary(MessageNoTenants), nil
	}
	log.Info("Starting reminder run", zap.Int("tenants", len(settings)))

	now := j.clock()
	return j.fanOut(ctx, ReminderJobName, settings, func(ctx context.Context, s model.BusinessSettings) (*model.RunSummary, error) {
		return j.runTenant(ctx, s, now)
	}), nil
}

func (j *ReminderJob) runTenant(ctx context.Context, s model.BusinessSettings, now time.Time) (*model.RunSummary, error) {
	summary := model.NewRunSummary(MessageCompleted)

	company, err := j.resolveCompany(ctx, s)
	if err != nil {
		return summary, fmt.Errorf("resolve company: %w", err)
	}
	ctx, log := j.withTenant(ctx, company)

	lead := s.ReminderLeadMinutes(j.cfg.DefaultReminderMinutes)
	windowStart, windowEnd := j.selector.ReminderWindow(now, lead)
	appointments, err := j.repos.Appointments.FindInWindow(ctx, company.ID, windowStart, windowEnd, model.ReminderStatuses)
	if err != nil {
		return summary, fmt.Errorf("load appointments: %w", err)
	}
	observer.IncTenantProcessed(ReminderJobName, "processed")
	if len(appointments) == 0 {
		log.Debug("No appointments in reminder window",
			zap.Time("window_start", windowStart),
			zap.Time("window_end", windowEnd),
		)
		return summary, nil
	}
	log.Info("Appointments in reminder window",
		zap.Int("count", len(appointments)),
		zap.Int("lead_minutes", lead),
	)

	batches, withoutPhone := selector.GroupByUnit(appointments)
	for _, apt := range withoutPhone {
		log.Debug("Appointment without phone, ignoring", zap.String("appointment_id", apt.ID))
		j.emit(ctx, summary, ignored(company.ID, apt.Unit(), labelFor(apt), model.AutomationAppointmentReminder, reasonMissingPhone))
	}

	for _, batch := range batches {
		if err := j.runUnit(ctx, s, company, batch, summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (j *ReminderJob) runUnit(ctx context.Context, s model.BusinessSettings, company *model.Company, batch selector.UnitBatch, summary *model.RunSummary) error {
	log := logger.FromContext(ctx).With(zap.String("unit_id", batch.UnitID))

	unit, err := j.loadUnit(ctx, batch.UnitID)
	if err != nil {
		log.Error("Failed to load unit, skipping its appointments", zap.Error(err))
		return nil
	}
	if !unit.HasChannelCredentials() {
		log.Info("Unit has no channel credentials, ignoring its appointments", zap.Int("appointments", len(batch.Appointments)))
		for _, apt := range batch.Appointments {
			j.emit(ctx, summary, ignored(company.ID, batch.UnitID, labelFor(apt), model.AutomationAppointmentReminder, reasonNoChannel))
		}
		return nil
	}

	barbers, services := j.catalogNames(ctx, batch.Appointments)
	paced := j.pacer.NewBatch(string(model.AutomationAppointmentReminder), len(batch.Appointments))

	for _, apt := range batch.Appointments {
		aptLog := log.With(zap.String("appointment_id", apt.ID))

		exists, err := j.guard.AlreadyReminded(ctx, apt.ID)
		if err != nil {
			aptLog.Error("Dedup lookup failed, leaving appointment for next tick", zap.Error(err))
			j.emit(ctx, summary, lookupFailed(company.ID, unit.ID, labelFor(apt), model.AutomationAppointmentReminder))
			continue
		}
		if exists {
			aptLog.Debug("Reminder already sent")
			j.emit(ctx, summary, model.DispatchOutcome{
				RecipientLabel: labelFor(apt),
				AutomationType: model.AutomationAppointmentReminder,
				Status:         model.DispatchSkipped,
				CompanyID:      company.ID,
				UnitID:         unit.ID,
			})
			continue
		}

		appointmentID := apt.ID
		values := template.ForAppointment(apt, barbers[deref(apt.BarberID)], services[deref(apt.ServiceID)], unit.Name)
		outcome, err := j.deliver(ctx, paced, dispatch{
			companyID:     company.ID,
			unit:          unit,
			label:         labelFor(apt),
			phone:         apt.Phone(),
			body:          j.renderer.RenderFor(&s, model.AutomationAppointmentReminder, values),
			automation:    model.AutomationAppointmentReminder,
			dedupKey:      j.guard.Key(model.AutomationAppointmentReminder, apt.ID, j.clock()),
			clientID:      j.linkClient(ctx, company.ID, unit.ID, apt.Phone()),
			appointmentID: &appointmentID,
		})
		if err != nil {
			return fmt.Errorf("reminder run interrupted: %w", err)
		}
		j.emit(ctx, summary, outcome)
	}
	return nil
}

func (j *ReminderJob) loadUnit(ctx context.Context, unitID string) (*model.Unit, error) {
	if unitID == "" {
		return &model.Unit{}, nil
	}
	unit, err := j.repos.Units.FindByID(ctx, unitID)
	if apperrors.IsNotFoundError(err) {
		return &model.Unit{ID: unitID}, nil
	}
	return unit, err
}

// catalogNames resolves staff and service names for a unit batch. Lookup
// errors fall back to display defaults.
func (j *ReminderJob) catalogNames(ctx context.Context, appointments []model.Appointment) (barbers, services map[string]string) {
	var barberIDs, serviceIDs []string
	seenB, seenS := map[string]bool{}, map[string]bool{}
	for _, apt := range appointments {
		if id := deref(apt.BarberID); id != "" && !seenB[id] {
			seenB[id] = true
			barberIDs = append(barberIDs, id)
		}
		if id := deref(apt.ServiceID); id != "" && !seenS[id] {
			seenS[id] = true
			serviceIDs = append(serviceIDs, id)
		}
	}

	log := logger.FromContext(ctx)
	barbers, err := j.repos.Catalog.BarberNames(ctx, barberIDs)
	if err != nil {
		log.Warn("Failed to load barber names, using fallback", zap.Error(err))
		barbers = map[string]string{}
	}
	services, err = j.repos.Catalog.ServiceNames(ctx, serviceIDs)
	if err != nil {
		log.Warn("Failed to load service names, using fallback", zap.Error(err))
		services = map[string]string{}
	}
	return barbers, services
}

// linkClient finds the client record behind an appointment phone, raw or digits only
func (j *ReminderJob) linkClient(ctx context.Context, companyID, unitID, phone string) *string {
	phones := []string{phone}
	if digits := channel.DigitsOnly(phone); digits != "" && digits != phone {
		phones = append(phones, digits)
	}
	id, err := j.repos.Clients.FindIDByPhone(ctx, companyID, unitID, phones)
	if err != nil {
		if !apperrors.IsNotFoundError(err) {
			logger.FromContext(ctx).Warn("Client lookup by phone failed", zap.Error(err))
		}
		return nil
	}
	return &id
}

func labelFor(apt model.Appointment) string {
	return orFallback(apt.Name(), template.FallbackClientName)
}

func lookupFailed(companyID, unitID, label string, t model.AutomationType) model.DispatchOutcome {
	return model.DispatchOutcome{
		RecipientLabel: label,
		AutomationType: t,
		Status:         model.DispatchFailed,
		Error:          reasonDedupLookupErr,
		CompanyID:      companyID,
		UnitID:         unitID,
	}
}

func orFallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
