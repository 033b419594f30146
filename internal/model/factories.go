package model

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"gitlab.com/timkado/api/wa-automations/pkg/utils"
)

// init ensures gofakeit is seeded.
func init() {
	gofakeit.Seed(time.Now().UnixNano())
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func fakePhone() string {
	return "11" + gofakeit.Numerify("9########")
}

// NewBusinessSettings creates settings with every automation enabled and fake templates.
// Overrides are applied in order.
func NewBusinessSettings(overrides ...func(*BusinessSettings)) *BusinessSettings {
	base := &BusinessSettings{
		ID:                          gofakeit.UUID(),
		UserID:                      gofakeit.UUID(),
		AppointmentReminderEnabled:  true,
		AppointmentReminderMinutes:  intPtr(gofakeit.RandomInt([]int{15, 30, 60, 120})),
		AppointmentReminderTemplate: strPtr("Oi {{nome}}, {{horario}} com {{profissional}}"),
		BirthdayAutomationEnabled:   true,
		BirthdayMessageTemplate:     strPtr("Parabéns {{nome}}!"),
		RescueAutomationEnabled:     true,
		RescueMessageTemplate:       strPtr("{{nome}}, faz {{dias}} dias!"),
		RescueDaysThreshold:         intPtr(30),
		AutomationSendHour:          intPtr(10),
		AutomationSendMinute:        intPtr(0),
	}
	for _, o := range overrides {
		o(base)
	}
	return base
}

// NewCompany creates a company owned by ownerUserID
func NewCompany(ownerUserID string) *Company {
	return &Company{
		ID:          gofakeit.UUID(),
		Name:        gofakeit.Company(),
		OwnerUserID: ownerUserID,
	}
}

// NewUnit creates a unit with channel credentials
func NewUnit(companyID string, overrides ...func(*Unit)) *Unit {
	base := &Unit{
		ID:                    gofakeit.UUID(),
		CompanyID:             companyID,
		Name:                  gofakeit.City(),
		EvolutionInstanceName: strPtr("inst_" + gofakeit.LetterN(8)),
		EvolutionAPIKey:       strPtr(gofakeit.UUID()),
	}
	for _, o := range overrides {
		o(base)
	}
	return base
}

// NewAppointment creates a confirmed appointment in unitID starting at start
func NewAppointment(companyID, unitID string, start time.Time, overrides ...func(*Appointment)) *Appointment {
	base := &Appointment{
		ID:          gofakeit.UUID(),
		CompanyID:   companyID,
		UnitID:      strPtr(unitID),
		ClientName:  strPtr(gofakeit.FirstName()),
		ClientPhone: strPtr(fakePhone()),
		StartTime:   start,
		EndTime:     start.Add(45 * time.Minute),
		Status:      AppointmentStatusConfirmed,
		BarberID:    strPtr(gofakeit.UUID()),
		ServiceID:   strPtr(gofakeit.UUID()),
	}
	for _, o := range overrides {
		o(base)
	}
	return base
}

// NewClient creates a client who visited recently and has no birthday today
func NewClient(companyID, unitID string, overrides ...func(*Client)) *Client {
	lastVisit := utils.Now().Add(-time.Duration(gofakeit.Number(1, 10)) * 24 * time.Hour)
	birth := time.Date(gofakeit.Number(1960, 2005), 1, 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, gofakeit.Number(0, 364))
	base := &Client{
		ID:          gofakeit.UUID(),
		CompanyID:   companyID,
		UnitID:      strPtr(unitID),
		Name:        gofakeit.Name(),
		Phone:       strPtr(fakePhone()),
		BirthDate:   &birth,
		LastVisitAt: &lastVisit,
	}
	for _, o := range overrides {
		o(base)
	}
	return base
}

// NewAutomationLog creates a sent log row for t
func NewAutomationLog(companyID string, t AutomationType, overrides ...func(*AutomationLog)) *AutomationLog {
	now := utils.Now()
	base := &AutomationLog{
		ID:             gofakeit.UUID(),
		CompanyID:      companyID,
		AutomationType: t,
		Status:         LogStatusSent,
		DedupKey:       string(t) + ":" + gofakeit.UUID(),
		SentAt:         now,
		CreatedAt:      now,
	}
	for _, o := range overrides {
		o(base)
	}
	return base
}
