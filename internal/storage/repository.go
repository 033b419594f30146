package storage

import (
	"context"
	"time"

	"gitlab.com/timkado/api/wa-automations/internal/model"
)

// SettingsRepo reads tenant automation settings
type SettingsRepo interface {
	FindReminderEnabled(ctx context.Context) ([]model.BusinessSettings, error)
	FindMarketingEnabled(ctx context.Context) ([]model.BusinessSettings, error)
}

// CompanyRepo resolves the company owned by a settings row's user
type CompanyRepo interface {
	FindByOwner(ctx context.Context, ownerUserID string) (*model.Company, error)
}

// UnitRepo reads units and their channel credentials
type UnitRepo interface {
	FindByID(ctx context.Context, unitID string) (*model.Unit, error)
	FindWithChannelByCompany(ctx context.Context, companyID string) ([]model.Unit, error)
}

// AppointmentRepo reads reminder candidates
type AppointmentRepo interface {
	FindInWindow(ctx context.Context, companyID string, start, end time.Time, statuses []string) ([]model.Appointment, error)
}

// ClientRepo reads marketing candidates
type ClientRepo interface {
	FindMarketingAudience(ctx context.Context, companyID string) ([]model.Client, error)
	// FindIDByPhone returns apperrors.ErrNotFound when no client matches any of phones
	FindIDByPhone(ctx context.Context, companyID, unitID string, phones []string) (string, error)
}

// CatalogRepo resolves display names for staff and services
type CatalogRepo interface {
	BarberNames(ctx context.Context, ids []string) (map[string]string, error)
	ServiceNames(ctx context.Context, ids []string) (map[string]string, error)
}

// AutomationLogRepo is the append-only delivery log
type AutomationLogRepo interface {
	// Save returns apperrors.ErrDuplicate when a sent row with the same dedup key exists
	Save(ctx context.Context, log model.AutomationLog) error
	ExistsForAppointment(ctx context.Context, appointmentID string, automationType model.AutomationType) (bool, error)
	ExistsForClientSince(ctx context.Context, clientID string, automationType model.AutomationType, since time.Time) (bool, error)
}

// Repository bundles every repository together with lifecycle calls
type Repository interface {
	SettingsRepo
	CompanyRepo
	UnitRepo
	AppointmentRepo
	ClientRepo
	CatalogRepo
	AutomationLogRepo
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
