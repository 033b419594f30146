package storage

import (
	"context"
	"time"

	"gitlab.com/timkado/api/wa-automations/internal/model"
)

// SettingsRepoAdapter adapts the PostgresRepo to the SettingsRepo interface
type SettingsRepoAdapter struct {
	postgres *PostgresRepo
}

// NewSettingsRepoAdapter creates a new settings repository adapter
func NewSettingsRepoAdapter(postgres *PostgresRepo) SettingsRepo {
	return &SettingsRepoAdapter{postgres: postgres}
}

func (a *SettingsRepoAdapter) FindReminderEnabled(ctx context.Context) ([]model.BusinessSettings, error) {
	return a.postgres.FindReminderEnabledSettings(ctx)
}

func (a *SettingsRepoAdapter) FindMarketingEnabled(ctx context.Context) ([]model.BusinessSettings, error) {
	return a.postgres.FindMarketingEnabledSettings(ctx)
}

// CompanyRepoAdapter adapts the PostgresRepo to the CompanyRepo interface
type CompanyRepoAdapter struct {
	postgres *PostgresRepo
}

// NewCompanyRepoAdapter creates a new company repository adapter
func NewCompanyRepoAdapter(postgres *PostgresRepo) CompanyRepo {
	return &CompanyRepoAdapter{postgres: postgres}
}

func (a *CompanyRepoAdapter) FindByOwner(ctx context.Context, ownerUserID string) (*model.Company, error) {
	return a.postgres.FindCompanyByOwner(ctx, ownerUserID)
}

// UnitRepoAdapter adapts the PostgresRepo to the UnitRepo interface
type UnitRepoAdapter struct {
	postgres *PostgresRepo
}

// NewUnitRepoAdapter creates a new unit repository adapter
func NewUnitRepoAdapter(postgres *PostgresRepo) UnitRepo {
	return &UnitRepoAdapter{postgres: postgres}
}

func (a *UnitRepoAdapter) FindByID(ctx context.Context, unitID string) (*model.Unit, error) {
	return a.postgres.FindUnitByID(ctx, unitID)
}

func (a *UnitRepoAdapter) FindWithChannelByCompany(ctx context.Context, companyID string) ([]model.Unit, error) {
	return a.postgres.FindUnitsWithChannel(ctx, companyID)
}

// AppointmentRepoAdapter adapts the PostgresRepo to the AppointmentRepo interface
type AppointmentRepoAdapter struct {
	postgres *PostgresRepo
}

// NewAppointmentRepoAdapter creates a new appointment repository adapter
func NewAppointmentRepoAdapter(postgres *PostgresRepo) AppointmentRepo {
	return &AppointmentRepoAdapter{postgres: postgres}
}

func (a *AppointmentRepoAdapter) FindInWindow(ctx context.Context, companyID string, start, end time.Time, statuses []string) ([]model.Appointment, error) {
	return a.postgres.FindAppointmentsInWindow(ctx, companyID, start, end, statuses)
}

// ClientRepoAdapter adapts the PostgresRepo to the ClientRepo interface
type ClientRepoAdapter struct {
	postgres *PostgresRepo
}

// NewClientRepoAdapter creates a new client repository adapter
func NewClientRepoAdapter(postgres *PostgresRepo) ClientRepo {
	return &ClientRepoAdapter{postgres: postgres}
}

func (a *ClientRepoAdapter) FindMarketingAudience(ctx context.Context, companyID string) ([]model.Client, error) {
	return a.postgres.FindMarketingClients(ctx, companyID)
}

func (a *ClientRepoAdapter) FindIDByPhone(ctx context.Context, companyID, unitID string, phones []string) (string, error) {
	return a.postgres.FindClientIDByPhone(ctx, companyID, unitID, phones)
}

// CatalogRepoAdapter adapts the PostgresRepo to the CatalogRepo interface
type CatalogRepoAdapter struct {
	postgres *PostgresRepo
}

// NewCatalogRepoAdapter creates a new catalog repository adapter
func NewCatalogRepoAdapter(postgres *PostgresRepo) CatalogRepo {
	return &CatalogRepoAdapter{postgres: postgres}
}

func (a *CatalogRepoAdapter) BarberNames(ctx context.Context, ids []string) (map[string]string, error) {
	return a.postgres.FindBarberNames(ctx, ids)
}

func (a *CatalogRepoAdapter) ServiceNames(ctx context.Context, ids []string) (map[string]string, error) {
	return a.postgres.FindServiceNames(ctx, ids)
}

// AutomationLogRepoAdapter adapts the PostgresRepo to the AutomationLogRepo interface
type AutomationLogRepoAdapter struct {
	postgres *PostgresRepo
}

// NewAutomationLogRepoAdapter creates a new automation log repository adapter
func NewAutomationLogRepoAdapter(postgres *PostgresRepo) AutomationLogRepo {
	return &AutomationLogRepoAdapter{postgres: postgres}
}

func (a *AutomationLogRepoAdapter) Save(ctx context.Context, log model.AutomationLog) error {
	return a.postgres.SaveAutomationLog(ctx, log)
}

func (a *AutomationLogRepoAdapter) ExistsForAppointment(ctx context.Context, appointmentID string, automationType model.AutomationType) (bool, error) {
	return a.postgres.AutomationLogExistsForAppointment(ctx, appointmentID, automationType)
}

func (a *AutomationLogRepoAdapter) ExistsForClientSince(ctx context.Context, clientID string, automationType model.AutomationType, since time.Time) (bool, error) {
	return a.postgres.AutomationLogExistsForClientSince(ctx, clientID, automationType, since)
}

type repository struct {
	SettingsRepo
	CompanyRepo
	UnitRepo
	AppointmentRepo
	ClientRepo
	CatalogRepo
	AutomationLogRepo
	postgres *PostgresRepo
}

// NewRepository exposes every adapter of postgres through the combined Repository interface
func NewRepository(postgres *PostgresRepo) Repository {
	return &repository{
		SettingsRepo:      NewSettingsRepoAdapter(postgres),
		CompanyRepo:       NewCompanyRepoAdapter(postgres),
		UnitRepo:          NewUnitRepoAdapter(postgres),
		AppointmentRepo:   NewAppointmentRepoAdapter(postgres),
		ClientRepo:        NewClientRepoAdapter(postgres),
		CatalogRepo:       NewCatalogRepoAdapter(postgres),
		AutomationLogRepo: NewAutomationLogRepoAdapter(postgres),
		postgres:          postgres,
	}
}

func (r *repository) Ping(ctx context.Context) error {
	return r.postgres.Ping(ctx)
}

func (r *repository) Close(ctx context.Context) error {
	return r.postgres.Close(ctx)
}
