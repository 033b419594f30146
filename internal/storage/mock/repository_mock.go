package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"gitlab.com/timkado/api/wa-automations/internal/model"
)

// --- Repository Mock (Combined Interface) ---

// RepositoryMock mocks the combined Repository interface. Every method is
// recorded on the single embedded mock.Mock.
type RepositoryMock struct {
	mock.Mock
}

// Ping mocks the Ping method
func (m *RepositoryMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks the Close method
func (m *RepositoryMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- SettingsRepo ---

// FindReminderEnabled mocks the FindReminderEnabled method
func (m *RepositoryMock) FindReminderEnabled(ctx context.Context) ([]model.BusinessSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.BusinessSettings), args.Error(1)
}

// FindMarketingEnabled mocks the FindMarketingEnabled method
func (m *RepositoryMock) FindMarketingEnabled(ctx context.Context) ([]model.BusinessSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.BusinessSettings), args.Error(1)
}

// --- CompanyRepo ---

// FindByOwner mocks the FindByOwner method
func (m *RepositoryMock) FindByOwner(ctx context.Context, ownerUserID string) (*model.Company, error) {
	args := m.Called(ctx, ownerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Company), args.Error(1)
}

// --- UnitRepo ---

// FindByID mocks the FindByID method
func (m *RepositoryMock) FindByID(ctx context.Context, unitID string) (*model.Unit, error) {
	args := m.Called(ctx, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Unit), args.Error(1)
}

// FindWithChannelByCompany mocks the FindWithChannelByCompany method
func (m *RepositoryMock) FindWithChannelByCompany(ctx context.Context, companyID string) ([]model.Unit, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Unit), args.Error(1)
}

// --- AppointmentRepo ---

// FindInWindow mocks the FindInWindow method
func (m *RepositoryMock) FindInWindow(ctx context.Context, companyID string, start, end time.Time, statuses []string) ([]model.Appointment, error) {
	args := m.Called(ctx, companyID, start, end, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Appointment), args.Error(1)
}

// --- ClientRepo ---

// FindMarketingAudience mocks the FindMarketingAudience method
func (m *RepositoryMock) FindMarketingAudience(ctx context.Context, companyID string) ([]model.Client, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Client), args.Error(1)
}

// FindIDByPhone mocks the FindIDByPhone method
func (m *RepositoryMock) FindIDByPhone(ctx context.Context, companyID, unitID string, phones []string) (string, error) {
	args := m.Called(ctx, companyID, unitID, phones)
	return args.String(0), args.Error(1)
}

// --- CatalogRepo ---

// BarberNames mocks the BarberNames method
func (m *RepositoryMock) BarberNames(ctx context.Context, ids []string) (map[string]string, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

// ServiceNames mocks the ServiceNames method
func (m *RepositoryMock) ServiceNames(ctx context.Context, ids []string) (map[string]string, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

// --- AutomationLogRepo ---

// Save mocks the Save method
func (m *RepositoryMock) Save(ctx context.Context, log model.AutomationLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

// ExistsForAppointment mocks the ExistsForAppointment method
func (m *RepositoryMock) ExistsForAppointment(ctx context.Context, appointmentID string, automationType model.AutomationType) (bool, error) {
	args := m.Called(ctx, appointmentID, automationType)
	return args.Bool(0), args.Error(1)
}

// ExistsForClientSince mocks the ExistsForClientSince method
func (m *RepositoryMock) ExistsForClientSince(ctx context.Context, clientID string, automationType model.AutomationType, since time.Time) (bool, error) {
	args := m.Called(ctx, clientID, automationType, since)
	return args.Bool(0), args.Error(1)
}
