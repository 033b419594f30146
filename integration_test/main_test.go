//go:build integration

package integration_test

import (
	"context"
	"os"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"gitlab.com/timkado/api/wa-automations/internal/model"
	"gitlab.com/timkado/api/wa-automations/internal/storage"
	"gitlab.com/timkado/api/wa-automations/pkg/logger"
)

// Environment variables pointing the suites at disposable services
const (
	PostgresDSNEnv = "INTEGRATION_POSTGRES_DSN"
	NatsURLEnv     = "INTEGRATION_NATS_URL"
)

// saasTables are owned by the SaaS schema in production; the suite creates them
var saasTables = []interface{}{
	&model.BusinessSettings{},
	&model.Company{},
	&model.Unit{},
	&model.Appointment{},
	&model.Client{},
	&model.Barber{},
	&model.Service{},
}

// BaseIntegrationSuite provides a migrated database and the repository under test.
// Tests needing only the DB can embed this suite.
type BaseIntegrationSuite struct {
	suite.Suite
	Ctx    context.Context
	cancel context.CancelFunc
	DB     *gorm.DB
	PG     *storage.PostgresRepo
	Repo   storage.Repository
}

// SetupSuite runs once before the tests in the base suite are run.
func (s *BaseIntegrationSuite) SetupSuite() {
	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		s.T().Skipf("%s not set, skipping integration suite", PostgresDSNEnv)
	}
	logger.Log = zaptest.NewLogger(s.T()).Named("integration")
	s.Ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Silent)})
	s.Require().NoError(err, "failed to open fixture connection")
	s.Require().NoError(db.AutoMigrate(saasTables...), "failed to create SaaS tables")
	s.DB = db

	s.PG, err = storage.NewPostgresRepo(dsn, true)
	s.Require().NoError(err, "failed to initialize repository")
	s.Repo = storage.NewRepository(s.PG)
}

// TearDownSuite runs once after all tests in the base suite have finished.
func (s *BaseIntegrationSuite) TearDownSuite() {
	if s.PG != nil {
		_ = s.PG.Close(context.Background())
	}
	if s.DB != nil {
		if sqlDB, err := s.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
}

// SetupTest empties every table before each test.
func (s *BaseIntegrationSuite) SetupTest() {
	s.Require().NoError(s.DB.Exec(`TRUNCATE business_settings, companies, units, appointments,
		clients, barbers, services, automation_logs`).Error)
}

// Seed inserts fixture rows in order
func (s *BaseIntegrationSuite) Seed(rows ...interface{}) {
	for _, row := range rows {
		s.Require().NoError(s.DB.Create(row).Error)
	}
}

// CountLogs counts automation_logs rows matching where
func (s *BaseIntegrationSuite) CountLogs(where string, args ...interface{}) int64 {
	var n int64
	s.Require().NoError(s.DB.Model(&model.AutomationLog{}).Where(where, args...).Count(&n).Error)
	return n
}
