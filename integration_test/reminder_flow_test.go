//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"gitlab.com/timkado/api/wa-automations/internal/cache"
	"gitlab.com/timkado/api/wa-automations/internal/channel"
	"gitlab.com/timkado/api/wa-automations/internal/config"
	"gitlab.com/timkado/api/wa-automations/internal/model"
	"gitlab.com/timkado/api/wa-automations/internal/pacing"
	"gitlab.com/timkado/api/wa-automations/internal/usecase"
)

// fakeEvolution records sendText calls and answers like the provider
type fakeEvolution struct {
	mu       sync.Mutex
	requests []map[string]interface{}
	paths    []string
	apiKeys  []string
}

func (f *fakeEvolution) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.mu.Lock()
	f.requests = append(f.requests, body)
	f.paths = append(f.paths, r.URL.Path)
	f.apiKeys = append(f.apiKeys, r.Header.Get("apikey"))
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(`{"key":{"id":"BAE5"},"status":"PENDING"}`))
}

type ReminderFlowTestSuite struct {
	BaseIntegrationSuite
	evolution *fakeEvolution
	server    *httptest.Server
	job       *usecase.ReminderJob
	engine    *usecase.Engine
	now       time.Time
}

func TestReminderFlowSuite(t *testing.T) {
	suite.Run(t, new(ReminderFlowTestSuite))
}

func (s *ReminderFlowTestSuite) SetupTest() {
	s.BaseIntegrationSuite.SetupTest()
	s.evolution = &fakeEvolution{}
	s.server = httptest.NewServer(s.evolution)
	s.now = time.Now().UTC().Truncate(time.Second)

	sender, err := channel.NewEvolutionSender(s.server.URL, 5*time.Second)
	s.Require().NoError(err)

	lookups := cache.NewLookupCache(time.Minute, time.Minute)
	repos := usecase.ReposFrom(s.Repo)
	repos.Units = cache.NewCachedUnitRepo(repos.Units, lookups)
	repos.Catalog = cache.NewCachedCatalogRepo(repos.Catalog, lookups)

	noSleep := pacing.WithSleeper(func(context.Context, time.Duration) error { return nil })
	s.engine, err = usecase.NewEngine(config.AutomationConfig{
		BusinessUTCOffsetHours: -3,
		ReminderWindowMinutes:  3,
		SendWindowMinutes:      3,
		RescueCooldownDays:     30,
		DefaultReminderMinutes: 30,
		DefaultRescueDays:      30,
		DefaultSendHour:        10,
		DefaultCountryCode:     "55",
		TenantConcurrency:      2,
	}, repos, sender, zaptest.NewLogger(s.T()),
		usecase.WithClock(func() time.Time { return s.now }),
		usecase.WithPacer(pacing.New(noSleep)),
	)
	s.Require().NoError(err)
	s.job = usecase.NewReminderJob(s.engine)
}

func (s *ReminderFlowTestSuite) TearDownTest() {
	s.server.Close()
	s.engine.Close()
}

func (s *ReminderFlowTestSuite) TestReminderIsSentOnce() {
	settings := model.NewBusinessSettings(func(b *model.BusinessSettings) {
		lead := 30
		tpl := "Oi {{nome}}, {{servico}} com {{profissional}} na {{unidade}}"
		b.AppointmentReminderMinutes = &lead
		b.AppointmentReminderTemplate = &tpl
	})
	company := model.NewCompany(settings.UserID)
	unit := model.NewUnit(company.ID, func(u *model.Unit) { u.Name = "Centro" })
	barber := &model.Barber{ID: "barber-1", Name: "Carlos"}
	service := &model.Service{ID: "service-1", Name: "Corte"}
	name, phone := "Ana", "(11) 91234-5678"
	apt := model.NewAppointment(company.ID, unit.ID, s.now.Add(31*time.Minute), func(a *model.Appointment) {
		a.ClientName = &name
		a.ClientPhone = &phone
		a.BarberID = &barber.ID
		a.ServiceID = &service.ID
	})
	outside := model.NewAppointment(company.ID, unit.ID, s.now.Add(40*time.Minute))
	digits := "11912345678"
	client := model.NewClient(company.ID, unit.ID, func(c *model.Client) { c.Phone = &digits })
	s.Seed(settings, company, unit, barber, service, apt, outside, client)

	first, err := s.job.Run(s.Ctx)
	s.Require().NoError(err)
	s.Equal(1, first.Sent)

	second, err := s.job.Run(s.Ctx)
	s.Require().NoError(err)
	s.Equal(0, second.Sent)
	s.Equal(1, second.Skipped)

	s.Require().Len(s.evolution.requests, 1)
	s.Equal("/message/sendText/"+*unit.EvolutionInstanceName, s.evolution.paths[0])
	s.Equal(*unit.EvolutionAPIKey, s.evolution.apiKeys[0])
	s.Equal("5511912345678", s.evolution.requests[0]["number"])
	s.Equal("Oi Ana, Corte com Carlos na Centro", s.evolution.requests[0]["text"])

	var logs []model.AutomationLog
	s.Require().NoError(s.DB.Where("appointment_id = ?", apt.ID).Find(&logs).Error)
	s.Require().Len(logs, 1)
	s.Equal(model.LogStatusSent, logs[0].Status)
	s.Equal(company.ID, logs[0].CompanyID)
	s.Require().NotNil(logs[0].ClientID)
	s.Equal(client.ID, *logs[0].ClientID)
	s.JSONEq(`{"key":{"id":"BAE5"},"status":"PENDING"}`, string(logs[0].ProviderResponse))
}
