//go:build integration

package integration_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gitlab.com/timkado/api/wa-automations/internal/apperrors"
	"gitlab.com/timkado/api/wa-automations/internal/model"
	"gitlab.com/timkado/api/wa-automations/internal/tenant"
)

type AutomationLogTestSuite struct {
	BaseIntegrationSuite
}

func TestAutomationLogSuite(t *testing.T) {
	suite.Run(t, new(AutomationLogTestSuite))
}

func (s *AutomationLogTestSuite) TestSentDedupKeyIsUnique() {
	ctx := tenant.WithCompanyID(s.Ctx, "co-1")
	aptID := "apt-1"
	key := model.DedupKeyReminder(aptID)
	withApt := func(l *model.AutomationLog) {
		l.AppointmentID = &aptID
		l.DedupKey = key
	}

	s.Require().NoError(s.Repo.Save(ctx, *model.NewAutomationLog("co-1", model.AutomationAppointmentReminder, withApt)))

	err := s.Repo.Save(ctx, *model.NewAutomationLog("co-1", model.AutomationAppointmentReminder, withApt))
	s.ErrorIs(err, apperrors.ErrDuplicate)

	msg := "http 500"
	failed := model.NewAutomationLog("co-1", model.AutomationAppointmentReminder, withApt, func(l *model.AutomationLog) {
		l.Status = model.LogStatusFailed
		l.ErrorMessage = &msg
	})
	s.NoError(s.Repo.Save(ctx, *failed), "failed rows are not constrained")

	s.EqualValues(2, s.CountLogs("dedup_key = ?", key))
}

func (s *AutomationLogTestSuite) TestExistsLookups() {
	ctx := tenant.WithCompanyID(s.Ctx, "co-1")
	clientID := "cli-1"
	sentAt := time.Now().UTC().Add(-10 * 24 * time.Hour)
	s.Require().NoError(s.Repo.Save(ctx, *model.NewAutomationLog("co-1", model.AutomationRescue, func(l *model.AutomationLog) {
		l.ClientID = &clientID
		l.SentAt = sentAt
	})))

	exists, err := s.Repo.ExistsForClientSince(ctx, clientID, model.AutomationRescue, time.Now().UTC().AddDate(0, 0, -30))
	s.Require().NoError(err)
	s.True(exists, "rescue inside cool-down")

	exists, err = s.Repo.ExistsForClientSince(ctx, clientID, model.AutomationRescue, time.Now().UTC().AddDate(0, 0, -5))
	s.Require().NoError(err)
	s.False(exists, "rescue older than bound")

	exists, err = s.Repo.ExistsForClientSince(ctx, clientID, model.AutomationBirthday, time.Time{})
	s.Require().NoError(err)
	s.False(exists, "other automation type")

	exists, err = s.Repo.ExistsForAppointment(ctx, "apt-unknown", model.AutomationAppointmentReminder)
	s.Require().NoError(err)
	s.False(exists)
}
