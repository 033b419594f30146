package selector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/wa-automations/internal/config"
	"gitlab.com/timkado/api/wa-automations/internal/model"
)

func newTestSelector() *Selector {
	return New(config.AutomationConfig{
		BusinessUTCOffsetHours: -3,
		ReminderWindowMinutes:  3,
		SendWindowMinutes:      3,
	})
}

func TestReminderWindow_Boundaries(t *testing.T) {
	s := newTestSelector()
	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		offset   time.Duration
		selected bool
	}{
		{"exactly at lead", 30 * time.Minute, true},
		{"three minutes early", 27 * time.Minute, true},
		{"three minutes late", 33 * time.Minute, true},
		{"just before window", 27*time.Minute - time.Second, false},
		{"four minutes late", 34 * time.Minute, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.selected, s.InReminderWindow(now.Add(tt.offset), now, 30))
		})
	}

	start, end := s.ReminderWindow(now, 30)
	assert.Equal(t, now.Add(27*time.Minute), start)
	assert.Equal(t, now.Add(33*time.Minute), end)
}

func TestInSendWindow(t *testing.T) {
	s := newTestSelector()
	// 13:00 UTC is 10:00 at UTC-3
	now := time.Date(2024, 6, 10, 13, 0, 0, 0, time.UTC)

	assert.True(t, s.InSendWindow(now, 10, 0))
	assert.True(t, s.InSendWindow(now, 10, 3))
	assert.True(t, s.InSendWindow(now, 9, 57))
	assert.False(t, s.InSendWindow(now, 10, 4))
	assert.False(t, s.InSendWindow(now, 13, 0), "host UTC clock must not be used")
}

func TestSendWindowDistance_WrapsMidnight(t *testing.T) {
	loc := newTestSelector().Zone()
	// 02:59 UTC is 23:59 at UTC-3
	now := time.Date(2024, 6, 10, 2, 59, 0, 0, time.UTC)

	assert.Equal(t, 2, SendWindowDistance(now, loc, 0, 1))
	assert.Equal(t, 0, SendWindowDistance(now, loc, 23, 59))
}

func TestIsBirthday_BusinessDay(t *testing.T) {
	loc := newTestSelector().Zone()
	birth := time.Date(1990, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"march 15 local", time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC), true},
		{"march 14 local", time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC), false},
		{"march 16 local", time.Date(2025, 3, 16, 12, 0, 0, 0, time.UTC), false},
		{"utc already 16th, local still 15th", time.Date(2025, 3, 16, 2, 0, 0, 0, time.UTC), true},
		{"utc 15th, local still 14th", time.Date(2025, 3, 15, 1, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBirthday(&birth, tt.now, loc))
		})
	}

	assert.False(t, IsBirthday(nil, time.Now(), loc))
}

func TestIsBirthday_LeapDayOnlyInLeapYears(t *testing.T) {
	loc := newTestSelector().Zone()
	birth := time.Date(2000, 2, 29, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsBirthday(&birth, time.Date(2024, 2, 29, 15, 0, 0, 0, time.UTC), loc))
	assert.False(t, IsBirthday(&birth, time.Date(2025, 2, 28, 15, 0, 0, 0, time.UTC), loc))
	assert.False(t, IsBirthday(&birth, time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC), loc))
}

func TestQualifiesRescue_Threshold(t *testing.T) {
	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)

	exactly := now.Add(-30 * 24 * time.Hour)
	ok, days := QualifiesRescue(&exactly, now, 30)
	assert.True(t, ok)
	assert.Equal(t, 30, days)

	short := now.Add(-29 * 24 * time.Hour)
	ok, days = QualifiesRescue(&short, now, 30)
	assert.False(t, ok)
	assert.Equal(t, 29, days)

	almost := now.Add(-30*24*time.Hour + time.Minute)
	ok, _ = QualifiesRescue(&almost, now, 30)
	assert.False(t, ok)

	ok, _ = QualifiesRescue(nil, now, 30)
	assert.False(t, ok)
}

func TestGroupByUnit(t *testing.T) {
	start := time.Now()
	a1 := *model.NewAppointment("c1", "u1", start)
	a2 := *model.NewAppointment("c1", "u2", start)
	a3 := *model.NewAppointment("c1", "u1", start)
	noPhone := *model.NewAppointment("c1", "u1", start, func(a *model.Appointment) { a.ClientPhone = nil })
	dash := "-"
	noDigits := *model.NewAppointment("c1", "u2", start, func(a *model.Appointment) { a.ClientPhone = &dash })

	batches, withoutPhone := GroupByUnit([]model.Appointment{a1, noPhone, a2, noDigits, a3})

	require.Len(t, batches, 2)
	assert.Equal(t, "u1", batches[0].UnitID)
	assert.Equal(t, []string{a1.ID, a3.ID}, []string{batches[0].Appointments[0].ID, batches[0].Appointments[1].ID})
	assert.Equal(t, "u2", batches[1].UnitID)
	require.Len(t, batches[1].Appointments, 1)
	require.Len(t, withoutPhone, 2)
	assert.Equal(t, noPhone.ID, withoutPhone[0].ID)
	assert.Equal(t, noDigits.ID, withoutPhone[1].ID)
}

func TestMarketingCandidates(t *testing.T) {
	s := newTestSelector()
	now := time.Date(2024, 6, 10, 13, 0, 0, 0, time.UTC)
	birthday := time.Date(1992, 6, 10, 0, 0, 0, 0, time.UTC)
	otherDay := time.Date(1992, 1, 2, 0, 0, 0, 0, time.UTC)
	longAgo := now.Add(-45 * 24 * time.Hour)
	recent := now.Add(-2 * 24 * time.Hour)
	optOut := true

	both := *model.NewClient("c1", "u1", func(c *model.Client) { c.BirthDate = &birthday; c.LastVisitAt = &longAgo })
	birthdayOnly := *model.NewClient("c1", "u1", func(c *model.Client) { c.BirthDate = &birthday; c.LastVisitAt = &recent })
	none := *model.NewClient("c1", "u1", func(c *model.Client) { c.BirthDate = &otherDay; c.LastVisitAt = &recent })
	optedOut := *model.NewClient("c1", "u1", func(c *model.Client) {
		c.BirthDate = &birthday
		c.LastVisitAt = &longAgo
		c.MarketingOptOut = &optOut
	})

	settings := model.NewBusinessSettings()
	got := s.MarketingCandidates([]model.Client{both, birthdayOnly, none, optedOut}, settings, now, 30)

	require.Len(t, got, 3)
	assert.Equal(t, both.ID, got[0].Client.ID)
	assert.Equal(t, model.AutomationBirthday, got[0].Type)
	assert.Equal(t, both.ID, got[1].Client.ID)
	assert.Equal(t, model.AutomationRescue, got[1].Type)
	assert.Equal(t, 45, got[1].DaysSinceVisit)
	assert.Equal(t, birthdayOnly.ID, got[2].Client.ID)

	settings.BirthdayAutomationEnabled = false
	got = s.MarketingCandidates([]model.Client{both, birthdayOnly}, settings, now, 30)
	require.Len(t, got, 1)
	assert.Equal(t, model.AutomationRescue, got[0].Type)
}

func TestMarketingCandidates_ZeroThresholdFallsBackToDefault(t *testing.T) {
	s := newTestSelector()
	now := time.Date(2024, 6, 10, 13, 0, 0, 0, time.UTC)
	otherDay := time.Date(1992, 1, 2, 0, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	zero := 0

	client := *model.NewClient("c1", "u1", func(c *model.Client) { c.BirthDate = &otherDay; c.LastVisitAt = &yesterday })
	settings := model.NewBusinessSettings(func(b *model.BusinessSettings) {
		b.RescueDaysThreshold = &zero
		b.AppointmentReminderMinutes = &zero
	})

	assert.Empty(t, s.MarketingCandidates([]model.Client{client}, settings, now, 30))
	assert.Equal(t, 30, settings.ReminderLeadMinutes(30))
}
