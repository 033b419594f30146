package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessSettings_Defaults(t *testing.T) {
	s := &BusinessSettings{}

	assert.Equal(t, 30, s.ReminderLeadMinutes(30))
	assert.Equal(t, 30, s.RescueThresholdDays(30))
	h, m := s.SendTime(10, 0)
	assert.Equal(t, 10, h)
	assert.Equal(t, 0, m)
	assert.Empty(t, s.Template(AutomationBirthday))

	s = NewBusinessSettings(func(b *BusinessSettings) {
		b.AppointmentReminderMinutes = intPtr(60)
		b.AutomationSendMinute = intPtr(0)
		b.AutomationSendHour = intPtr(0)
	})
	assert.Equal(t, 60, s.ReminderLeadMinutes(30))
	h, m = s.SendTime(10, 30)
	assert.Equal(t, 0, h, "explicit midnight is not replaced by the default")
	assert.Equal(t, 0, m)
	assert.Equal(t, "Parabéns {{nome}}!", s.Template(AutomationBirthday))
}

func TestBusinessSettings_NonPositiveThresholdsUseDefaults(t *testing.T) {
	s := NewBusinessSettings(func(b *BusinessSettings) {
		b.AppointmentReminderMinutes = intPtr(0)
		b.RescueDaysThreshold = intPtr(-5)
	})

	assert.Equal(t, 30, s.ReminderLeadMinutes(30))
	assert.Equal(t, 30, s.RescueThresholdDays(30))
}

func TestBusinessSettings_Enabled(t *testing.T) {
	s := NewBusinessSettings(func(b *BusinessSettings) { b.RescueAutomationEnabled = false })

	assert.True(t, s.Enabled(AutomationAppointmentReminder))
	assert.True(t, s.Enabled(AutomationBirthday))
	assert.False(t, s.Enabled(AutomationRescue))
	assert.False(t, s.Enabled(AutomationType("sms")))
}

func TestUnit_HasChannelCredentials(t *testing.T) {
	assert.True(t, NewUnit("c").HasChannelCredentials())
	assert.False(t, NewUnit("c", func(u *Unit) { u.EvolutionAPIKey = nil }).HasChannelCredentials())
	assert.False(t, NewUnit("c", func(u *Unit) { u.EvolutionInstanceName = strPtr("  ") }).HasChannelCredentials())

	var missing *Unit
	assert.False(t, missing.HasChannelCredentials())
	assert.Equal(t, ChannelCredentials{}, missing.Credentials())
}

func TestDedupKeys(t *testing.T) {
	assert.Equal(t, "appointment_reminder:a-1", DedupKeyReminder("a-1"))

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.FixedZone("UTC-03", -3*3600))
	assert.Equal(t, "birthday:c-1:2024-03-15", DedupKeyBirthday("c-1", day))

	epoch := time.Unix(0, 0).UTC()
	assert.Equal(t, "rescue:c-1:0", DedupKeyRescue("c-1", epoch.AddDate(0, 0, 29), 30))
	assert.Equal(t, "rescue:c-1:1", DedupKeyRescue("c-1", epoch.AddDate(0, 0, 30), 30))
}

func TestRunSummary(t *testing.T) {
	s := NewRunSummary("ok")
	s.Add(DispatchOutcome{RecipientLabel: "Ana", Status: DispatchSent})
	s.Add(DispatchOutcome{RecipientLabel: "Bia", Status: DispatchSkipped})

	other := NewRunSummary("")
	other.Add(DispatchOutcome{RecipientLabel: "Caio", Status: DispatchFailed, Error: "HTTP 500"})
	other.Add(DispatchOutcome{RecipientLabel: "Duda", Status: DispatchIgnored})
	s.Merge(other)
	s.Merge(nil)

	assert.Equal(t, 1, s.Sent)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Ignored)
	assert.Len(t, s.Results, 4)
}

func TestRunSummary_JSONShape(t *testing.T) {
	raw, err := json.Marshal(NewRunSummary("no tenants with automation enabled"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"no tenants with automation enabled","sent":0,"skipped":0,"failed":0,"ignored":0,"results":[]}`, string(raw))

	raw, err = json.Marshal(DispatchOutcome{RecipientLabel: "Ana", AutomationType: AutomationBirthday, Status: DispatchSent, CompanyID: "c"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"recipientLabel":"Ana","automationType":"birthday","status":"sent"}`, string(raw))
}
