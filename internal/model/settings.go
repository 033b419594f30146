package model

// BusinessSettings holds a tenant's automation configuration. Rows are keyed by
// the owning user and are read-only to this service.
type BusinessSettings struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"column:user_id"`

	AppointmentReminderEnabled  bool    `json:"appointment_reminder_enabled" gorm:"column:appointment_reminder_enabled"`
	AppointmentReminderMinutes  *int    `json:"appointment_reminder_minutes" gorm:"column:appointment_reminder_minutes"`
	AppointmentReminderTemplate *string `json:"appointment_reminder_template" gorm:"column:appointment_reminder_template"`

	BirthdayAutomationEnabled bool    `json:"birthday_automation_enabled" gorm:"column:birthday_automation_enabled"`
	BirthdayMessageTemplate   *string `json:"birthday_message_template" gorm:"column:birthday_message_template"`

	RescueAutomationEnabled bool    `json:"rescue_automation_enabled" gorm:"column:rescue_automation_enabled"`
	RescueMessageTemplate   *string `json:"rescue_message_template" gorm:"column:rescue_message_template"`
	RescueDaysThreshold     *int    `json:"rescue_days_threshold" gorm:"column:rescue_days_threshold"`

	AutomationSendHour   *int `json:"automation_send_hour" gorm:"column:automation_send_hour"`
	AutomationSendMinute *int `json:"automation_send_minute" gorm:"column:automation_send_minute"`
}

// TableName specifies the table name for GORM
func (BusinessSettings) TableName() string {
	return "business_settings"
}

// ReminderLeadMinutes returns the configured lead time, or def when unset or not positive
func (s *BusinessSettings) ReminderLeadMinutes(def int) int {
	return positiveOr(s.AppointmentReminderMinutes, def)
}

// RescueThresholdDays returns the configured inactivity threshold, or def when unset or not positive
func (s *BusinessSettings) RescueThresholdDays(def int) int {
	return positiveOr(s.RescueDaysThreshold, def)
}

// SendTime returns the configured daily send time for marketing automations.
// Zero is a valid hour and minute.
func (s *BusinessSettings) SendTime(defHour, defMinute int) (hour, minute int) {
	return intOr(s.AutomationSendHour, defHour), intOr(s.AutomationSendMinute, defMinute)
}

// Template returns the tenant template for t; empty when unset.
func (s *BusinessSettings) Template(t AutomationType) string {
	var tpl *string
	switch t {
	case AutomationAppointmentReminder:
		tpl = s.AppointmentReminderTemplate
	case AutomationBirthday:
		tpl = s.BirthdayMessageTemplate
	case AutomationRescue:
		tpl = s.RescueMessageTemplate
	}
	if tpl == nil {
		return ""
	}
	return *tpl
}

// Enabled reports whether automation t is switched on
func (s *BusinessSettings) Enabled(t AutomationType) bool {
	switch t {
	case AutomationAppointmentReminder:
		return s.AppointmentReminderEnabled
	case AutomationBirthday:
		return s.BirthdayAutomationEnabled
	case AutomationRescue:
		return s.RescueAutomationEnabled
	}
	return false
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func positiveOr(v *int, def int) int {
	if v == nil || *v <= 0 {
		return def
	}
	return *v
}

// Company is a tenant
type Company struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"column:name"`
	OwnerUserID string `json:"owner_user_id" gorm:"column:owner_user_id"`
}

// TableName specifies the table name for GORM
func (Company) TableName() string {
	return "companies"
}
