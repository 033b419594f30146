package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// AutomationType identifies the category of an outbound message
type AutomationType string

const (
	AutomationAppointmentReminder AutomationType = "appointment_reminder"
	AutomationBirthday            AutomationType = "birthday"
	AutomationRescue              AutomationType = "rescue"
)

// Valid reports whether t is one of the known automation types
func (t AutomationType) Valid() bool {
	switch t {
	case AutomationAppointmentReminder, AutomationBirthday, AutomationRescue:
		return true
	}
	return false
}

// LogStatus is the persisted outcome of a delivery attempt
type LogStatus string

const (
	LogStatusSent   LogStatus = "sent"
	LogStatusFailed LogStatus = "failed"
)

// AutomationLog is one delivery attempt. Rows are append-only and are the
// only record of what has already been attempted.
type AutomationLog struct {
	ID               string         `json:"id" gorm:"type:uuid;primaryKey" validate:"required"`
	CompanyID        string         `json:"company_id" gorm:"column:company_id;index" validate:"required"`
	ClientID         *string        `json:"client_id,omitempty" gorm:"column:client_id;index:idx_automation_logs_client_type"`
	AppointmentID    *string        `json:"appointment_id,omitempty" gorm:"column:appointment_id;index:idx_automation_logs_appointment_type"`
	AutomationType   AutomationType `json:"automation_type" gorm:"column:automation_type;index:idx_automation_logs_client_type;index:idx_automation_logs_appointment_type" validate:"required"`
	Status           LogStatus      `json:"status" gorm:"column:status" validate:"required,oneof=sent failed"`
	ErrorMessage     *string        `json:"error_message,omitempty" gorm:"column:error_message"`
	ProviderResponse datatypes.JSON `json:"provider_response,omitempty" gorm:"type:jsonb;column:provider_response"`
	// DedupKey is unique among sent rows, see DedupKey* helpers.
	DedupKey  string    `json:"dedup_key" gorm:"column:dedup_key;index:idx_automation_logs_sent_dedup,unique,where:status = 'sent'" validate:"required"`
	SentAt    time.Time `json:"sent_at" gorm:"column:sent_at;index"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (AutomationLog) TableName() string {
	return "automation_logs"
}

// DedupKeyReminder is the bucket key of a reminder: one per appointment.
func DedupKeyReminder(appointmentID string) string {
	return fmt.Sprintf("%s:%s", AutomationAppointmentReminder, appointmentID)
}

// DedupKeyBirthday is the bucket key of a birthday greeting: one per client per business-local day.
func DedupKeyBirthday(clientID string, businessDay time.Time) string {
	return fmt.Sprintf("%s:%s:%s", AutomationBirthday, clientID, businessDay.Format("2006-01-02"))
}

// DedupKeyRescue is the bucket key of a rescue message: one per client per
// cool-down period, counted from the Unix epoch.
func DedupKeyRescue(clientID string, now time.Time, cooldownDays int) string {
	if cooldownDays <= 0 {
		cooldownDays = 1
	}
	bucket := now.Unix() / int64(cooldownDays*24*60*60)
	return fmt.Sprintf("%s:%s:%d", AutomationRescue, clientID, bucket)
}
