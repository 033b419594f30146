package model

import "time"

// Appointment statuses eligible for a reminder
const (
	AppointmentStatusPending   = "pending"
	AppointmentStatusConfirmed = "confirmed"
)

// ReminderStatuses lists the appointment statuses that receive reminders
var ReminderStatuses = []string{AppointmentStatusPending, AppointmentStatusConfirmed}

// Appointment is a booked slot; the reminder recipient
type Appointment struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	CompanyID   string    `json:"company_id" gorm:"column:company_id"`
	UnitID      *string   `json:"unit_id" gorm:"column:unit_id"`
	ClientName  *string   `json:"client_name" gorm:"column:client_name"`
	ClientPhone *string   `json:"client_phone" gorm:"column:client_phone"`
	StartTime   time.Time `json:"start_time" gorm:"column:start_time"`
	EndTime     time.Time `json:"end_time" gorm:"column:end_time"`
	Status      string    `json:"status" gorm:"column:status"`
	BarberID    *string   `json:"barber_id" gorm:"column:barber_id"`
	ServiceID   *string   `json:"service_id" gorm:"column:service_id"`
}

// TableName specifies the table name for GORM
func (Appointment) TableName() string {
	return "appointments"
}

// Phone returns the client phone or empty
func (a *Appointment) Phone() string {
	return deref(a.ClientPhone)
}

// Name returns the client name or empty
func (a *Appointment) Name() string {
	return deref(a.ClientName)
}

// Unit returns the unit id or empty
func (a *Appointment) Unit() string {
	return deref(a.UnitID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
