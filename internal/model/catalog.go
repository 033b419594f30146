package model

// Barber is a staff member assigned to appointments
type Barber struct {
	ID   string `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"column:name"`
}

// TableName specifies the table name for GORM
func (Barber) TableName() string {
	return "barbers"
}

// Service is a bookable service
type Service struct {
	ID   string `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"column:name"`
}

// TableName specifies the table name for GORM
func (Service) TableName() string {
	return "services"
}
