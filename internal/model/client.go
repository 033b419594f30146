package model

import "time"

// Client is a customer of a company; the marketing recipient
type Client struct {
	ID              string     `json:"id" gorm:"primaryKey"`
	CompanyID       string     `json:"company_id" gorm:"column:company_id"`
	UnitID          *string    `json:"unit_id" gorm:"column:unit_id"`
	Name            string     `json:"name" gorm:"column:name"`
	Phone           *string    `json:"phone" gorm:"column:phone"`
	BirthDate       *time.Time `json:"birth_date" gorm:"column:birth_date;type:date"`
	LastVisitAt     *time.Time `json:"last_visit_at" gorm:"column:last_visit_at"`
	MarketingOptOut *bool      `json:"marketing_opt_out" gorm:"column:marketing_opt_out"`
}

// TableName specifies the table name for GORM
func (Client) TableName() string {
	return "clients"
}

// PhoneNumber returns the phone or empty
func (c *Client) PhoneNumber() string {
	return deref(c.Phone)
}

// Unit returns the unit id or empty
func (c *Client) Unit() string {
	return deref(c.UnitID)
}

// OptedOut reports an explicit marketing opt-out; NULL means opted in
func (c *Client) OptedOut() bool {
	return c.MarketingOptOut != nil && *c.MarketingOptOut
}
