package model

import "strings"

// Unit is a branch of a company holding its own messaging channel credentials
type Unit struct {
	ID                    string  `json:"id" gorm:"primaryKey"`
	CompanyID             string  `json:"company_id" gorm:"column:company_id"`
	Name                  string  `json:"name" gorm:"column:name"`
	EvolutionInstanceName *string `json:"evolution_instance_name" gorm:"column:evolution_instance_name"`
	EvolutionAPIKey       *string `json:"evolution_api_key" gorm:"column:evolution_api_key"`
}

// TableName specifies the table name for GORM
func (Unit) TableName() string {
	return "units"
}

// ChannelCredentials is the instance/key pair used to reach the provider
type ChannelCredentials struct {
	Instance string
	APIKey   string
}

// HasChannelCredentials reports whether both instance and key are set.
// Units without them are inert for dispatch.
func (u *Unit) HasChannelCredentials() bool {
	return u != nil &&
		u.EvolutionInstanceName != nil && strings.TrimSpace(*u.EvolutionInstanceName) != "" &&
		u.EvolutionAPIKey != nil && strings.TrimSpace(*u.EvolutionAPIKey) != ""
}

// Credentials returns the unit's channel credentials; zero value when missing
func (u *Unit) Credentials() ChannelCredentials {
	if !u.HasChannelCredentials() {
		return ChannelCredentials{}
	}
	return ChannelCredentials{Instance: *u.EvolutionInstanceName, APIKey: *u.EvolutionAPIKey}
}
