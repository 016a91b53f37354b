// Package domain contains persistence models for member organizations.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// OrganizationType distinguishes single members from clubs and companies.
type OrganizationType string

const (
	OrganizationTypeIndividual   OrganizationType = "individual"
	OrganizationTypeOrganization OrganizationType = "organization"
)

// Organization is the billing counterparty. Subscriptions and invoices
// always hang off an organization, never an individual member.
type Organization struct {
	ID                snowflake.ID     `gorm:"primaryKey" json:"id"`
	Name              string           `gorm:"type:text;not null" json:"name"`
	Email             string           `gorm:"type:text;not null" json:"email"`
	Type              OrganizationType `gorm:"type:text;not null" json:"type"`
	Address           string           `gorm:"type:text" json:"address"`
	AddressComplement string           `gorm:"type:text" json:"address_complement"`
	ZipCode           string           `gorm:"type:text" json:"zip_code"`
	City              string           `gorm:"type:text" json:"city"`
	Country           string           `gorm:"type:text" json:"country"`
	Phone             string           `gorm:"type:text" json:"phone"`
	CreatedAt         time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }
