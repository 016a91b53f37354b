// Package domain contains persistence models for organization members.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// MemberRole controls what a member may administer.
type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

// Member is a person attached to an organization. The first member of an
// organization (lowest id) is the primary contact for billing email.
type Member struct {
	ID                  snowflake.ID `gorm:"primaryKey" json:"id"`
	OrganizationID      snowflake.ID `gorm:"not null;index" json:"organization_id"`
	FirstName           string       `gorm:"type:text;not null" json:"first_name"`
	LastName            string       `gorm:"type:text;not null" json:"last_name"`
	Email               string       `gorm:"type:text;not null;uniqueIndex" json:"email"`
	Phone               string       `gorm:"type:text" json:"phone"`
	PasswordHash        string       `gorm:"type:text" json:"-"`
	Role                MemberRole   `gorm:"type:text;not null" json:"role"`
	NewsletterFrequency string       `gorm:"type:text" json:"newsletter_frequency"`
	TwoFactorEnabled    bool         `gorm:"not null;default:false" json:"two_factor_enabled"`
	TwoFactorCode       *string      `gorm:"type:text" json:"-"`
	TwoFactorExpiresAt  *time.Time   `gorm:"" json:"-"`
	CreatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Member) TableName() string { return "members" }

// FullName joins first and last name for email salutations.
func (m Member) FullName() string {
	if m.FirstName == "" {
		return m.LastName
	}
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}
