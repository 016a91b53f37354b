// Package domain contains persistence models for membership subscriptions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SubscriptionStatus represents lifecycle states for a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusPending  SubscriptionStatus = "pending"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// Subscription ties an organization to a plan for a period. Renewal
// extends EndDate in place; there is never a successor row.
type Subscription struct {
	ID             snowflake.ID       `gorm:"primaryKey" json:"id"`
	OrganizationID snowflake.ID       `gorm:"not null;index" json:"organization_id"`
	PlanID         snowflake.ID       `gorm:"not null;index" json:"plan_id"`
	StartDate      time.Time          `gorm:"not null" json:"start_date"`
	EndDate        time.Time          `gorm:"not null;index" json:"end_date"`
	Status         SubscriptionStatus `gorm:"type:text;not null;index" json:"status"`
	AutoRenew      bool               `gorm:"not null;default:false" json:"auto_renew"`
	LastWarnedDays *int               `gorm:"" json:"last_warned_days,omitempty"`
	LastWarnedAt   *time.Time         `gorm:"" json:"last_warned_at,omitempty"`
	CreatedAt      time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// IsTransitionAllowed reports whether moving from current to target is a
// legal lifecycle step. Expired subscriptions may be reinstated by a
// manual renewal.
func IsTransitionAllowed(current, target SubscriptionStatus) bool {
	switch current {
	case SubscriptionStatusPending:
		return target == SubscriptionStatusActive || target == SubscriptionStatusCanceled
	case SubscriptionStatusActive:
		return target == SubscriptionStatusExpired || target == SubscriptionStatusCanceled
	case SubscriptionStatusExpired:
		return target == SubscriptionStatusActive
	default:
		return false
	}
}

// DaysRemaining returns whole days until the subscription ends, never
// negative. Partial days are rounded down.
func DaysRemaining(endDate, now time.Time) int {
	remaining := endDate.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Hours() / 24)
}
