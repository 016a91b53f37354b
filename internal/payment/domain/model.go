// Package domain contains payment records and the provider adapter
// contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PaymentStatus represents lifecycle states for a payment attempt.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment records one checkout attempt against a provider. ProviderRef is
// the provider-side transaction id (checkout session, order, transaction).
type Payment struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrganizationID snowflake.ID  `gorm:"not null;index" json:"organization_id"`
	PlanID         snowflake.ID  `gorm:"not null;index" json:"plan_id"`
	SubscriptionID *snowflake.ID `gorm:"index" json:"subscription_id,omitempty"`
	InvoiceID      *snowflake.ID `gorm:"index" json:"invoice_id,omitempty"`
	Provider       string        `gorm:"type:text;not null;index" json:"provider"`
	ProviderRef    string        `gorm:"type:text;index" json:"provider_ref"`
	Amount         int64         `gorm:"not null" json:"amount"`
	Currency       string        `gorm:"type:text;not null" json:"currency"`
	Status         PaymentStatus `gorm:"type:text;not null;index" json:"status"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }
