// Package domain contains persistence models for membership invoices.
package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// InvoiceStatus represents lifecycle states for an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending  InvoiceStatus = "pending"
	InvoiceStatusPaid     InvoiceStatus = "paid"
	InvoiceStatusOverdue  InvoiceStatus = "overdue"
	InvoiceStatusCanceled InvoiceStatus = "canceled"
)

// DueDays is the payment term applied to every new invoice.
const DueDays = 30

// Invoice bills an organization for one subscription period. Amounts are
// integer cents; TotalAmount = Amount + TaxAmount.
type Invoice struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrganizationID snowflake.ID  `gorm:"not null;index" json:"organization_id"`
	SubscriptionID snowflake.ID  `gorm:"not null;index" json:"subscription_id"`
	InvoiceNumber  string        `gorm:"type:text;not null;index" json:"invoice_number"`
	IssueDate      time.Time     `gorm:"not null" json:"issue_date"`
	DueDate        time.Time     `gorm:"not null;index" json:"due_date"`
	Amount         int64         `gorm:"not null" json:"amount"`
	TaxAmount      int64         `gorm:"not null" json:"tax_amount"`
	TotalAmount    int64         `gorm:"not null" json:"total_amount"`
	Currency       string        `gorm:"type:text;not null" json:"currency"`
	Status         InvoiceStatus `gorm:"type:text;not null;index" json:"status"`
	PaidAt         *time.Time    `gorm:"" json:"paid_at,omitempty"`
	ReminderSentAt *time.Time    `gorm:"" json:"reminder_sent_at,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// GenerateInvoiceNumber builds the human-facing invoice number: the issue
// date as YYYYMMDD and the organization id zero-padded to at least five
// digits. Numbers are not guaranteed unique when an organization is
// invoiced twice the same day.
func GenerateInvoiceNumber(issueDate time.Time, orgID snowflake.ID) string {
	return fmt.Sprintf("INV-%s-%05d", issueDate.UTC().Format("20060102"), int64(orgID))
}

// NewInvoice assembles a pending invoice with the standard payment term.
// Tax is currently always zero.
func NewInvoice(id, orgID, subscriptionID snowflake.ID, amount int64, currency string, issueDate time.Time) Invoice {
	issueDate = issueDate.UTC()
	return Invoice{
		ID:             id,
		OrganizationID: orgID,
		SubscriptionID: subscriptionID,
		InvoiceNumber:  GenerateInvoiceNumber(issueDate, orgID),
		IssueDate:      issueDate,
		DueDate:        issueDate.AddDate(0, 0, DueDays),
		Amount:         amount,
		TaxAmount:      0,
		TotalAmount:    amount,
		Currency:       currency,
		Status:         InvoiceStatusPending,
		CreatedAt:      issueDate,
		UpdatedAt:      issueDate,
	}
}
