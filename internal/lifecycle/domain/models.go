// Package domain contains the lifecycle engine's job definitions and its
// advisory lock row.
package domain

import (
	"context"
	"time"
)

// Job names, used as lock keys and metric labels.
const (
	JobExpireSubscriptions = "expire_subscriptions"
	JobRenewSubscriptions  = "renew_subscriptions"
	JobSendExpiryWarnings  = "send_expiry_warnings"
	JobSendReminders       = "send_payment_reminders"
	JobMarkOverdue         = "mark_overdue_invoices"
	JobPurgeActivityLogs   = "purge_activity_logs"
)

// RenewalLeadDays is how many days before expiry an auto-renewing
// subscription is extended.
const RenewalLeadDays = 7

// WarningThresholds are the days-before-expiry marks a warning mail goes
// out at.
var WarningThresholds = []int{30, 7}

// LogRetentionDays is how long activity log entries are kept.
const LogRetentionDays = 90

// JobLock is the advisory lock row guarding each job against concurrent
// runs across processes. A lock is free when LockedUntil has passed.
type JobLock struct {
	JobName     string    `gorm:"primaryKey;type:text" json:"job_name"`
	LockedBy    string    `gorm:"type:text;not null" json:"locked_by"`
	LockedUntil time.Time `gorm:"not null" json:"locked_until"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (JobLock) TableName() string { return "job_locks" }

// Engine runs the recurring subscription and invoice maintenance jobs.
// Jobs never return an error to the caller; failures are counted, logged
// and retried on the next tick.
type Engine interface {
	ExpireOverdueSubscriptions(ctx context.Context)
	RenewEligibleSubscriptions(ctx context.Context)
	SendExpiryWarnings(ctx context.Context, thresholdDays int)
	SendPaymentReminders(ctx context.Context)
	MarkOverdueInvoices(ctx context.Context)
	PurgeActivityLogs(ctx context.Context)
}
