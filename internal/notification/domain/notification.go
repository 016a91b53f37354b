// Package domain defines the notification kinds and their payloads.
package domain

import (
	"context"
	"errors"
	"time"
)

// Kind names one notification template. The values double as metric labels.
type Kind string

const (
	KindWelcome               Kind = "welcome"
	KindSubscriptionConfirmed Kind = "subscription-confirmed"
	KindExpiryWarning         Kind = "expiry-warning"
	KindPaymentReminder       Kind = "payment-reminder"
	KindInvoicePaid           Kind = "invoice-paid"
	KindSubscriptionRenewed   Kind = "subscription-renewed"
	KindTwoFactorCode         Kind = "two-factor-code"
	KindPasswordReset         Kind = "password-reset"
)

type WelcomeData struct {
	Name             string
	OrganizationName string
	PlanName         string
}

type SubscriptionConfirmedData struct {
	Name     string
	PlanName string
	StartAt  time.Time
	EndAt    time.Time
	Amount   int64
	Currency string
}

type ExpiryWarningData struct {
	Name     string
	PlanName string
	EndAt    time.Time
	Days     int
}

type PaymentReminderData struct {
	Name          string
	InvoiceNumber string
	DueAt         time.Time
	TotalAmount   int64
	Currency      string
}

type InvoicePaidData struct {
	Name          string
	InvoiceNumber string
	TotalAmount   int64
	Currency      string
	PaidAt        time.Time
}

type SubscriptionRenewedData struct {
	Name          string
	PlanName      string
	NewEndAt      time.Time
	InvoiceNumber string
	TotalAmount   int64
	Currency      string
}

type TwoFactorCodeData struct {
	Name      string
	Code      string
	ExpiresAt time.Time
}

type PasswordResetData struct {
	Name      string
	ResetURL  string
	ExpiresAt time.Time
}

// Service dispatches transactional mail. Sends are gated by the settings
// store; a disabled kind returns nil without sending. Callers on the
// billing path must treat errors as best-effort.
type Service interface {
	Welcome(ctx context.Context, to string, data WelcomeData) error
	SubscriptionConfirmed(ctx context.Context, to string, data SubscriptionConfirmedData) error
	ExpiryWarning(ctx context.Context, to string, data ExpiryWarningData) error
	PaymentReminder(ctx context.Context, to string, data PaymentReminderData) error
	InvoicePaid(ctx context.Context, to string, data InvoicePaidData) error
	SubscriptionRenewed(ctx context.Context, to string, data SubscriptionRenewedData) error
	TwoFactorCode(ctx context.Context, to string, data TwoFactorCodeData) error
	PasswordReset(ctx context.Context, to string, data PasswordResetData) error
}

var ErrNoRecipient = errors.New("no_recipient")
