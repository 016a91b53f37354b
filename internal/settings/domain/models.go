// Package domain contains the key/value settings store backing email toggles.
package domain

import (
	"context"
	"errors"
	"time"
)

// Well-known setting keys. Values are stored as strings; booleans as
// "true"/"false", integers base-10.
const (
	KeyWelcomeEnabled      = "welcome_enabled"
	KeySubscriptionEnabled = "subscription_enabled"
	KeyReminderEnabled     = "reminder_enabled"
	KeyReminderDaysBefore  = "reminder_days_before"
	KeyPaymentEnabled      = "payment_enabled"
)

// Setting is a single configuration row.
type Setting struct {
	Key       string    `gorm:"primaryKey;type:text" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Setting) TableName() string { return "settings" }

// Defaults applied when a key has never been written.
var Defaults = map[string]string{
	KeyWelcomeEnabled:      "true",
	KeySubscriptionEnabled: "true",
	KeyReminderEnabled:     "true",
	KeyReminderDaysBefore:  "7",
	KeyPaymentEnabled:      "true",
}

type Service interface {
	GetBool(ctx context.Context, key string) bool
	GetInt(ctx context.Context, key string) int
	GetString(ctx context.Context, key string) string
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}

var ErrUnknownKey = errors.New("unknown_setting_key")
