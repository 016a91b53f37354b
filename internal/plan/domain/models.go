// Package domain contains persistence models for membership plans.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Supported billing currencies.
const (
	CurrencyCHF = "CHF"
	CurrencyEUR = "EUR"
)

// Plan is a membership tier. Prices are integer cents per currency; the
// lifecycle engine treats plans as read-only.
type Plan struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	Name           string       `gorm:"type:text;not null" json:"name"`
	Description    string       `gorm:"type:text" json:"description"`
	PriceCHF       int64        `gorm:"not null" json:"price_chf"`
	PriceEUR       int64        `gorm:"not null" json:"price_eur"`
	DurationMonths int          `gorm:"not null" json:"duration_months"`
	Active         bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Plan) TableName() string { return "plans" }

// Price returns the plan price in cents for the given currency.
// Unknown currencies fall back to CHF.
func (p Plan) Price(currency string) int64 {
	if currency == CurrencyEUR {
		return p.PriceEUR
	}
	return p.PriceCHF
}
