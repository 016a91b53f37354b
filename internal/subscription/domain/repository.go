package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	OrganizationID snowflake.ID
	Status         SubscriptionStatus
	Cursor         *Cursor
	Limit          int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	Update(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	// FindCurrentByOrganizationID returns the newest subscription for the
	// organization: latest CreatedAt, ties broken by highest ID.
	FindCurrentByOrganizationID(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*Subscription, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Subscription, error)

	// Batch queries for the lifecycle engine. All date comparisons are
	// against UTC calendar days.
	ListExpiredCandidates(ctx context.Context, db *gorm.DB, today time.Time, limit int) ([]*Subscription, error)
	ListRenewalCandidates(ctx context.Context, db *gorm.DB, renewalDay time.Time, limit int) ([]*Subscription, error)
	ListWarningCandidates(ctx context.Context, db *gorm.DB, windowStart, windowEnd time.Time, thresholdDays, limit int) ([]*Subscription, error)
}
