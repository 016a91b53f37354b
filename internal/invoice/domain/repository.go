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
	SubscriptionID snowflake.ID
	Status         InvoiceStatus
	Cursor         *Cursor
	Limit          int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Invoice, error)

	// MarkOverdue flips every pending invoice whose due date is before the
	// given day to overdue in a single statement and returns the row count.
	MarkOverdue(ctx context.Context, db *gorm.DB, today time.Time, now time.Time) (int64, error)
	// ListReminderCandidates returns pending invoices due exactly on the
	// given calendar day that have not been reminded yet.
	ListReminderCandidates(ctx context.Context, db *gorm.DB, dueDay time.Time, limit int) ([]*Invoice, error)
}
