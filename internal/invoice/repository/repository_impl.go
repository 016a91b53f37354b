package repository

import (
	"context"
	"errors"
	"time"

	invoicedomain "github.com/alprail/membership/internal/invoice/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() invoicedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *invoicedomain.Invoice) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO invoices (
			id, organization_id, subscription_id, invoice_number, issue_date, due_date,
			amount, tax_amount, total_amount, currency, status, paid_at,
			reminder_sent_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		invoice.ID,
		invoice.OrganizationID,
		invoice.SubscriptionID,
		invoice.InvoiceNumber,
		invoice.IssueDate,
		invoice.DueDate,
		invoice.Amount,
		invoice.TaxAmount,
		invoice.TotalAmount,
		invoice.Currency,
		invoice.Status,
		invoice.PaidAt,
		invoice.ReminderSentAt,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, invoice *invoicedomain.Invoice) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoices SET
			status = ?, paid_at = ?, reminder_sent_at = ?, updated_at = ?
		WHERE id = ?`,
		invoice.Status,
		invoice.PaidAt,
		invoice.ReminderSentAt,
		invoice.UpdatedAt,
		invoice.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := db.WithContext(ctx).
		Raw(`SELECT * FROM invoices WHERE id = ?`, id).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter invoicedomain.ListFilter) ([]*invoicedomain.Invoice, error) {
	var invoices []*invoicedomain.Invoice
	stmt := db.WithContext(ctx).Model(&invoicedomain.Invoice{})

	if filter.OrganizationID != 0 {
		stmt = stmt.Where("organization_id = ?", filter.OrganizationID)
	}
	if filter.SubscriptionID != 0 {
		stmt = stmt.Where("subscription_id = ?", filter.SubscriptionID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) MarkOverdue(ctx context.Context, db *gorm.DB, today time.Time, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE invoices SET status = ?, updated_at = ?
		WHERE status = ? AND due_date < ?`,
		invoicedomain.InvoiceStatusOverdue,
		now.UTC(),
		invoicedomain.InvoiceStatusPending,
		startOfDay(today),
	)
	return result.RowsAffected, result.Error
}

func (r *repo) ListReminderCandidates(ctx context.Context, db *gorm.DB, dueDay time.Time, limit int) ([]*invoicedomain.Invoice, error) {
	var invoices []*invoicedomain.Invoice
	dayStart := startOfDay(dueDay)
	stmt := db.WithContext(ctx).
		Where("status = ?", invoicedomain.InvoiceStatusPending).
		Where("due_date >= ? AND due_date < ?", dayStart, dayStart.AddDate(0, 0, 1)).
		Where("reminder_sent_at IS NULL").
		Order("due_date asc, id asc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if err := stmt.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
