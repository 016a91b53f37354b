package repository

import (
	"context"
	"errors"

	paymentdomain "github.com/alprail/membership/internal/payment/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() paymentdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *paymentdomain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, organization_id, plan_id, subscription_id, invoice_id,
			provider, provider_ref, amount, currency, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.OrganizationID,
		payment.PlanID,
		payment.SubscriptionID,
		payment.InvoiceID,
		payment.Provider,
		payment.ProviderRef,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, payment *paymentdomain.Payment) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments SET
			subscription_id = ?, invoice_id = ?, provider_ref = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		payment.SubscriptionID,
		payment.InvoiceID,
		payment.ProviderRef,
		payment.Status,
		payment.UpdatedAt,
		payment.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*paymentdomain.Payment, error) {
	var payment paymentdomain.Payment
	err := db.WithContext(ctx).
		Raw(`SELECT * FROM payments WHERE id = ?`, id).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*paymentdomain.Payment, error) {
	var payment paymentdomain.Payment
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repo) FindByProviderRef(ctx context.Context, db *gorm.DB, provider, providerRef string) (*paymentdomain.Payment, error) {
	var payment paymentdomain.Payment
	err := db.WithContext(ctx).
		Raw(`SELECT * FROM payments WHERE provider = ? AND provider_ref = ?`, provider, providerRef).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter paymentdomain.ListFilter) ([]*paymentdomain.Payment, error) {
	var payments []*paymentdomain.Payment
	stmt := db.WithContext(ctx).Model(&paymentdomain.Payment{})

	if filter.OrganizationID != 0 {
		stmt = stmt.Where("organization_id = ?", filter.OrganizationID)
	}
	if filter.Provider != "" {
		stmt = stmt.Where("provider = ?", filter.Provider)
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

	if err := stmt.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
