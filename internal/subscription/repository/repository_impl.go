package repository

import (
	"context"
	"errors"
	"time"

	subscriptiondomain "github.com/alprail/membership/internal/subscription/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (
			id, organization_id, plan_id, start_date, end_date, status, auto_renew,
			last_warned_days, last_warned_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		subscription.ID,
		subscription.OrganizationID,
		subscription.PlanID,
		subscription.StartDate,
		subscription.EndDate,
		subscription.Status,
		subscription.AutoRenew,
		subscription.LastWarnedDays,
		subscription.LastWarnedAt,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET
			plan_id = ?, start_date = ?, end_date = ?, status = ?, auto_renew = ?,
			last_warned_days = ?, last_warned_at = ?, updated_at = ?
		WHERE id = ?`,
		subscription.PlanID,
		subscription.StartDate,
		subscription.EndDate,
		subscription.Status,
		subscription.AutoRenew,
		subscription.LastWarnedDays,
		subscription.LastWarnedAt,
		subscription.UpdatedAt,
		subscription.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Raw(`SELECT * FROM subscriptions WHERE id = ?`, id).
		First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}

func (r *repo) FindCurrentByOrganizationID(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Raw(`SELECT * FROM subscriptions
			WHERE organization_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT 1`, orgID).
		First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter subscriptiondomain.ListFilter) ([]*subscriptiondomain.Subscription, error) {
	var subscriptions []*subscriptiondomain.Subscription
	stmt := db.WithContext(ctx).Model(&subscriptiondomain.Subscription{})

	if filter.OrganizationID != 0 {
		stmt = stmt.Where("organization_id = ?", filter.OrganizationID)
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

	if err := stmt.Find(&subscriptions).Error; err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *repo) ListExpiredCandidates(ctx context.Context, db *gorm.DB, today time.Time, limit int) ([]*subscriptiondomain.Subscription, error) {
	var subscriptions []*subscriptiondomain.Subscription
	stmt := db.WithContext(ctx).
		Where("status = ?", subscriptiondomain.SubscriptionStatusActive).
		Where("end_date < ?", startOfDay(today)).
		Order("end_date asc, id asc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if err := stmt.Find(&subscriptions).Error; err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *repo) ListRenewalCandidates(ctx context.Context, db *gorm.DB, renewalDay time.Time, limit int) ([]*subscriptiondomain.Subscription, error) {
	var subscriptions []*subscriptiondomain.Subscription
	dayStart := startOfDay(renewalDay)
	stmt := db.WithContext(ctx).
		Where("status = ?", subscriptiondomain.SubscriptionStatusActive).
		Where("auto_renew = ?", true).
		Where("end_date >= ? AND end_date < ?", dayStart, dayStart.AddDate(0, 0, 1)).
		Order("end_date asc, id asc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if err := stmt.Find(&subscriptions).Error; err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *repo) ListWarningCandidates(ctx context.Context, db *gorm.DB, windowStart, windowEnd time.Time, thresholdDays, limit int) ([]*subscriptiondomain.Subscription, error) {
	var subscriptions []*subscriptiondomain.Subscription
	stmt := db.WithContext(ctx).
		Where("status = ?", subscriptiondomain.SubscriptionStatusActive).
		Where("end_date >= ? AND end_date < ?", startOfDay(windowStart), startOfDay(windowEnd).AddDate(0, 0, 1)).
		Where("last_warned_days IS NULL OR last_warned_days <> ?", thresholdDays).
		Order("end_date asc, id asc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if err := stmt.Find(&subscriptions).Error; err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
