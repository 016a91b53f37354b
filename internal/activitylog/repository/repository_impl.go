package repository

import (
	"context"
	"strings"
	"time"

	"github.com/alprail/membership/internal/activitylog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.Entry) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO activity_logs (
			id, actor_id, action, subject_type, subject_id, description,
			properties, ip_address, user_agent, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ActorID,
		entry.Action,
		entry.SubjectType,
		entry.SubjectID,
		entry.Description,
		entry.Properties,
		entry.IPAddress,
		entry.UserAgent,
		entry.CreatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Entry, error) {
	var entries []*domain.Entry
	stmt := db.WithContext(ctx).Model(&domain.Entry{})

	if action := strings.TrimSpace(filter.Action); action != "" {
		stmt = stmt.Where("action = ?", action)
	}
	if subjectType := strings.TrimSpace(filter.SubjectType); subjectType != "" {
		stmt = stmt.Where("subject_type = ?", subjectType)
	}
	if filter.SubjectID != nil {
		stmt = stmt.Where("subject_id = ?", *filter.SubjectID)
	}
	if filter.StartAt != nil {
		stmt = stmt.Where("created_at >= ?", filter.StartAt.UTC())
	}
	if filter.EndAt != nil {
		stmt = stmt.Where("created_at <= ?", filter.EndAt.UTC())
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

	if err := stmt.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) DeleteOlderThan(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(`DELETE FROM activity_logs WHERE created_at < ?`, cutoff.UTC())
	return result.RowsAffected, result.Error
}
