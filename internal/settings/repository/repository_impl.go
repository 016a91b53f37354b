package repository

import (
	"context"
	"errors"

	"github.com/alprail/membership/internal/settings/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, setting *domain.Setting) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(setting).Error
}

func (r *repo) FindByKey(ctx context.Context, db *gorm.DB, key string) (*domain.Setting, error) {
	var setting domain.Setting
	err := db.WithContext(ctx).
		Raw(`SELECT * FROM settings WHERE key = ?`, key).
		First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*domain.Setting, error) {
	var settings []*domain.Setting
	if err := db.WithContext(ctx).Model(&domain.Setting{}).Order("key asc").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}
