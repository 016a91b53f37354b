package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, setting *Setting) error
	FindByKey(ctx context.Context, db *gorm.DB, key string) (*Setting, error)
	List(ctx context.Context, db *gorm.DB) ([]*Setting, error)
}
