package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Cursor marks a position in the created_at/id sort order.
type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	Type   string
	Cursor *Cursor
	Limit  int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, org *Organization) error
	Update(ctx context.Context, db *gorm.DB, org *Organization) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Organization, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Organization, error)
}
