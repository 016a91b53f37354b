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
	Role           string
	Cursor         *Cursor
	Limit          int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, member *Member) error
	Update(ctx context.Context, db *gorm.DB, member *Member) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Member, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Member, error)
	FindPrimaryByOrganizationID(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*Member, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Member, error)
}
