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
	Provider       string
	Status         PaymentStatus
	Cursor         *Cursor
	Limit          int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	Update(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	FindByProviderRef(ctx context.Context, db *gorm.DB, provider, providerRef string) (*Payment, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Payment, error)
}
