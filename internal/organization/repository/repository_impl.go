package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/alprail/membership/internal/organization/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, org *domain.Organization) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO organizations (
			id, name, email, type, address, address_complement, zip_code, city,
			country, phone, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		org.ID,
		org.Name,
		org.Email,
		org.Type,
		org.Address,
		org.AddressComplement,
		org.ZipCode,
		org.City,
		org.Country,
		org.Phone,
		org.CreatedAt,
		org.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, org *domain.Organization) error {
	return db.WithContext(ctx).Exec(
		`UPDATE organizations SET
			name = ?, email = ?, address = ?, address_complement = ?, zip_code = ?,
			city = ?, country = ?, phone = ?, updated_at = ?
		WHERE id = ?`,
		org.Name,
		org.Email,
		org.Address,
		org.AddressComplement,
		org.ZipCode,
		org.City,
		org.Country,
		org.Phone,
		org.UpdatedAt,
		org.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := db.WithContext(ctx).
		Raw(`SELECT * FROM organizations WHERE id = ?`, id).
		First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Organization, error) {
	var orgs []*domain.Organization
	stmt := db.WithContext(ctx).Model(&domain.Organization{})

	if orgType := strings.TrimSpace(filter.Type); orgType != "" {
		stmt = stmt.Where("type = ?", orgType)
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

	if err := stmt.Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}
