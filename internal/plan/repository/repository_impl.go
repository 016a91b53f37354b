package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/alprail/membership/internal/plan/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, plan *domain.Plan) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO plans (
			id, name, description, price_chf, price_eur, duration_months, active,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID,
		plan.Name,
		plan.Description,
		plan.PriceCHF,
		plan.PriceEUR,
		plan.DurationMonths,
		plan.Active,
		plan.CreatedAt,
		plan.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, plan *domain.Plan) error {
	return db.WithContext(ctx).Exec(
		`UPDATE plans SET
			name = ?, description = ?, price_chf = ?, price_eur = ?,
			duration_months = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		plan.Name,
		plan.Description,
		plan.PriceCHF,
		plan.PriceEUR,
		plan.DurationMonths,
		plan.Active,
		plan.UpdatedAt,
		plan.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Plan, error) {
	var plan domain.Plan
	err := db.WithContext(ctx).
		Raw(`SELECT * FROM plans WHERE id = ?`, id).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*domain.Plan, error) {
	var plan domain.Plan
	err := db.WithContext(ctx).
		Raw(`SELECT * FROM plans WHERE name = ?`, strings.TrimSpace(name)).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Plan, error) {
	var plans []*domain.Plan
	stmt := db.WithContext(ctx).Model(&domain.Plan{})

	if filter.ActiveOnly {
		stmt = stmt.Where("active = ?", true)
	}

	if err := stmt.Order("price_chf asc, id asc").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}
