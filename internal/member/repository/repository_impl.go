package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/alprail/membership/internal/member/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, member *domain.Member) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO members (
			id, organization_id, first_name, last_name, email, phone, password_hash,
			role, newsletter_frequency, two_factor_enabled, two_factor_code,
			two_factor_expires_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		member.ID,
		member.OrganizationID,
		member.FirstName,
		member.LastName,
		member.Email,
		member.Phone,
		member.PasswordHash,
		member.Role,
		member.NewsletterFrequency,
		member.TwoFactorEnabled,
		member.TwoFactorCode,
		member.TwoFactorExpiresAt,
		member.CreatedAt,
		member.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, member *domain.Member) error {
	return db.WithContext(ctx).Exec(
		`UPDATE members SET
			first_name = ?, last_name = ?, email = ?, phone = ?, role = ?,
			newsletter_frequency = ?, two_factor_enabled = ?, two_factor_code = ?,
			two_factor_expires_at = ?, updated_at = ?
		WHERE id = ?`,
		member.FirstName,
		member.LastName,
		member.Email,
		member.Phone,
		member.Role,
		member.NewsletterFrequency,
		member.TwoFactorEnabled,
		member.TwoFactorCode,
		member.TwoFactorExpiresAt,
		member.UpdatedAt,
		member.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM members WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Member, error) {
	var member domain.Member
	err := db.WithContext(ctx).
		Raw(`SELECT * FROM members WHERE id = ?`, id).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Member, error) {
	var member domain.Member
	err := db.WithContext(ctx).
		Raw(`SELECT * FROM members WHERE email = ?`, strings.ToLower(strings.TrimSpace(email))).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *repo) FindPrimaryByOrganizationID(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*domain.Member, error) {
	var member domain.Member
	err := db.WithContext(ctx).
		Raw(`SELECT * FROM members WHERE organization_id = ? ORDER BY id ASC LIMIT 1`, orgID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Member, error) {
	var members []*domain.Member
	stmt := db.WithContext(ctx).Model(&domain.Member{})

	if filter.OrganizationID != 0 {
		stmt = stmt.Where("organization_id = ?", filter.OrganizationID)
	}
	if role := strings.TrimSpace(filter.Role); role != "" {
		stmt = stmt.Where("role = ?", role)
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

	if err := stmt.Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
