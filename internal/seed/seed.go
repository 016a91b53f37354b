// Package seed bootstraps the default catalog and admin account so a
// fresh install is usable without manual setup.
package seed

import (
	"context"
	"errors"
	"strings"

	memberdomain "github.com/alprail/membership/internal/member/domain"
	organizationdomain "github.com/alprail/membership/internal/organization/domain"
	plandomain "github.com/alprail/membership/internal/plan/domain"
	"github.com/bwmarrin/snowflake"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	defaultAdminOrgName  = "Administration"
	defaultAdminEmail    = "admin@membership.local"
	defaultAdminPassword = "admin"
)

type defaultPlan struct {
	Name           string
	Description    string
	PriceCHF       int64
	PriceEUR       int64
	DurationMonths int
}

var defaultPlans = []defaultPlan{
	{Name: "Individual", Description: "Single member, one year", PriceCHF: 5000, PriceEUR: 5000, DurationMonths: 12},
	{Name: "Family", Description: "Family membership, one year", PriceCHF: 7500, PriceEUR: 7500, DurationMonths: 12},
	{Name: "Club", Description: "Club membership, one year", PriceCHF: 15000, PriceEUR: 15000, DurationMonths: 12},
	{Name: "Enterprise", Description: "Enterprise membership, one year", PriceCHF: 30000, PriceEUR: 30000, DurationMonths: 12},
}

// EnsureDefaults seeds the default plans and the admin organization with
// its admin member. Safe to run on every startup.
func EnsureDefaults(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensurePlans(tx, node); err != nil {
			return err
		}
		return ensureAdmin(tx, node)
	})
}

func ensurePlans(tx *gorm.DB, node *snowflake.Node) error {
	for _, p := range defaultPlans {
		var existing plandomain.Plan
		err := tx.Where("name = ?", p.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		plan := plandomain.Plan{
			ID:             node.Generate(),
			Name:           p.Name,
			Description:    p.Description,
			PriceCHF:       p.PriceCHF,
			PriceEUR:       p.PriceEUR,
			DurationMonths: p.DurationMonths,
			Active:         true,
		}
		if err := tx.Create(&plan).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureAdmin(tx *gorm.DB, node *snowflake.Node) error {
	var existing memberdomain.Member
	err := tx.Where("email = ?", defaultAdminEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	org := organizationdomain.Organization{
		ID:    node.Generate(),
		Name:  defaultAdminOrgName,
		Email: defaultAdminEmail,
		Type:  organizationdomain.OrganizationTypeOrganization,
	}
	if err := tx.Create(&org).Error; err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(defaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := memberdomain.Member{
		ID:             node.Generate(),
		OrganizationID: org.ID,
		FirstName:      "Admin",
		LastName:       strings.TrimSpace(defaultAdminOrgName),
		Email:          defaultAdminEmail,
		PasswordHash:   string(hash),
		Role:           memberdomain.MemberRoleAdmin,
	}
	return tx.Create(&admin).Error
}
