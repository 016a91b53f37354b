package seed

import (
	"testing"

	memberdomain "github.com/alprail/membership/internal/member/domain"
	organizationdomain "github.com/alprail/membership/internal/organization/domain"
	plandomain "github.com/alprail/membership/internal/plan/domain"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&organizationdomain.Organization{},
		&memberdomain.Member{},
		&plandomain.Plan{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func TestEnsureDefaultsIsIdempotent(t *testing.T) {
	gdb := setupDB(t)

	for i := 0; i < 2; i++ {
		if err := EnsureDefaults(gdb); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	var planCount int64
	if err := gdb.Model(&plandomain.Plan{}).Count(&planCount).Error; err != nil {
		t.Fatalf("count plans: %v", err)
	}
	if planCount != int64(len(defaultPlans)) {
		t.Fatalf("expected %d plans, got %d", len(defaultPlans), planCount)
	}

	var adminCount int64
	if err := gdb.Model(&memberdomain.Member{}).Where("email = ?", defaultAdminEmail).Count(&adminCount).Error; err != nil {
		t.Fatalf("count admins: %v", err)
	}
	if adminCount != 1 {
		t.Fatalf("expected one admin member, got %d", adminCount)
	}

	var individual plandomain.Plan
	if err := gdb.Where("name = ?", "Individual").First(&individual).Error; err != nil {
		t.Fatalf("load plan: %v", err)
	}
	if individual.PriceCHF != 5000 || individual.DurationMonths != 12 || !individual.Active {
		t.Fatalf("unexpected seeded plan %+v", individual)
	}
}
