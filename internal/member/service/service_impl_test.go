package service

import (
	"context"
	"testing"
	"time"

	"github.com/alprail/membership/internal/clock"
	"github.com/alprail/membership/internal/member/domain"
	memberrepo "github.com/alprail/membership/internal/member/repository"
	organizationdomain "github.com/alprail/membership/internal/organization/domain"
	organizationrepo "github.com/alprail/membership/internal/organization/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db   *gorm.DB
	svc  domain.Service
	node *snowflake.Node
	org  organizationdomain.Organization
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := gdb.AutoMigrate(&organizationdomain.Organization{}, &domain.Member{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(26)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	fakeClock := clock.NewFakeClock(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))

	svc := NewService(Params{
		DB:      gdb,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fakeClock,
		Repo:    memberrepo.Provide(),
		OrgRepo: organizationrepo.Provide(),
	})

	org := organizationdomain.Organization{
		ID:        node.Generate(),
		Name:      "Ruderclub Basel",
		Email:     "club@example.ch",
		Type:      organizationdomain.OrganizationTypeOrganization,
		CreatedAt: fakeClock.Now(),
		UpdatedAt: fakeClock.Now(),
	}
	if err := organizationrepo.Provide().Insert(ctx, gdb, &org); err != nil {
		t.Fatalf("insert org: %v", err)
	}

	return &fixture{db: gdb, svc: svc, node: node, org: org}
}

func TestCreateMemberNormalizesEmail(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	m, err := f.svc.Create(ctx, domain.CreateMemberRequest{
		OrganizationID: f.org.ID.String(),
		FirstName:      "Nora",
		LastName:       "Weber",
		Email:          "  Nora@Example.CH ",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.Email != "nora@example.ch" {
		t.Fatalf("expected normalized email, got %q", m.Email)
	}
	if m.Role != domain.MemberRoleMember {
		t.Fatalf("expected default member role, got %s", m.Role)
	}
}

func TestCreateMemberDuplicateEmail(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	req := domain.CreateMemberRequest{
		OrganizationID: f.org.ID.String(),
		FirstName:      "Nora",
		LastName:       "Weber",
		Email:          "nora@example.ch",
	}
	if _, err := f.svc.Create(ctx, req); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := f.svc.Create(ctx, req); err != domain.ErrEmailTaken {
		t.Fatalf("expected email_taken, got %v", err)
	}
}

func TestCreateMemberUnknownOrganization(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, domain.CreateMemberRequest{
		OrganizationID: f.node.Generate().String(),
		FirstName:      "Nora",
		LastName:       "Weber",
		Email:          "nora@example.ch",
	})
	if err != domain.ErrInvalidOrganization {
		t.Fatalf("expected invalid_organization, got %v", err)
	}
}

func TestUpdateMemberIgnoresUnknownRole(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	m, err := f.svc.Create(ctx, domain.CreateMemberRequest{
		OrganizationID: f.org.ID.String(),
		FirstName:      "Nora",
		LastName:       "Weber",
		Email:          "nora@example.ch",
		Role:           "admin",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	bogus := "superuser"
	updated, err := f.svc.Update(ctx, domain.UpdateMemberRequest{ID: m.ID.String(), Role: &bogus})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Role != domain.MemberRoleAdmin {
		t.Fatalf("expected role unchanged, got %s", updated.Role)
	}
}

func TestDeleteMember(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	m, err := f.svc.Create(ctx, domain.CreateMemberRequest{
		OrganizationID: f.org.ID.String(),
		FirstName:      "Nora",
		LastName:       "Weber",
		Email:          "nora@example.ch",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.svc.Delete(ctx, m.ID.String()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.svc.Get(ctx, m.ID.String()); err != domain.ErrMemberNotFound {
		t.Fatalf("expected member_not_found, got %v", err)
	}
	if err := f.svc.Delete(ctx, m.ID.String()); err != domain.ErrMemberNotFound {
		t.Fatalf("expected member_not_found on second delete, got %v", err)
	}
}

func TestListByOrganizationAndRole(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	for i, role := range []string{"admin", "member", "member"} {
		email := string(rune('a'+i)) + "@example.ch"
		if _, err := f.svc.Create(ctx, domain.CreateMemberRequest{
			OrganizationID: f.org.ID.String(),
			FirstName:      "Person",
			LastName:       "Test",
			Email:          email,
			Role:           role,
		}); err != nil {
			t.Fatalf("create %s: %v", email, err)
		}
	}

	resp, err := f.svc.List(ctx, domain.ListMemberRequest{
		OrganizationID: f.org.ID.String(),
		Role:           "member",
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Members) != 2 {
		t.Fatalf("expected two members, got %d", len(resp.Members))
	}
}
