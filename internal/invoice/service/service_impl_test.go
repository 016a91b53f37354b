package service

import (
	"context"
	"testing"
	"time"

	activitylogdomain "github.com/alprail/membership/internal/activitylog/domain"
	activitylogrepo "github.com/alprail/membership/internal/activitylog/repository"
	activitylogservice "github.com/alprail/membership/internal/activitylog/service"
	"github.com/alprail/membership/internal/clock"
	"github.com/alprail/membership/internal/invoice/domain"
	invoicerepo "github.com/alprail/membership/internal/invoice/repository"
	memberdomain "github.com/alprail/membership/internal/member/domain"
	memberrepo "github.com/alprail/membership/internal/member/repository"
	notificationdomain "github.com/alprail/membership/internal/notification/domain"
	organizationdomain "github.com/alprail/membership/internal/organization/domain"
	organizationrepo "github.com/alprail/membership/internal/organization/repository"
	"github.com/alprail/membership/internal/providers/pdf"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingMail struct {
	paid []notificationdomain.InvoicePaidData
}

func (r *recordingMail) Welcome(ctx context.Context, to string, data notificationdomain.WelcomeData) error {
	return nil
}

func (r *recordingMail) SubscriptionConfirmed(ctx context.Context, to string, data notificationdomain.SubscriptionConfirmedData) error {
	return nil
}

func (r *recordingMail) ExpiryWarning(ctx context.Context, to string, data notificationdomain.ExpiryWarningData) error {
	return nil
}

func (r *recordingMail) PaymentReminder(ctx context.Context, to string, data notificationdomain.PaymentReminderData) error {
	return nil
}

func (r *recordingMail) InvoicePaid(ctx context.Context, to string, data notificationdomain.InvoicePaidData) error {
	r.paid = append(r.paid, data)
	return nil
}

func (r *recordingMail) SubscriptionRenewed(ctx context.Context, to string, data notificationdomain.SubscriptionRenewedData) error {
	return nil
}

func (r *recordingMail) TwoFactorCode(ctx context.Context, to string, data notificationdomain.TwoFactorCodeData) error {
	return nil
}

func (r *recordingMail) PasswordReset(ctx context.Context, to string, data notificationdomain.PasswordResetData) error {
	return nil
}

type fixture struct {
	db    *gorm.DB
	svc   domain.Service
	node  *snowflake.Node
	clock *clock.FakeClock
	mail  *recordingMail
	org   organizationdomain.Organization
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&organizationdomain.Organization{},
		&memberdomain.Member{},
		&domain.Invoice{},
		&activitylogdomain.Entry{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(22)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	fakeClock := clock.NewFakeClock(time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC))
	mail := &recordingMail{}

	activityLog := activitylogservice.NewService(activitylogservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fakeClock,
		Repo:  activitylogrepo.Provide(),
	})

	svc := NewService(Params{
		DB:           db,
		Log:          zap.NewNop(),
		Clock:        fakeClock,
		Repo:         invoicerepo.Provide(),
		OrgRepo:      organizationrepo.Provide(),
		MemberRepo:   memberrepo.Provide(),
		ActivityLog:  activityLog,
		Notification: mail,
		Renderer:     pdf.NoOpRenderer{},
	})

	org := organizationdomain.Organization{
		ID:        node.Generate(),
		Name:      "Alpenblick GmbH",
		Email:     "billing@example.ch",
		Type:      organizationdomain.OrganizationTypeOrganization,
		CreatedAt: fakeClock.Now(),
		UpdatedAt: fakeClock.Now(),
	}
	if err := organizationrepo.Provide().Insert(ctx, db, &org); err != nil {
		t.Fatalf("insert org: %v", err)
	}

	member := memberdomain.Member{
		ID:             node.Generate(),
		OrganizationID: org.ID,
		FirstName:      "Jonas",
		LastName:       "Frei",
		Email:          "jonas@example.ch",
		Role:           memberdomain.MemberRoleAdmin,
		CreatedAt:      fakeClock.Now(),
		UpdatedAt:      fakeClock.Now(),
	}
	if err := memberrepo.Provide().Insert(ctx, db, &member); err != nil {
		t.Fatalf("insert member: %v", err)
	}

	return &fixture{db: db, svc: svc, node: node, clock: fakeClock, mail: mail, org: org}
}

func (f *fixture) insertInvoice(t *testing.T, status domain.InvoiceStatus) domain.Invoice {
	t.Helper()
	inv := domain.NewInvoice(f.node.Generate(), f.org.ID, f.node.Generate(), 15000, "CHF", f.clock.Now())
	inv.Status = status
	if err := invoicerepo.Provide().Insert(context.Background(), f.db, &inv); err != nil {
		t.Fatalf("insert invoice: %v", err)
	}
	return inv
}

func TestGenerateInvoiceNumber(t *testing.T) {
	issue := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	got := domain.GenerateInvoiceNumber(issue, snowflake.ID(42))
	if got != "INV-20260115-00042" {
		t.Fatalf("unexpected invoice number %q", got)
	}
}

func TestNewInvoiceDefaults(t *testing.T) {
	issue := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	inv := domain.NewInvoice(snowflake.ID(1), snowflake.ID(2), snowflake.ID(3), 5000, "EUR", issue)

	if inv.Status != domain.InvoiceStatusPending {
		t.Fatalf("expected pending, got %s", inv.Status)
	}
	if inv.TaxAmount != 0 || inv.TotalAmount != 5000 {
		t.Fatalf("unexpected amounts tax=%d total=%d", inv.TaxAmount, inv.TotalAmount)
	}
	wantDue := issue.AddDate(0, 0, 30)
	if !inv.DueDate.Equal(wantDue) {
		t.Fatalf("expected due %s, got %s", wantDue, inv.DueDate)
	}
}

func TestMarkPaidSettlesPendingInvoice(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	inv := f.insertInvoice(t, domain.InvoiceStatusPending)

	paid, err := f.svc.MarkPaid(ctx, domain.MarkPaidRequest{ID: inv.ID.String()})
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != domain.InvoiceStatusPaid {
		t.Fatalf("expected paid, got %s", paid.Status)
	}
	if paid.PaidAt == nil || !paid.PaidAt.Equal(f.clock.Now()) {
		t.Fatalf("expected paid_at %s, got %v", f.clock.Now(), paid.PaidAt)
	}
	if len(f.mail.paid) != 1 {
		t.Fatalf("expected one invoice-paid mail, got %d", len(f.mail.paid))
	}
}

func TestMarkPaidOverdueInvoice(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	inv := f.insertInvoice(t, domain.InvoiceStatusOverdue)

	paid, err := f.svc.MarkPaid(ctx, domain.MarkPaidRequest{ID: inv.ID.String()})
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != domain.InvoiceStatusPaid {
		t.Fatalf("expected paid, got %s", paid.Status)
	}
}

func TestMarkPaidTwiceRejected(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	inv := f.insertInvoice(t, domain.InvoiceStatusPending)

	if _, err := f.svc.MarkPaid(ctx, domain.MarkPaidRequest{ID: inv.ID.String()}); err != nil {
		t.Fatalf("first mark paid: %v", err)
	}
	if _, err := f.svc.MarkPaid(ctx, domain.MarkPaidRequest{ID: inv.ID.String()}); err != domain.ErrAlreadyPaid {
		t.Fatalf("expected invoice_already_paid, got %v", err)
	}
}

func TestMarkPaidCanceledRejected(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	inv := f.insertInvoice(t, domain.InvoiceStatusCanceled)

	if _, err := f.svc.MarkPaid(ctx, domain.MarkPaidRequest{ID: inv.ID.String()}); err != domain.ErrTransitionNotAllowed {
		t.Fatalf("expected transition_not_allowed, got %v", err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	f.insertInvoice(t, domain.InvoiceStatusPending)
	f.insertInvoice(t, domain.InvoiceStatusPaid)

	resp, err := f.svc.List(ctx, domain.ListInvoiceRequest{Status: "pending"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Invoices) != 1 {
		t.Fatalf("expected one pending invoice, got %d", len(resp.Invoices))
	}

	if _, err := f.svc.List(ctx, domain.ListInvoiceRequest{Status: "bogus"}); err != domain.ErrInvalidStatus {
		t.Fatalf("expected invalid_status, got %v", err)
	}
}

func TestRenderPDFUnknownInvoice(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RenderPDF(ctx, snowflake.ID(99).String()); err != domain.ErrInvoiceNotFound {
		t.Fatalf("expected invoice_not_found, got %v", err)
	}
}
