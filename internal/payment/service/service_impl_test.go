package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	activitylogdomain "github.com/alprail/membership/internal/activitylog/domain"
	"github.com/alprail/membership/internal/clock"
	"github.com/alprail/membership/internal/config"
	invoicedomain "github.com/alprail/membership/internal/invoice/domain"
	invoicerepo "github.com/alprail/membership/internal/invoice/repository"
	memberdomain "github.com/alprail/membership/internal/member/domain"
	memberrepo "github.com/alprail/membership/internal/member/repository"
	notificationdomain "github.com/alprail/membership/internal/notification/domain"
	organizationdomain "github.com/alprail/membership/internal/organization/domain"
	organizationrepo "github.com/alprail/membership/internal/organization/repository"
	"github.com/alprail/membership/internal/payment/adapters"
	paymentdomain "github.com/alprail/membership/internal/payment/domain"
	paymentrepo "github.com/alprail/membership/internal/payment/repository"
	paymentservice "github.com/alprail/membership/internal/payment/service"
	plandomain "github.com/alprail/membership/internal/plan/domain"
	planrepo "github.com/alprail/membership/internal/plan/repository"
	subscriptiondomain "github.com/alprail/membership/internal/subscription/domain"
	subscriptionrepo "github.com/alprail/membership/internal/subscription/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type noopActivityLog struct{}

func (noopActivityLog) Record(ctx context.Context, req activitylogdomain.RecordRequest) error {
	return nil
}

func (noopActivityLog) List(ctx context.Context, req activitylogdomain.ListEntryRequest) (activitylogdomain.ListEntryResponse, error) {
	return activitylogdomain.ListEntryResponse{}, nil
}

func (noopActivityLog) PurgeOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	return 0, nil
}

type noopNotifications struct{}

func (noopNotifications) Welcome(ctx context.Context, to string, data notificationdomain.WelcomeData) error {
	return nil
}

func (noopNotifications) SubscriptionConfirmed(ctx context.Context, to string, data notificationdomain.SubscriptionConfirmedData) error {
	return nil
}

func (noopNotifications) ExpiryWarning(ctx context.Context, to string, data notificationdomain.ExpiryWarningData) error {
	return nil
}

func (noopNotifications) PaymentReminder(ctx context.Context, to string, data notificationdomain.PaymentReminderData) error {
	return nil
}

func (noopNotifications) InvoicePaid(ctx context.Context, to string, data notificationdomain.InvoicePaidData) error {
	return nil
}

func (noopNotifications) SubscriptionRenewed(ctx context.Context, to string, data notificationdomain.SubscriptionRenewedData) error {
	return nil
}

func (noopNotifications) TwoFactorCode(ctx context.Context, to string, data notificationdomain.TwoFactorCodeData) error {
	return nil
}

func (noopNotifications) PasswordReset(ctx context.Context, to string, data notificationdomain.PasswordResetData) error {
	return nil
}

type fakeFactory struct {
	adapter *fakeAdapter
}

func (f *fakeFactory) Provider() string { return "fake" }

func (f *fakeFactory) NewAdapter(cfg config.Config) (paymentdomain.PaymentAdapter, error) {
	return f.adapter, nil
}

type fakeAdapter struct {
	paid     bool
	checkout paymentdomain.Checkout
}

func (a *fakeAdapter) Provider() string { return "fake" }

func (a *fakeAdapter) CreateCheckout(ctx context.Context, req paymentdomain.CheckoutRequest) (*paymentdomain.Checkout, error) {
	checkout := a.checkout
	return &checkout, nil
}

func (a *fakeAdapter) ConfirmPayment(ctx context.Context, providerRef string) (*paymentdomain.Confirmation, error) {
	return &paymentdomain.Confirmation{
		Provider:    "fake",
		ProviderRef: providerRef,
		Paid:        a.paid,
	}, nil
}

type fixture struct {
	db      *gorm.DB
	svc     paymentdomain.Service
	adapter *fakeAdapter
	clock   *clock.FakeClock
	org     organizationdomain.Organization
	plan    plandomain.Plan
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
		&plandomain.Plan{},
		&subscriptiondomain.Subscription{},
		&invoicedomain.Invoice{},
		&paymentdomain.Payment{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(12)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	orgRepo := organizationrepo.Provide()
	org := organizationdomain.Organization{
		ID:        node.Generate(),
		Name:      "Alprail SC",
		Email:     "info@alprail.example",
		Type:      organizationdomain.OrganizationTypeOrganization,
		CreatedAt: fakeClock.Now(),
		UpdatedAt: fakeClock.Now(),
	}
	if err := orgRepo.Insert(ctx, db, &org); err != nil {
		t.Fatalf("insert org: %v", err)
	}

	mRepo := memberrepo.Provide()
	member := memberdomain.Member{
		ID:             node.Generate(),
		OrganizationID: org.ID,
		FirstName:      "Lena",
		LastName:       "Keller",
		Email:          "lena@alprail.example",
		Role:           memberdomain.MemberRoleAdmin,
		CreatedAt:      fakeClock.Now(),
		UpdatedAt:      fakeClock.Now(),
	}
	if err := mRepo.Insert(ctx, db, &member); err != nil {
		t.Fatalf("insert member: %v", err)
	}

	pRepo := planrepo.Provide()
	plan := plandomain.Plan{
		ID:             node.Generate(),
		Name:           "Individual",
		PriceCHF:       5000,
		PriceEUR:       5000,
		DurationMonths: 12,
		Active:         true,
		CreatedAt:      fakeClock.Now(),
		UpdatedAt:      fakeClock.Now(),
	}
	if err := pRepo.Insert(ctx, db, &plan); err != nil {
		t.Fatalf("insert plan: %v", err)
	}

	adapter := &fakeAdapter{
		paid: true,
		checkout: paymentdomain.Checkout{
			Provider:    "fake",
			ProviderRef: "sess_123",
			RedirectURL: "https://pay.example/sess_123",
		},
	}

	svc := paymentservice.NewService(paymentservice.Params{
		Config:       config.Config{},
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        fakeClock,
		Registry:     adapters.NewRegistry(&fakeFactory{adapter: adapter}),
		Repo:         paymentrepo.Provide(),
		OrgRepo:      orgRepo,
		PlanRepo:     pRepo,
		SubRepo:      subscriptionrepo.Provide(),
		InvoiceRepo:  invoicerepo.Provide(),
		MemberRepo:   mRepo,
		ActivityLog:  noopActivityLog{},
		Notification: noopNotifications{},
	})

	return &fixture{
		db:      db,
		svc:     svc,
		adapter: adapter,
		clock:   fakeClock,
		org:     org,
		plan:    plan,
	}
}

func TestInitiateCreatesPendingPayment(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)

	resp, err := f.svc.Initiate(ctx, paymentdomain.InitiatePaymentRequest{
		Provider:       "fake",
		OrganizationID: f.org.ID.String(),
		PlanID:         f.plan.ID.String(),
		Currency:       "CHF",
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if resp.RedirectURL != "https://pay.example/sess_123" {
		t.Fatalf("unexpected redirect url %q", resp.RedirectURL)
	}
	if resp.ProviderRef != "sess_123" {
		t.Fatalf("unexpected provider ref %q", resp.ProviderRef)
	}

	payment, err := f.svc.Get(ctx, resp.PaymentID)
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if payment.Status != paymentdomain.PaymentStatusPending {
		t.Fatalf("expected pending, got %s", payment.Status)
	}
	if payment.Amount != 5000 {
		t.Fatalf("expected amount 5000, got %d", payment.Amount)
	}
}

func TestConfirmProvisionsSubscriptionAndPaidInvoice(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)

	initResp, err := f.svc.Initiate(ctx, paymentdomain.InitiatePaymentRequest{
		Provider:       "fake",
		OrganizationID: f.org.ID.String(),
		PlanID:         f.plan.ID.String(),
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	resp, err := f.svc.Confirm(ctx, paymentdomain.ConfirmPaymentRequest{
		Provider:    "fake",
		ProviderRef: initResp.ProviderRef,
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if resp.Payment.Status != paymentdomain.PaymentStatusSucceeded {
		t.Fatalf("expected succeeded, got %s", resp.Payment.Status)
	}

	var sub subscriptiondomain.Subscription
	if err := f.db.First(&sub, "organization_id = ?", f.org.ID).Error; err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	if sub.Status != subscriptiondomain.SubscriptionStatusActive {
		t.Fatalf("expected active subscription, got %s", sub.Status)
	}
	wantEnd := f.clock.Now().AddDate(0, 12, 0)
	if !sub.EndDate.Equal(wantEnd) {
		t.Fatalf("expected end date %v, got %v", wantEnd, sub.EndDate)
	}

	var invoice invoicedomain.Invoice
	if err := f.db.First(&invoice, "subscription_id = ?", sub.ID).Error; err != nil {
		t.Fatalf("load invoice: %v", err)
	}
	if invoice.Status != invoicedomain.InvoiceStatusPaid {
		t.Fatalf("expected paid invoice, got %s", invoice.Status)
	}
	if invoice.PaidAt == nil {
		t.Fatal("expected paid_at to be set")
	}
}

func TestConfirmUnpaidMarksPaymentFailed(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	f.adapter.paid = false

	initResp, err := f.svc.Initiate(ctx, paymentdomain.InitiatePaymentRequest{
		Provider:       "fake",
		OrganizationID: f.org.ID.String(),
		PlanID:         f.plan.ID.String(),
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	_, err = f.svc.Confirm(ctx, paymentdomain.ConfirmPaymentRequest{
		Provider:    "fake",
		ProviderRef: initResp.ProviderRef,
	})
	if !errors.Is(err, paymentdomain.ErrPaymentNotCompleted) {
		t.Fatalf("expected ErrPaymentNotCompleted, got %v", err)
	}

	payment, err := f.svc.Get(ctx, initResp.PaymentID)
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if payment.Status != paymentdomain.PaymentStatusFailed {
		t.Fatalf("expected failed, got %s", payment.Status)
	}
}

func TestConfirmTwiceReturnsAlreadyConfirmed(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)

	initResp, err := f.svc.Initiate(ctx, paymentdomain.InitiatePaymentRequest{
		Provider:       "fake",
		OrganizationID: f.org.ID.String(),
		PlanID:         f.plan.ID.String(),
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	if _, err := f.svc.Confirm(ctx, paymentdomain.ConfirmPaymentRequest{
		Provider:    "fake",
		ProviderRef: initResp.ProviderRef,
	}); err != nil {
		t.Fatalf("first confirm: %v", err)
	}

	_, err = f.svc.Confirm(ctx, paymentdomain.ConfirmPaymentRequest{
		Provider:    "fake",
		ProviderRef: initResp.ProviderRef,
	})
	if !errors.Is(err, paymentdomain.ErrAlreadyConfirmed) {
		t.Fatalf("expected ErrAlreadyConfirmed, got %v", err)
	}
}

func TestUnknownProviderRejected(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)

	_, err := f.svc.Initiate(ctx, paymentdomain.InitiatePaymentRequest{
		Provider:       "nosuch",
		OrganizationID: f.org.ID.String(),
		PlanID:         f.plan.ID.String(),
	})
	if !errors.Is(err, paymentdomain.ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound, got %v", err)
	}
}
