package lifecycle

import (
	"context"
	"strconv"
	"testing"
	"time"

	activitylogdomain "github.com/alprail/membership/internal/activitylog/domain"
	activitylogrepo "github.com/alprail/membership/internal/activitylog/repository"
	activitylogservice "github.com/alprail/membership/internal/activitylog/service"
	"github.com/alprail/membership/internal/clock"
	"github.com/alprail/membership/internal/config"
	invoicedomain "github.com/alprail/membership/internal/invoice/domain"
	invoicerepo "github.com/alprail/membership/internal/invoice/repository"
	lifecycledomain "github.com/alprail/membership/internal/lifecycle/domain"
	memberdomain "github.com/alprail/membership/internal/member/domain"
	memberrepo "github.com/alprail/membership/internal/member/repository"
	notificationdomain "github.com/alprail/membership/internal/notification/domain"
	organizationdomain "github.com/alprail/membership/internal/organization/domain"
	organizationrepo "github.com/alprail/membership/internal/organization/repository"
	plandomain "github.com/alprail/membership/internal/plan/domain"
	planrepo "github.com/alprail/membership/internal/plan/repository"
	settingsdomain "github.com/alprail/membership/internal/settings/domain"
	subscriptiondomain "github.com/alprail/membership/internal/subscription/domain"
	subscriptionrepo "github.com/alprail/membership/internal/subscription/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingNotifications struct {
	warnings  []notificationdomain.ExpiryWarningData
	reminders []notificationdomain.PaymentReminderData
	renewed   []notificationdomain.SubscriptionRenewedData
}

func (r *recordingNotifications) Welcome(ctx context.Context, to string, data notificationdomain.WelcomeData) error {
	return nil
}

func (r *recordingNotifications) SubscriptionConfirmed(ctx context.Context, to string, data notificationdomain.SubscriptionConfirmedData) error {
	return nil
}

func (r *recordingNotifications) ExpiryWarning(ctx context.Context, to string, data notificationdomain.ExpiryWarningData) error {
	r.warnings = append(r.warnings, data)
	return nil
}

func (r *recordingNotifications) PaymentReminder(ctx context.Context, to string, data notificationdomain.PaymentReminderData) error {
	r.reminders = append(r.reminders, data)
	return nil
}

func (r *recordingNotifications) InvoicePaid(ctx context.Context, to string, data notificationdomain.InvoicePaidData) error {
	return nil
}

func (r *recordingNotifications) SubscriptionRenewed(ctx context.Context, to string, data notificationdomain.SubscriptionRenewedData) error {
	r.renewed = append(r.renewed, data)
	return nil
}

func (r *recordingNotifications) TwoFactorCode(ctx context.Context, to string, data notificationdomain.TwoFactorCodeData) error {
	return nil
}

func (r *recordingNotifications) PasswordReset(ctx context.Context, to string, data notificationdomain.PasswordResetData) error {
	return nil
}

type staticSettings struct{}

func (staticSettings) GetBool(ctx context.Context, key string) bool {
	return settingsdomain.Defaults[key] == "true"
}

func (staticSettings) GetInt(ctx context.Context, key string) int {
	v, _ := strconv.Atoi(settingsdomain.Defaults[key])
	return v
}

func (staticSettings) GetString(ctx context.Context, key string) string {
	return settingsdomain.Defaults[key]
}

func (staticSettings) Set(ctx context.Context, key, value string) error { return nil }

func (staticSettings) All(ctx context.Context) (map[string]string, error) {
	return settingsdomain.Defaults, nil
}

type engineFixture struct {
	db     *gorm.DB
	engine *Engine
	node   *snowflake.Node
	clock  *clock.FakeClock
	mail   *recordingNotifications
	org    organizationdomain.Organization
	plan   plandomain.Plan
}

func setupEngine(t *testing.T) *engineFixture {
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
		&activitylogdomain.Entry{},
		&lifecycledomain.JobLock{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(20)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	fakeClock := clock.NewFakeClock(time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC))
	mail := &recordingNotifications{}

	activityLog := activitylogservice.NewService(activitylogservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fakeClock,
		Repo:  activitylogrepo.Provide(),
	})

	engine := NewEngine(Params{
		Config: config.Config{
			Scheduler: config.SchedulerConfig{
				BatchSize:  100,
				JobTimeout: time.Minute,
			},
		},
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        fakeClock,
		SubRepo:      subscriptionrepo.Provide(),
		PlanRepo:     planrepo.Provide(),
		InvoiceRepo:  invoicerepo.Provide(),
		MemberRepo:   memberrepo.Provide(),
		ActivityLog:  activityLog,
		Notification: mail,
		Settings:     staticSettings{},
	}).(*Engine)

	org := organizationdomain.Organization{
		ID:        node.Generate(),
		Name:      "Bergbahn Club",
		Email:     "club@example.ch",
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
		FirstName:      "Mara",
		LastName:       "Steiner",
		Email:          "mara@example.ch",
		Role:           memberdomain.MemberRoleAdmin,
		CreatedAt:      fakeClock.Now(),
		UpdatedAt:      fakeClock.Now(),
	}
	if err := memberrepo.Provide().Insert(ctx, db, &member); err != nil {
		t.Fatalf("insert member: %v", err)
	}

	plan := plandomain.Plan{
		ID:             node.Generate(),
		Name:           "Club",
		PriceCHF:       15000,
		PriceEUR:       15000,
		DurationMonths: 12,
		Active:         true,
		CreatedAt:      fakeClock.Now(),
		UpdatedAt:      fakeClock.Now(),
	}
	if err := planrepo.Provide().Insert(ctx, db, &plan); err != nil {
		t.Fatalf("insert plan: %v", err)
	}

	return &engineFixture{
		db:     db,
		engine: engine,
		node:   node,
		clock:  fakeClock,
		mail:   mail,
		org:    org,
		plan:   plan,
	}
}

func (f *engineFixture) insertSubscription(t *testing.T, endDate time.Time, status subscriptiondomain.SubscriptionStatus, autoRenew bool) subscriptiondomain.Subscription {
	t.Helper()
	sub := subscriptiondomain.Subscription{
		ID:             f.node.Generate(),
		OrganizationID: f.org.ID,
		PlanID:         f.plan.ID,
		StartDate:      endDate.AddDate(0, -12, 0),
		EndDate:        endDate,
		Status:         status,
		AutoRenew:      autoRenew,
		CreatedAt:      f.clock.Now(),
		UpdatedAt:      f.clock.Now(),
	}
	if err := subscriptionrepo.Provide().Insert(context.Background(), f.db, &sub); err != nil {
		t.Fatalf("insert subscription: %v", err)
	}
	return sub
}

func TestExpireOverdueSubscriptions(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	pastDue := f.insertSubscription(t, f.clock.Now().AddDate(0, 0, -2), subscriptiondomain.SubscriptionStatusActive, false)
	current := f.insertSubscription(t, f.clock.Now().AddDate(0, 0, 30), subscriptiondomain.SubscriptionStatusActive, false)

	f.engine.ExpireOverdueSubscriptions(ctx)

	var expired subscriptiondomain.Subscription
	if err := f.db.First(&expired, "id = ?", pastDue.ID).Error; err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	if expired.Status != subscriptiondomain.SubscriptionStatusExpired {
		t.Fatalf("expected expired, got %s", expired.Status)
	}

	var untouched subscriptiondomain.Subscription
	if err := f.db.First(&untouched, "id = ?", current.ID).Error; err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	if untouched.Status != subscriptiondomain.SubscriptionStatusActive {
		t.Fatalf("expected active, got %s", untouched.Status)
	}

	var entries []activitylogdomain.Entry
	if err := f.db.Find(&entries, "action = ?", "subscription_expired").Error; err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 expiry entry, got %d", len(entries))
	}
}

func TestRenewEligibleSubscriptionsExtendsInPlace(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	renewalDay := startOfDay(f.clock.Now()).AddDate(0, 0, lifecycledomain.RenewalLeadDays).Add(10 * time.Hour)
	warned := 7
	eligible := f.insertSubscription(t, renewalDay, subscriptiondomain.SubscriptionStatusActive, true)
	eligible.LastWarnedDays = &warned
	if err := subscriptionrepo.Provide().Update(ctx, f.db, &eligible); err != nil {
		t.Fatalf("update subscription: %v", err)
	}
	tooEarly := f.insertSubscription(t, renewalDay.AddDate(0, 0, 1), subscriptiondomain.SubscriptionStatusActive, true)
	optedOut := f.insertSubscription(t, renewalDay, subscriptiondomain.SubscriptionStatusActive, false)

	f.engine.RenewEligibleSubscriptions(ctx)

	var got subscriptiondomain.Subscription
	if err := f.db.First(&got, "id = ?", eligible.ID).Error; err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	wantEnd := renewalDay.AddDate(0, 12, 0)
	if !got.EndDate.Equal(wantEnd) {
		t.Fatalf("expected end date %v, got %v", wantEnd, got.EndDate)
	}
	if got.LastWarnedDays != nil {
		t.Fatal("expected warning state to be reset")
	}

	var count int64
	if err := f.db.Model(&subscriptiondomain.Subscription{}).Count(&count).Error; err != nil {
		t.Fatalf("count subscriptions: %v", err)
	}
	if count != 3 {
		t.Fatalf("renewal must not create successor rows, got %d rows", count)
	}

	for _, id := range []snowflake.ID{tooEarly.ID, optedOut.ID} {
		var other subscriptiondomain.Subscription
		if err := f.db.First(&other, "id = ?", id).Error; err != nil {
			t.Fatalf("load subscription: %v", err)
		}
		if !other.EndDate.Equal(renewalDay) && !other.EndDate.Equal(renewalDay.AddDate(0, 0, 1)) {
			t.Fatalf("untouched subscription %s changed end date to %v", id, other.EndDate)
		}
	}

	var invoices []invoicedomain.Invoice
	if err := f.db.Find(&invoices, "subscription_id = ?", eligible.ID).Error; err != nil {
		t.Fatalf("load invoices: %v", err)
	}
	if len(invoices) != 1 {
		t.Fatalf("expected 1 renewal invoice, got %d", len(invoices))
	}
	if invoices[0].TotalAmount != 15000 || invoices[0].Currency != plandomain.CurrencyCHF {
		t.Fatalf("unexpected invoice %d %s", invoices[0].TotalAmount, invoices[0].Currency)
	}

	if len(f.mail.renewed) != 1 {
		t.Fatalf("expected 1 renewal mail, got %d", len(f.mail.renewed))
	}
}

func TestRenewalFailureDoesNotAbortBatch(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	renewalDay := startOfDay(f.clock.Now()).AddDate(0, 0, lifecycledomain.RenewalLeadDays).Add(2 * time.Hour)
	healthy := f.insertSubscription(t, renewalDay, subscriptiondomain.SubscriptionStatusActive, true)

	orphan := f.insertSubscription(t, renewalDay, subscriptiondomain.SubscriptionStatusActive, true)
	if err := f.db.Exec(`UPDATE subscriptions SET plan_id = ? WHERE id = ?`, f.node.Generate(), orphan.ID).Error; err != nil {
		t.Fatalf("break plan reference: %v", err)
	}

	f.engine.RenewEligibleSubscriptions(ctx)

	var renewed subscriptiondomain.Subscription
	if err := f.db.First(&renewed, "id = ?", healthy.ID).Error; err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	if !renewed.EndDate.Equal(renewalDay.AddDate(0, 12, 0)) {
		t.Fatalf("healthy subscription was not renewed, end date %v", renewed.EndDate)
	}

	var skipped subscriptiondomain.Subscription
	if err := f.db.First(&skipped, "id = ?", orphan.ID).Error; err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	if !skipped.EndDate.Equal(renewalDay) {
		t.Fatalf("orphan subscription must stay untouched, end date %v", skipped.EndDate)
	}
}

func TestSendExpiryWarningsDeduplicates(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	endDate := startOfDay(f.clock.Now()).AddDate(0, 0, 7).Add(6 * time.Hour)
	sub := f.insertSubscription(t, endDate, subscriptiondomain.SubscriptionStatusActive, false)

	f.engine.SendExpiryWarnings(ctx, 7)
	if len(f.mail.warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(f.mail.warnings))
	}
	if f.mail.warnings[0].Days != 6 {
		t.Fatalf("expected 6 whole days remaining, got %d", f.mail.warnings[0].Days)
	}

	var got subscriptiondomain.Subscription
	if err := f.db.First(&got, "id = ?", sub.ID).Error; err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	if got.LastWarnedDays == nil || *got.LastWarnedDays != 7 {
		t.Fatalf("expected last_warned_days 7, got %v", got.LastWarnedDays)
	}

	f.engine.SendExpiryWarnings(ctx, 7)
	if len(f.mail.warnings) != 1 {
		t.Fatalf("second run must not warn again, got %d warnings", len(f.mail.warnings))
	}
}

func TestSendExpiryWarningsWindowBounds(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	// Threshold 7 covers calendar days 6 through 8; day 9 is out.
	edge := f.insertSubscription(t, startOfDay(f.clock.Now()).AddDate(0, 0, 8).Add(3*time.Hour), subscriptiondomain.SubscriptionStatusActive, false)
	beyond := f.insertSubscription(t, startOfDay(f.clock.Now()).AddDate(0, 0, 9).Add(3*time.Hour), subscriptiondomain.SubscriptionStatusActive, false)

	f.engine.SendExpiryWarnings(ctx, 7)
	if len(f.mail.warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(f.mail.warnings))
	}

	var warned subscriptiondomain.Subscription
	if err := f.db.First(&warned, "id = ?", edge.ID).Error; err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	if warned.LastWarnedDays == nil || *warned.LastWarnedDays != 7 {
		t.Fatalf("subscription on the window edge must be warned, got %v", warned.LastWarnedDays)
	}

	var outside subscriptiondomain.Subscription
	if err := f.db.First(&outside, "id = ?", beyond.ID).Error; err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	if outside.LastWarnedDays != nil {
		t.Fatalf("subscription ending 9 days out must not be warned, got %v", outside.LastWarnedDays)
	}
}

func TestSendPaymentRemindersStampsInvoice(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	sub := f.insertSubscription(t, f.clock.Now().AddDate(0, 0, 60), subscriptiondomain.SubscriptionStatusActive, false)

	issueDate := f.clock.Now().AddDate(0, 0, 7-invoicedomain.DueDays)
	invoice := invoicedomain.NewInvoice(f.node.Generate(), f.org.ID, sub.ID, 15000, plandomain.CurrencyCHF, issueDate)
	if err := invoicerepo.Provide().Insert(ctx, f.db, &invoice); err != nil {
		t.Fatalf("insert invoice: %v", err)
	}

	f.engine.SendPaymentReminders(ctx)
	if len(f.mail.reminders) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(f.mail.reminders))
	}

	var got invoicedomain.Invoice
	if err := f.db.First(&got, "id = ?", invoice.ID).Error; err != nil {
		t.Fatalf("load invoice: %v", err)
	}
	if got.ReminderSentAt == nil {
		t.Fatal("expected reminder_sent_at to be stamped")
	}

	f.engine.SendPaymentReminders(ctx)
	if len(f.mail.reminders) != 1 {
		t.Fatalf("second run must not remind again, got %d", len(f.mail.reminders))
	}
}

func TestMarkOverdueInvoicesIsIdempotent(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	sub := f.insertSubscription(t, f.clock.Now().AddDate(0, 0, 60), subscriptiondomain.SubscriptionStatusActive, false)

	overdue := invoicedomain.NewInvoice(f.node.Generate(), f.org.ID, sub.ID, 15000, plandomain.CurrencyCHF, f.clock.Now().AddDate(0, 0, -45))
	if err := invoicerepo.Provide().Insert(ctx, f.db, &overdue); err != nil {
		t.Fatalf("insert invoice: %v", err)
	}
	fresh := invoicedomain.NewInvoice(f.node.Generate(), f.org.ID, sub.ID, 15000, plandomain.CurrencyCHF, f.clock.Now())
	if err := invoicerepo.Provide().Insert(ctx, f.db, &fresh); err != nil {
		t.Fatalf("insert invoice: %v", err)
	}

	f.engine.MarkOverdueInvoices(ctx)

	var swept invoicedomain.Invoice
	if err := f.db.First(&swept, "id = ?", overdue.ID).Error; err != nil {
		t.Fatalf("load invoice: %v", err)
	}
	if swept.Status != invoicedomain.InvoiceStatusOverdue {
		t.Fatalf("expected overdue, got %s", swept.Status)
	}
	var current invoicedomain.Invoice
	if err := f.db.First(&current, "id = ?", fresh.ID).Error; err != nil {
		t.Fatalf("load invoice: %v", err)
	}
	if current.Status != invoicedomain.InvoiceStatusPending {
		t.Fatalf("expected pending, got %s", current.Status)
	}

	var entries []activitylogdomain.Entry
	if err := f.db.Find(&entries, "action = ?", "invoices_overdue_updated").Error; err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 sweep entry, got %d", len(entries))
	}

	f.engine.MarkOverdueInvoices(ctx)
	if err := f.db.Find(&entries, "action = ?", "invoices_overdue_updated").Error; err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("idempotent second sweep must not log again, got %d entries", len(entries))
	}
}

func TestPurgeActivityLogs(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	old := activitylogdomain.Entry{
		ID:          f.node.Generate(),
		Action:      "member.registered",
		SubjectType: "organization",
		CreatedAt:   f.clock.Now().AddDate(0, 0, -120),
	}
	recent := activitylogdomain.Entry{
		ID:          f.node.Generate(),
		Action:      "member.registered",
		SubjectType: "organization",
		CreatedAt:   f.clock.Now().AddDate(0, 0, -10),
	}
	for _, entry := range []*activitylogdomain.Entry{&old, &recent} {
		if err := activitylogrepo.Provide().Insert(ctx, f.db, entry); err != nil {
			t.Fatalf("insert entry: %v", err)
		}
	}

	f.engine.PurgeActivityLogs(ctx)

	var remaining []activitylogdomain.Entry
	if err := f.db.Find(&remaining).Error; err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != recent.ID {
		t.Fatalf("expected only the recent entry to survive, got %d entries", len(remaining))
	}
}
