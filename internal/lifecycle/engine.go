// Package lifecycle implements the recurring subscription and invoice
// maintenance jobs.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	activitylogdomain "github.com/alprail/membership/internal/activitylog/domain"
	"github.com/alprail/membership/internal/clock"
	"github.com/alprail/membership/internal/config"
	invoicedomain "github.com/alprail/membership/internal/invoice/domain"
	"github.com/alprail/membership/internal/lifecycle/domain"
	memberdomain "github.com/alprail/membership/internal/member/domain"
	notificationdomain "github.com/alprail/membership/internal/notification/domain"
	"github.com/alprail/membership/internal/observability/metrics"
	plandomain "github.com/alprail/membership/internal/plan/domain"
	settingsdomain "github.com/alprail/membership/internal/settings/domain"
	subscriptiondomain "github.com/alprail/membership/internal/subscription/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config       config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	SubRepo      subscriptiondomain.Repository
	PlanRepo     plandomain.Repository
	InvoiceRepo  invoicedomain.Repository
	MemberRepo   memberdomain.Repository
	ActivityLog  activitylogdomain.Service
	Notification notificationdomain.Service
	Settings     settingsdomain.Service
}

type Engine struct {
	cfg          config.SchedulerConfig
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	subRepo      subscriptiondomain.Repository
	planRepo     plandomain.Repository
	invoiceRepo  invoicedomain.Repository
	memberRepo   memberdomain.Repository
	activityLog  activitylogdomain.Service
	notification notificationdomain.Service
	settings     settingsdomain.Service
	holder       string
}

func NewEngine(p Params) domain.Engine {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "membership"
	}
	return &Engine{
		cfg:          p.Config.Scheduler,
		db:           p.DB,
		log:          p.Log.Named("lifecycle.engine"),
		genID:        p.GenID,
		clock:        p.Clock,
		subRepo:      p.SubRepo,
		planRepo:     p.PlanRepo,
		invoiceRepo:  p.InvoiceRepo,
		memberRepo:   p.MemberRepo,
		activityLog:  p.ActivityLog,
		notification: p.Notification,
		settings:     p.Settings,
		holder:       fmt.Sprintf("%s-%d", hostname, os.Getpid()),
	}
}

// runJob wraps one job with the advisory lock, a wall-clock timeout and
// the run metrics. Job errors never propagate to the caller.
func (e *Engine) runJob(ctx context.Context, jobName string, fn func(ctx context.Context) (processed, failed int)) {
	m := metrics.Scheduler()
	now := e.clock.Now()

	timeout := e.cfg.JobTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	acquired, err := acquireLock(ctx, e.db, jobName, e.holder, now, timeout+time.Minute)
	if err != nil {
		m.IncJobError(jobName, err)
		e.log.Error("failed to acquire job lock", zap.String("job", jobName), zap.Error(err))
		return
	}
	if !acquired {
		e.log.Info("job lock held elsewhere, skipping", zap.String("job", jobName))
		return
	}
	defer func() {
		if err := releaseLock(context.WithoutCancel(ctx), e.db, jobName, e.holder, e.clock.Now()); err != nil {
			e.log.Warn("failed to release job lock", zap.String("job", jobName), zap.Error(err))
		}
	}()

	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	m.IncJobRun(jobName)
	start := time.Now()
	processed, failed := fn(jobCtx)
	duration := time.Since(start)
	m.ObserveJobDuration(jobName, duration)

	if errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
		m.IncJobTimeout(jobName)
	}

	e.log.Info("job finished",
		zap.String("job", jobName),
		zap.Int("processed", processed),
		zap.Int("failed", failed),
		zap.Duration("duration", duration),
	)
}

func (e *Engine) batchSize() int {
	if e.cfg.BatchSize > 0 {
		return e.cfg.BatchSize
	}
	return 500
}

func (e *Engine) ExpireOverdueSubscriptions(ctx context.Context) {
	e.runJob(ctx, domain.JobExpireSubscriptions, e.expireOverdue)
}

func (e *Engine) expireOverdue(ctx context.Context) (int, int) {
	m := metrics.Scheduler()
	today := e.clock.Now()

	candidates, err := e.subRepo.ListExpiredCandidates(ctx, e.db, today, e.batchSize())
	if err != nil {
		m.IncJobError(domain.JobExpireSubscriptions, err)
		e.log.Error("failed to list expiry candidates", zap.Error(err))
		return 0, 0
	}

	processed, failed := 0, 0
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}
		if err := e.expireOne(ctx, candidate.ID); err != nil {
			failed++
			m.IncBatchError(domain.JobExpireSubscriptions, "subscription")
			e.log.Warn("failed to expire subscription",
				zap.String("subscription_id", candidate.ID.String()),
				zap.String("reason", metrics.ClassifySchedulerJobReason(err)),
				zap.Error(err),
			)
			continue
		}
		processed++
	}
	m.AddBatchProcessed(domain.JobExpireSubscriptions, "subscription", processed)
	return processed, failed
}

func (e *Engine) expireOne(ctx context.Context, id snowflake.ID) error {
	var sub *subscriptiondomain.Subscription
	err := e.db.Transaction(func(tx *gorm.DB) error {
		locked, err := e.subRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if locked == nil || locked.Status != subscriptiondomain.SubscriptionStatusActive {
			return nil
		}
		now := e.clock.Now()
		if !locked.EndDate.Before(startOfDay(now)) {
			return nil
		}

		locked.Status = subscriptiondomain.SubscriptionStatusExpired
		locked.UpdatedAt = now
		if err := e.subRepo.Update(ctx, tx, locked); err != nil {
			return err
		}
		sub = locked
		return nil
	})
	if err != nil || sub == nil {
		return err
	}

	subjectID := sub.ID
	if err := e.activityLog.Record(ctx, activitylogdomain.RecordRequest{
		Action:      "subscription_expired",
		SubjectType: "subscription",
		SubjectID:   &subjectID,
		Description: fmt.Sprintf("subscription expired on %s", sub.EndDate.UTC().Format("2006-01-02")),
		Properties: map[string]any{
			"organization_id": sub.OrganizationID.String(),
			"end_date":        sub.EndDate.UTC().Format("2006-01-02"),
		},
	}); err != nil {
		e.log.Warn("failed to record expiry activity",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err),
		)
	}
	return nil
}

func (e *Engine) RenewEligibleSubscriptions(ctx context.Context) {
	e.runJob(ctx, domain.JobRenewSubscriptions, e.renewEligible)
}

func (e *Engine) renewEligible(ctx context.Context) (int, int) {
	m := metrics.Scheduler()
	renewalDay := e.clock.Now().AddDate(0, 0, domain.RenewalLeadDays)

	candidates, err := e.subRepo.ListRenewalCandidates(ctx, e.db, renewalDay, e.batchSize())
	if err != nil {
		m.IncJobError(domain.JobRenewSubscriptions, err)
		e.log.Error("failed to list renewal candidates", zap.Error(err))
		return 0, 0
	}

	processed, failed := 0, 0
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}
		if err := e.renewOne(ctx, candidate.ID); err != nil {
			failed++
			m.IncBatchError(domain.JobRenewSubscriptions, "subscription")
			e.log.Warn("failed to renew subscription",
				zap.String("subscription_id", candidate.ID.String()),
				zap.String("reason", metrics.ClassifySchedulerJobReason(err)),
				zap.Error(err),
			)
			continue
		}
		processed++
	}
	m.AddBatchProcessed(domain.JobRenewSubscriptions, "subscription", processed)
	return processed, failed
}

func (e *Engine) renewOne(ctx context.Context, id snowflake.ID) error {
	var (
		sub     *subscriptiondomain.Subscription
		plan    *plandomain.Plan
		invoice invoicedomain.Invoice
		oldEnd  time.Time
	)
	err := e.db.Transaction(func(tx *gorm.DB) error {
		locked, err := e.subRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if locked == nil || locked.Status != subscriptiondomain.SubscriptionStatusActive || !locked.AutoRenew {
			return nil
		}

		plan, err = e.planRepo.FindByID(ctx, tx, locked.PlanID)
		if err != nil {
			return err
		}
		if plan == nil {
			return fmt.Errorf("plan %s not found for subscription %s", locked.PlanID, locked.ID)
		}

		now := e.clock.Now()
		oldEnd = locked.EndDate
		locked.EndDate = locked.EndDate.AddDate(0, plan.DurationMonths, 0)
		locked.LastWarnedDays = nil
		locked.LastWarnedAt = nil
		locked.UpdatedAt = now
		if err := e.subRepo.Update(ctx, tx, locked); err != nil {
			return err
		}

		invoice = invoicedomain.NewInvoice(
			e.genID.Generate(),
			locked.OrganizationID,
			locked.ID,
			plan.Price(plandomain.CurrencyCHF),
			plandomain.CurrencyCHF,
			now,
		)
		if err := e.invoiceRepo.Insert(ctx, tx, &invoice); err != nil {
			return err
		}

		sub = locked
		return nil
	})
	if err != nil || sub == nil {
		return err
	}

	subjectID := sub.ID
	if err := e.activityLog.Record(ctx, activitylogdomain.RecordRequest{
		Action:      "subscription_auto_renewed",
		SubjectType: "subscription",
		SubjectID:   &subjectID,
		Description: fmt.Sprintf("subscription auto-renewed until %s", sub.EndDate.UTC().Format("2006-01-02")),
		Properties: map[string]any{
			"organization_id": sub.OrganizationID.String(),
			"old_end_date":    oldEnd.UTC().Format("2006-01-02"),
			"new_end_date":    sub.EndDate.UTC().Format("2006-01-02"),
			"invoice_id":      invoice.ID.String(),
		},
	}); err != nil {
		e.log.Warn("failed to record renewal activity",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err),
		)
	}

	e.sendRenewedMail(ctx, sub, plan, &invoice)
	return nil
}

func (e *Engine) sendRenewedMail(ctx context.Context, sub *subscriptiondomain.Subscription, plan *plandomain.Plan, invoice *invoicedomain.Invoice) {
	m := metrics.Scheduler()
	member, err := e.memberRepo.FindPrimaryByOrganizationID(ctx, e.db, sub.OrganizationID)
	if err != nil || member == nil {
		e.log.Warn("no recipient for renewal mail",
			zap.String("organization_id", sub.OrganizationID.String()),
			zap.Error(err),
		)
		return
	}

	if err := e.notification.SubscriptionRenewed(ctx, member.Email, notificationdomain.SubscriptionRenewedData{
		Name:          member.FullName(),
		PlanName:      plan.Name,
		NewEndAt:      sub.EndDate,
		InvoiceNumber: invoice.InvoiceNumber,
		TotalAmount:   invoice.TotalAmount,
		Currency:      invoice.Currency,
	}); err != nil {
		m.IncEmailError(string(notificationdomain.KindSubscriptionRenewed))
		e.log.Warn("failed to send renewal mail",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err),
		)
	}
}

func (e *Engine) SendExpiryWarnings(ctx context.Context, thresholdDays int) {
	e.runJob(ctx, domain.JobSendExpiryWarnings, func(ctx context.Context) (int, int) {
		return e.sendWarnings(ctx, thresholdDays)
	})
}

func (e *Engine) sendWarnings(ctx context.Context, thresholdDays int) (int, int) {
	m := metrics.Scheduler()
	today := startOfDay(e.clock.Now())
	windowStart := today.AddDate(0, 0, thresholdDays-1)
	windowEnd := today.AddDate(0, 0, thresholdDays+1)

	candidates, err := e.subRepo.ListWarningCandidates(ctx, e.db, windowStart, windowEnd, thresholdDays, e.batchSize())
	if err != nil {
		m.IncJobError(domain.JobSendExpiryWarnings, err)
		e.log.Error("failed to list warning candidates", zap.Error(err))
		return 0, 0
	}

	processed, failed := 0, 0
	for _, sub := range candidates {
		if ctx.Err() != nil {
			break
		}
		if err := e.warnOne(ctx, sub, thresholdDays); err != nil {
			failed++
			m.IncBatchError(domain.JobSendExpiryWarnings, "subscription")
			e.log.Warn("failed to send expiry warning",
				zap.String("subscription_id", sub.ID.String()),
				zap.Int("threshold_days", thresholdDays),
				zap.Error(err),
			)
			continue
		}
		processed++
	}
	m.AddBatchProcessed(domain.JobSendExpiryWarnings, "subscription", processed)
	return processed, failed
}

func (e *Engine) warnOne(ctx context.Context, sub *subscriptiondomain.Subscription, thresholdDays int) error {
	member, err := e.memberRepo.FindPrimaryByOrganizationID(ctx, e.db, sub.OrganizationID)
	if err != nil {
		return err
	}
	if member == nil {
		return fmt.Errorf("organization %s has no member to warn", sub.OrganizationID)
	}

	plan, err := e.planRepo.FindByID(ctx, e.db, sub.PlanID)
	if err != nil {
		return err
	}
	planName := ""
	if plan != nil {
		planName = plan.Name
	}

	now := e.clock.Now()
	if err := e.notification.ExpiryWarning(ctx, member.Email, notificationdomain.ExpiryWarningData{
		Name:     member.FullName(),
		PlanName: planName,
		EndAt:    sub.EndDate,
		Days:     subscriptiondomain.DaysRemaining(sub.EndDate, now),
	}); err != nil {
		metrics.Scheduler().IncEmailError(string(notificationdomain.KindExpiryWarning))
		return err
	}

	sub.LastWarnedDays = &thresholdDays
	sub.LastWarnedAt = &now
	sub.UpdatedAt = now
	return e.subRepo.Update(ctx, e.db, sub)
}

func (e *Engine) SendPaymentReminders(ctx context.Context) {
	e.runJob(ctx, domain.JobSendReminders, e.sendReminders)
}

func (e *Engine) sendReminders(ctx context.Context) (int, int) {
	m := metrics.Scheduler()
	daysBefore := e.settings.GetInt(ctx, settingsdomain.KeyReminderDaysBefore)
	dueDay := e.clock.Now().AddDate(0, 0, daysBefore)

	candidates, err := e.invoiceRepo.ListReminderCandidates(ctx, e.db, dueDay, e.batchSize())
	if err != nil {
		m.IncJobError(domain.JobSendReminders, err)
		e.log.Error("failed to list reminder candidates", zap.Error(err))
		return 0, 0
	}

	processed, failed := 0, 0
	for _, invoice := range candidates {
		if ctx.Err() != nil {
			break
		}
		if err := e.remindOne(ctx, invoice); err != nil {
			failed++
			m.IncBatchError(domain.JobSendReminders, "invoice")
			e.log.Warn("failed to send payment reminder",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err),
			)
			continue
		}
		processed++
	}
	m.AddBatchProcessed(domain.JobSendReminders, "invoice", processed)
	return processed, failed
}

func (e *Engine) remindOne(ctx context.Context, invoice *invoicedomain.Invoice) error {
	member, err := e.memberRepo.FindPrimaryByOrganizationID(ctx, e.db, invoice.OrganizationID)
	if err != nil {
		return err
	}
	if member == nil {
		return fmt.Errorf("organization %s has no member to remind", invoice.OrganizationID)
	}

	if err := e.notification.PaymentReminder(ctx, member.Email, notificationdomain.PaymentReminderData{
		Name:          member.FullName(),
		InvoiceNumber: invoice.InvoiceNumber,
		DueAt:         invoice.DueDate,
		TotalAmount:   invoice.TotalAmount,
		Currency:      invoice.Currency,
	}); err != nil {
		metrics.Scheduler().IncEmailError(string(notificationdomain.KindPaymentReminder))
		return err
	}

	now := e.clock.Now()
	invoice.ReminderSentAt = &now
	invoice.UpdatedAt = now
	return e.invoiceRepo.Update(ctx, e.db, invoice)
}

func (e *Engine) MarkOverdueInvoices(ctx context.Context) {
	e.runJob(ctx, domain.JobMarkOverdue, e.markOverdue)
}

func (e *Engine) markOverdue(ctx context.Context) (int, int) {
	m := metrics.Scheduler()
	now := e.clock.Now()

	count, err := e.invoiceRepo.MarkOverdue(ctx, e.db, now, now)
	if err != nil {
		m.IncJobError(domain.JobMarkOverdue, err)
		e.log.Error("failed to mark overdue invoices", zap.Error(err))
		return 0, 1
	}
	m.AddBatchProcessed(domain.JobMarkOverdue, "invoice", int(count))

	if count > 0 {
		if err := e.activityLog.Record(ctx, activitylogdomain.RecordRequest{
			Action:      "invoices_overdue_updated",
			SubjectType: "invoice",
			Description: fmt.Sprintf("%d invoices moved to overdue", count),
			Properties:  map[string]any{"count": count},
		}); err != nil {
			e.log.Warn("failed to record overdue sweep", zap.Error(err))
		}
	}
	return int(count), 0
}

func (e *Engine) PurgeActivityLogs(ctx context.Context) {
	e.runJob(ctx, domain.JobPurgeActivityLogs, e.purgeLogs)
}

func (e *Engine) purgeLogs(ctx context.Context) (int, int) {
	m := metrics.Scheduler()

	count, err := e.activityLog.PurgeOlderThan(ctx, domain.LogRetentionDays)
	if err != nil {
		m.IncJobError(domain.JobPurgeActivityLogs, err)
		e.log.Error("failed to purge activity logs", zap.Error(err))
		return 0, 1
	}
	m.AddBatchProcessed(domain.JobPurgeActivityLogs, "activity_log", int(count))
	return int(count), 0
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
