// Package scheduler wires the lifecycle engine's jobs onto cron
// schedules.
package scheduler

import (
	"context"

	"github.com/alprail/membership/internal/config"
	lifecycledomain "github.com/alprail/membership/internal/lifecycle/domain"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
	Engine lifecycledomain.Engine
}

type Scheduler struct {
	cfg    config.SchedulerConfig
	log    *zap.Logger
	engine lifecycledomain.Engine
	cron   *cron.Cron
}

func New(p Params) *Scheduler {
	return &Scheduler{
		cfg:    p.Config.Scheduler,
		log:    p.Log.Named("scheduler"),
		engine: p.Engine,
	}
}

// Start registers every job on its cron spec and starts the runner.
// Overlapping runs are prevented by the engine's advisory lock, not by
// cron itself.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New()

	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{lifecycledomain.JobMarkOverdue, s.cfg.OverdueSpec, func() {
			s.engine.MarkOverdueInvoices(context.Background())
			s.engine.ExpireOverdueSubscriptions(context.Background())
		}},
		{lifecycledomain.JobRenewSubscriptions, s.cfg.RenewSpec, func() {
			s.engine.RenewEligibleSubscriptions(context.Background())
		}},
		{lifecycledomain.JobSendExpiryWarnings, s.cfg.WarningSpec, func() {
			for _, days := range lifecycledomain.WarningThresholds {
				s.engine.SendExpiryWarnings(context.Background(), days)
			}
		}},
		{lifecycledomain.JobSendReminders, s.cfg.ReminderSpec, func() {
			s.engine.SendPaymentReminders(context.Background())
		}},
		{lifecycledomain.JobPurgeActivityLogs, s.cfg.PurgeSpec, func() {
			s.engine.PurgeActivityLogs(context.Background())
		}},
	}

	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			return err
		}
		s.log.Info("job scheduled", zap.String("job", job.name), zap.String("spec", job.spec))
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
	}
	return nil
}

// RunOnce executes every job sequentially. Used by the worker's --once
// mode and by tests.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.engine.MarkOverdueInvoices(ctx)
	s.engine.ExpireOverdueSubscriptions(ctx)
	s.engine.RenewEligibleSubscriptions(ctx)
	for _, days := range lifecycledomain.WarningThresholds {
		s.engine.SendExpiryWarnings(ctx, days)
	}
	s.engine.SendPaymentReminders(ctx)
	s.engine.PurgeActivityLogs(ctx)
}
