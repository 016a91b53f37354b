package main

import (
	"context"
	"flag"

	"github.com/alprail/membership/internal/activitylog"
	"github.com/alprail/membership/internal/clock"
	"github.com/alprail/membership/internal/config"
	"github.com/alprail/membership/internal/invoice"
	"github.com/alprail/membership/internal/lifecycle"
	"github.com/alprail/membership/internal/member"
	"github.com/alprail/membership/internal/migration"
	"github.com/alprail/membership/internal/notification"
	"github.com/alprail/membership/internal/observability"
	"github.com/alprail/membership/internal/organization"
	"github.com/alprail/membership/internal/plan"
	"github.com/alprail/membership/internal/providers"
	"github.com/alprail/membership/internal/scheduler"
	"github.com/alprail/membership/internal/settings"
	"github.com/alprail/membership/internal/subscription"
	"github.com/alprail/membership/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	once := flag.Bool("once", false, "run every job once and exit")
	flag.Parse()

	base := fx.Options(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		notification.Module,
		providers.Module,
		organization.Module,
		member.Module,
		plan.Module,
		subscription.Module,
		invoice.Module,
		activitylog.Module,
		settings.Module,
		lifecycle.Module,
	)

	if *once {
		app := fx.New(
			base,
			fx.Provide(scheduler.New),
			fx.Invoke(runOnce),
		)
		app.Run()
		return
	}

	app := fx.New(
		base,
		scheduler.Module,
	)
	app.Run()
}

func runOnce(lc fx.Lifecycle, sched *scheduler.Scheduler, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				sched.RunOnce(context.Background())
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
	})
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
