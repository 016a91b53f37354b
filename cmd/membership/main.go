package main

import (
	"github.com/alprail/membership/internal/clock"
	"github.com/alprail/membership/internal/config"
	"github.com/alprail/membership/internal/lifecycle"
	"github.com/alprail/membership/internal/migration"
	"github.com/alprail/membership/internal/observability"
	"github.com/alprail/membership/internal/scheduler"
	"github.com/alprail/membership/internal/server"
	"github.com/alprail/membership/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		server.Module,
		lifecycle.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
