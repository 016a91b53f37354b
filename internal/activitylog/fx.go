package activitylog

import (
	"github.com/alprail/membership/internal/activitylog/repository"
	"github.com/alprail/membership/internal/activitylog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("activitylog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
