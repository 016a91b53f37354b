package plan

import (
	"github.com/alprail/membership/internal/plan/repository"
	"github.com/alprail/membership/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
