package settings

import (
	"github.com/alprail/membership/internal/settings/repository"
	"github.com/alprail/membership/internal/settings/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settings.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
