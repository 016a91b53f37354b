package organization

import (
	"github.com/alprail/membership/internal/organization/repository"
	"github.com/alprail/membership/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
