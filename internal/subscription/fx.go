package subscription

import (
	"github.com/alprail/membership/internal/subscription/repository"
	"github.com/alprail/membership/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
