package invoice

import (
	"github.com/alprail/membership/internal/invoice/repository"
	"github.com/alprail/membership/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
