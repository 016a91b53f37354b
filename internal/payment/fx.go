package payment

import (
	"github.com/alprail/membership/internal/payment/adapters"
	"github.com/alprail/membership/internal/payment/adapters/datatrans"
	"github.com/alprail/membership/internal/payment/adapters/paypal"
	"github.com/alprail/membership/internal/payment/adapters/stripe"
	"github.com/alprail/membership/internal/payment/repository"
	paymentservice "github.com/alprail/membership/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func() *adapters.Registry {
		return adapters.NewRegistry(
			stripe.NewFactory(),
			paypal.NewFactory(),
			datatrans.NewFactory(),
		)
	}),
	fx.Provide(paymentservice.NewService),
)
