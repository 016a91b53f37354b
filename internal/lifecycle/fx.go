package lifecycle

import (
	"go.uber.org/fx"
)

var Module = fx.Module("lifecycle.engine",
	fx.Provide(NewEngine),
)
