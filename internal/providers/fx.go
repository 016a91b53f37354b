package providers

import (
	"github.com/alprail/membership/internal/providers/email"
	"github.com/alprail/membership/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
