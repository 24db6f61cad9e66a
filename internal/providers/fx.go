package providers

import (
	"github.com/smallbiznis/revenuepulse/internal/providers/pix"
	"github.com/smallbiznis/revenuepulse/internal/providers/stripe"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	stripe.Module,
	pix.Module,
)
