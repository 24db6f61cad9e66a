package stripe

import (
	"github.com/smallbiznis/revenuepulse/internal/clock"
	"github.com/smallbiznis/revenuepulse/internal/config"
	"github.com/smallbiznis/revenuepulse/internal/revenue/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.stripe",
	fx.Provide(NewCardSource),
)

func NewCardSource(cfg config.Config, clk clock.Clock, log *zap.Logger) domain.CardSource {
	client := New(cfg.Stripe, newBackends("", log), clk, log)
	if !client.IsConfigured() {
		log.Warn("STRIPE_SECRET_KEY is not set; card metrics will be unavailable")
	}
	return client
}
