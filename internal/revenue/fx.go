package revenue

import (
	"github.com/smallbiznis/revenuepulse/internal/config"
	"github.com/smallbiznis/revenuepulse/internal/revenue/domain"
	"github.com/smallbiznis/revenuepulse/internal/revenue/service"
	"go.uber.org/fx"
)

var Module = fx.Module("revenue.service",
	fx.Provide(provideService),
)

func provideService(p service.Params, cfg config.Config) domain.Service {
	return service.NewCachedService(service.NewService(p), cfg.MetricsCacheTTL, p.Log, p.Metrics)
}
