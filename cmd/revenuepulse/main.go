package main

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/revenuepulse/internal/clock"
	"github.com/smallbiznis/revenuepulse/internal/config"
	"github.com/smallbiznis/revenuepulse/internal/kpipush"
	"github.com/smallbiznis/revenuepulse/internal/observability"
	"github.com/smallbiznis/revenuepulse/internal/providers"
	"github.com/smallbiznis/revenuepulse/internal/server"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	// Amounts go out as JSON numbers, the shape the dashboard charts read.
	decimal.MarshalJSONWithoutQuotes = true

	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		clock.Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),

		// Payment sources
		providers.Module,

		server.Module,
		kpipush.Module,
	)
	app.Run()
}
