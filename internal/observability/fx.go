package observability

import (
	"github.com/smallbiznis/revenuepulse/internal/observability/logger"
	"github.com/smallbiznis/revenuepulse/internal/observability/metrics"
	"github.com/smallbiznis/revenuepulse/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module provides the zap logger, the tracer and meter providers, and the
// domain and HTTP instruments.
var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		Config.loggerConfig,
		Config.tracingConfig,
		Config.metricsConfig,
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	// Nothing asks for the tracer provider directly; it registers itself
	// globally when built.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
