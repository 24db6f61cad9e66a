package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_SERVICE", "HTTP_ADDR", "STRIPE_LOOKBACK_MONTHS", "STRIPE_FETCH_CONCURRENCY", "STRIPE_PRODUCT_CACHE_TTL", "PIX_ROSTER_PATH"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "revenuepulse", cfg.AppName)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 12, cfg.Stripe.LookbackMonths)
	assert.Equal(t, 8, cfg.Stripe.FetchConcurrency)
	assert.Equal(t, time.Hour, cfg.Stripe.ProductCacheTTL)
	assert.Empty(t, cfg.PixRosterPath)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("STRIPE_SECRET_KEY", " sk_test_123 ")
	t.Setenv("STRIPE_LOOKBACK_MONTHS", "24")
	t.Setenv("STRIPE_FETCH_CONCURRENCY", "-3")
	t.Setenv("STRIPE_PRODUCT_CACHE_TTL", "15m")
	t.Setenv("ENVIRONMENT", "Production")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "sk_test_123", cfg.Stripe.SecretKey)
	assert.Equal(t, 24, cfg.Stripe.LookbackMonths)
	assert.Equal(t, 8, cfg.Stripe.FetchConcurrency)
	assert.Equal(t, 15*time.Minute, cfg.Stripe.ProductCacheTTL)
	assert.True(t, cfg.IsProduction())
}

func TestLoadCacheAndRateLimit(t *testing.T) {
	t.Setenv("METRICS_CACHE_TTL", "")
	t.Setenv("RATE_LIMIT_ENABLED", "")
	t.Setenv("RATE_LIMIT_METRICS_RATE", "")
	t.Setenv("RATE_LIMIT_METRICS_BURST", "")

	cfg := Load()
	assert.Equal(t, time.Minute, cfg.MetricsCacheTTL)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.InDelta(t, 0.5, cfg.RateLimit.MetricsRate, 1e-9)
	assert.Equal(t, 5, cfg.RateLimit.MetricsBurst)

	t.Setenv("METRICS_CACHE_TTL", "0")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_REDIS_DB", "3")
	t.Setenv("RATE_LIMIT_METRICS_RATE", "2.5")

	cfg = Load()
	assert.Zero(t, cfg.MetricsCacheTTL)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 3, cfg.RateLimit.RedisDB)
	assert.InDelta(t, 2.5, cfg.RateLimit.MetricsRate, 1e-9)
}

func TestLoadKPIPush(t *testing.T) {
	t.Setenv("KPI_PUSH_ENABLED", "")
	t.Setenv("KPI_PUSH_EXPORTER", "")
	t.Setenv("KPI_PUSH_INTERVAL", "")

	cfg := Load()
	assert.False(t, cfg.KPIPush.Enabled)
	assert.Equal(t, "prometheus_pushgateway", cfg.KPIPush.Exporter)
	assert.Equal(t, 15*time.Minute, cfg.KPIPush.Interval)

	t.Setenv("KPI_PUSH_ENABLED", "1")
	t.Setenv("KPI_PUSH_EXPORTER", " Prometheus_Remote_Write ")
	t.Setenv("KPI_PUSH_INTERVAL", "-5m")

	cfg = Load()
	assert.True(t, cfg.KPIPush.Enabled)
	assert.Equal(t, "prometheus_remote_write", cfg.KPIPush.Exporter)
	assert.Equal(t, 15*time.Minute, cfg.KPIPush.Interval)
}

func TestLoadTelemetry(t *testing.T) {
	for _, key := range []string{"LOG_LEVEL", "LOG_FORMAT", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_PROTOCOL", "OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "OTEL_SAMPLING_RATIO"} {
		t.Setenv(key, "")
	}
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("OTLP_ENDPOINT", "collector:4317")

	cfg := Load()
	assert.Equal(t, "info", cfg.Telemetry.LogLevel)
	assert.Equal(t, "json", cfg.Telemetry.LogFormat)
	assert.False(t, cfg.Telemetry.OtelEnabled)
	assert.Equal(t, "collector:4317", cfg.Telemetry.OtelEndpoint)
	assert.Equal(t, "grpc", cfg.Telemetry.OtelProtocol)
	assert.InDelta(t, 1, cfg.Telemetry.OtelSamplingRatio, 1e-9)

	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "HTTP")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.25")

	cfg = Load()
	assert.Equal(t, "warn", cfg.Telemetry.LogLevel)
	assert.True(t, cfg.Telemetry.OtelEnabled)
	assert.Equal(t, "http", cfg.Telemetry.OtelProtocol)
	assert.InDelta(t, 0.25, cfg.Telemetry.OtelSamplingRatio, 1e-9)

	t.Setenv("OTEL_ENABLED", "false")
	assert.False(t, Load().Telemetry.OtelEnabled)
}
