package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	Telemetry TelemetryConfig

	Stripe StripeConfig

	PixRosterPath string

	// MetricsCacheTTL bounds how long a computed response is reused. Zero
	// disables caching.
	MetricsCacheTTL time.Duration

	RateLimit RateLimitConfig

	KPIPush KPIPushConfig
}

// KPIPushConfig ships headline revenue gauges to a remote Prometheus.
type KPIPushConfig struct {
	Enabled   bool
	Exporter  string
	Endpoint  string
	AuthToken string
	Interval  time.Duration
}

// TelemetryConfig controls logging and the OpenTelemetry exporters.
type TelemetryConfig struct {
	LogLevel          string
	LogFormat         string
	OtelEnabled       bool
	OtelEndpoint      string
	OtelProtocol      string
	OtelSamplingRatio float64
}

// RateLimitConfig throttles the metrics endpoint per client through Redis.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MetricsRate   float64
	MetricsBurst  int
}

// StripeConfig controls how card-processor data is fetched.
type StripeConfig struct {
	SecretKey        string
	LookbackMonths   int
	FetchConcurrency int
	ProductCacheTTL  time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	return Config{
		AppName:     getenv("APP_SERVICE", "revenuepulse"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: environment,
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		Telemetry:   loadTelemetry(environment),
		Stripe: StripeConfig{
			SecretKey:        strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
			LookbackMonths:   getenvPositiveInt("STRIPE_LOOKBACK_MONTHS", 12),
			FetchConcurrency: getenvPositiveInt("STRIPE_FETCH_CONCURRENCY", 8),
			ProductCacheTTL:  getenvDuration("STRIPE_PRODUCT_CACHE_TTL", time.Hour),
		},
		PixRosterPath:   strings.TrimSpace(getenv("PIX_ROSTER_PATH", "")),
		MetricsCacheTTL: getenvDurationOrZero("METRICS_CACHE_TTL", time.Minute),
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "localhost:6379")),
			RedisPassword: getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			MetricsRate:   getenvFloat("RATE_LIMIT_METRICS_RATE", 0.5),
			MetricsBurst:  getenvPositiveInt("RATE_LIMIT_METRICS_BURST", 5),
		},
		KPIPush: KPIPushConfig{
			Enabled:   getenvBool("KPI_PUSH_ENABLED", false),
			Exporter:  strings.ToLower(strings.TrimSpace(getenv("KPI_PUSH_EXPORTER", "prometheus_pushgateway"))),
			Endpoint:  strings.TrimSpace(getenv("KPI_PUSH_ENDPOINT", "")),
			AuthToken: strings.TrimSpace(getenv("KPI_PUSH_AUTH_TOKEN", "")),
			Interval:  getenvDuration("KPI_PUSH_INTERVAL", 15*time.Minute),
		},
	}
}

func (c Config) IsProduction() bool {
	return isProduction(c.Environment)
}

func isProduction(env string) bool {
	return strings.EqualFold(strings.TrimSpace(env), "production")
}

// loadTelemetry exports only in production unless OTEL_ENABLED says otherwise.
// A traces-specific protocol wins over the shared one.
func loadTelemetry(environment string) TelemetryConfig {
	protocol := getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	if traces := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL")); traces != "" {
		protocol = traces
	}
	return TelemetryConfig{
		LogLevel:          strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
		LogFormat:         strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
		OtelEnabled:       getenvBool("OTEL_ENABLED", isProduction(environment)),
		OtelEndpoint:      strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317"))),
		OtelProtocol:      strings.ToLower(strings.TrimSpace(protocol)),
		OtelSamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 1),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvPositiveInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// getenvDurationOrZero accepts "0" to switch a feature off.
func getenvDurationOrZero(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "0" {
		return 0
	}
	return getenvDuration(key, def)
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvBool(key string, def bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}
