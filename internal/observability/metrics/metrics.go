package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	sourceFetches metric.Int64Counter
	fetchDuration metric.Float64Histogram
	bundleBuilds  metric.Int64Counter
	sourceRecords metric.Int64Counter
	rateLimited   metric.Int64Counter
	cacheLookups  metric.Int64Counter
}

// NewProvider configures and registers the meter provider. A disabled config
// installs the noop provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "revenuepulse"
	}
	meter := provider.Meter(name)

	sourceFetches, err := meter.Int64Counter("revenuepulse_source_fetch_total")
	if err != nil {
		return nil, err
	}
	fetchDuration, err := meter.Float64Histogram("revenuepulse_source_fetch_duration_ms", metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	bundleBuilds, err := meter.Int64Counter("revenuepulse_bundle_builds_total")
	if err != nil {
		return nil, err
	}
	sourceRecords, err := meter.Int64Counter("revenuepulse_source_records_total")
	if err != nil {
		return nil, err
	}
	rateLimited, err := meter.Int64Counter("revenuepulse_rate_limited_total")
	if err != nil {
		return nil, err
	}
	cacheLookups, err := meter.Int64Counter("revenuepulse_metrics_cache_lookups_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		sourceFetches: sourceFetches,
		fetchDuration: fetchDuration,
		bundleBuilds:  bundleBuilds,
		sourceRecords: sourceRecords,
		rateLimited:   rateLimited,
		cacheLookups:  cacheLookups,
	}, nil
}

// RecordSourceFetch counts one fetch against a payment source and records how
// long it took.
func (m *Metrics) RecordSourceFetch(ctx context.Context, provider string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	attrs := FilterAttributes(
		attribute.String("provider", strings.TrimSpace(provider)),
		attribute.String("status", status),
	)
	m.sourceFetches.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.fetchDuration.Record(ctx, float64(elapsed.Microseconds())/1000, metric.WithAttributes(attrs...))
}

// RecordSourceRecords counts records of one kind returned by a source.
func (m *Metrics) RecordSourceRecords(ctx context.Context, provider, recordType string, count int) {
	if m == nil || count <= 0 {
		return
	}
	attrs := FilterAttributes(
		attribute.String("provider", strings.TrimSpace(provider)),
		attribute.String("record_type", strings.TrimSpace(recordType)),
	)
	m.sourceRecords.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

// RecordBundleBuild counts one metric bundle computed for provider.
func (m *Metrics) RecordBundleBuild(ctx context.Context, provider string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("provider", strings.TrimSpace(provider)))
	m.bundleBuilds.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimited counts one request rejected by the rate limiter.
func (m *Metrics) RecordRateLimited(ctx context.Context, route string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("route", strings.TrimSpace(route)))
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheLookup counts a metrics cache hit or miss for one range.
func (m *Metrics) RecordCacheLookup(ctx context.Context, rng string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	attrs := FilterAttributes(
		attribute.String("range", strings.TrimSpace(rng)),
		attribute.String("result", result),
	)
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"provider":    {},
	"status":      {},
	"record_type": {},
	"range":       {},
	"route":       {},
	"method":      {},
	"status_code": {},
	"result":      {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
