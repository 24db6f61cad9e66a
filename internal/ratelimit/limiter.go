package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/revenuepulse/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyMetricsClient = "revenuepulse:metrics:client:%s"

// MetricsLimiter throttles metrics computations per client. Each computation
// lists the whole card-processor account, so bursts are capped before they
// reach the upstream API. A nil limiter allows everything.
type MetricsLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewMetricsLimiter(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*MetricsLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.MetricsRate <= 0 || limitCfg.MetricsBurst <= 0 {
		return nil, errors.New("metrics rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	log.Named("ratelimit").Info("metrics rate limit enabled",
		zap.String("redis_addr", addr),
		zap.Float64("rate", limitCfg.MetricsRate),
		zap.Int("burst", limitCfg.MetricsBurst),
	)
	return newMetricsLimiter(client, limitCfg.MetricsRate, limitCfg.MetricsBurst), nil
}

func newMetricsLimiter(client redis.Scripter, rate float64, burst int) *MetricsLimiter {
	return &MetricsLimiter{
		bucket: NewTokenBucket(client),
		rate:   rate,
		burst:  burst,
	}
}

func (l *MetricsLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *MetricsLimiter) Allow(ctx context.Context, clientKey string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyMetricsClient, strings.TrimSpace(clientKey)), l.rate, l.burst)
}
