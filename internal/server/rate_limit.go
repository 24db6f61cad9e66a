package server

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/revenuepulse/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/revenuepulse/internal/observability/metrics"
	"github.com/smallbiznis/revenuepulse/internal/ratelimit"
	"go.uber.org/zap"
)

type metricsLimiter interface {
	Enabled() bool
	Allow(ctx context.Context, clientKey string) (ratelimit.Result, error)
}

// MetricsRateLimit throttles metric computations per client address.
func (s *Server) MetricsRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil || !s.limiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		result, err := s.limiter.Allow(ctx, c.ClientIP())
		if err != nil {
			logger.FromContext(ctx).Warn("metrics rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.Allowed {
			denyMetricsRateLimit(c, result, s.obsMetrics)
			return
		}
		c.Next()
	}
}

func denyMetricsRateLimit(c *gin.Context, result ratelimit.Result, metrics *obsmetrics.Metrics) {
	endpoint := normalizeRateLimitEndpoint(c)
	logger.FromContext(c.Request.Context()).Warn("metrics rate limit exceeded",
		zap.String("endpoint", endpoint),
		zap.Duration("retry_after", result.RetryAfter),
	)
	metrics.RecordRateLimited(c.Request.Context(), endpoint)

	retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	AbortWithError(c, ErrRateLimited)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
