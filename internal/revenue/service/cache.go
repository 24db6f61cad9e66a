package service

import (
	"context"
	"time"

	"github.com/smallbiznis/revenuepulse/internal/cache"
	obsmetrics "github.com/smallbiznis/revenuepulse/internal/observability/metrics"
	"github.com/smallbiznis/revenuepulse/internal/revenue/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CachedService serves repeated requests for the same range from memory and
// collapses concurrent misses into one computation. Failures are not cached.
type CachedService struct {
	next    domain.Service
	cache   cache.MetricsCache
	group   singleflight.Group
	log     *zap.Logger
	metrics *obsmetrics.Metrics
}

// NewCachedService wraps next. A non-positive ttl returns next unchanged.
func NewCachedService(next domain.Service, ttl time.Duration, log *zap.Logger, metrics *obsmetrics.Metrics) domain.Service {
	if ttl <= 0 {
		return next
	}
	return &CachedService{
		next:    next,
		cache:   cache.NewMetricsCache(ttl),
		log:     log.Named("revenue.cache"),
		metrics: metrics,
	}
}

func (s *CachedService) GetMetrics(ctx context.Context, req domain.MetricsRequest) (domain.MetricsResponse, error) {
	rng, err := domain.ParseRange(string(req.Range))
	if err != nil {
		return domain.MetricsResponse{}, err
	}

	if resp, ok := s.cache.Get(rng); ok {
		s.metrics.RecordCacheLookup(ctx, string(rng), true)
		return resp, nil
	}
	s.metrics.RecordCacheLookup(ctx, string(rng), false)

	// The shared computation must outlive any single caller.
	ch := s.group.DoChan(string(rng), func() (any, error) {
		resp, err := s.next.GetMetrics(context.WithoutCancel(ctx), domain.MetricsRequest{Range: rng})
		if err != nil {
			return nil, err
		}
		s.cache.Set(rng, resp)
		return resp, nil
	})

	select {
	case <-ctx.Done():
		return domain.MetricsResponse{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.MetricsResponse{}, res.Err
		}
		if res.Shared {
			s.log.Debug("metrics computation shared", zap.String("range", string(rng)))
		}
		return res.Val.(domain.MetricsResponse), nil
	}
}
