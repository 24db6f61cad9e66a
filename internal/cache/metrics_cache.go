package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	revenuedomain "github.com/smallbiznis/revenuepulse/internal/revenue/domain"
)

const cleanupInterval = 5 * time.Minute

// MetricsCache stores computed metric responses per range.
type MetricsCache interface {
	Get(rng revenuedomain.Range) (revenuedomain.MetricsResponse, bool)
	Set(rng revenuedomain.Range, resp revenuedomain.MetricsResponse)
	Flush()
}

type metricsCache struct {
	entries *gocache.Cache
	ttl     time.Duration
}

// NewMetricsCache returns an in-memory cache whose entries expire after ttl.
func NewMetricsCache(ttl time.Duration) MetricsCache {
	return &metricsCache{
		entries: gocache.New(ttl, cleanupInterval),
		ttl:     ttl,
	}
}

func (c *metricsCache) Get(rng revenuedomain.Range) (revenuedomain.MetricsResponse, bool) {
	value, ok := c.entries.Get(cacheKey(rng))
	if !ok {
		return revenuedomain.MetricsResponse{}, false
	}
	resp, ok := value.(revenuedomain.MetricsResponse)
	return resp, ok
}

func (c *metricsCache) Set(rng revenuedomain.Range, resp revenuedomain.MetricsResponse) {
	c.entries.Set(cacheKey(rng), resp, c.ttl)
}

func (c *metricsCache) Flush() {
	c.entries.Flush()
}

func cacheKey(rng revenuedomain.Range) string {
	key := strings.ToLower(strings.TrimSpace(string(rng)))
	if key == "" {
		key = string(revenuedomain.RangeAll)
	}
	return "metrics:" + key
}
