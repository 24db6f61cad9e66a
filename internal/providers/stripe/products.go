package stripe

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	stripelib "github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

type productGetter interface {
	Get(id string, params *stripelib.ProductParams) (*stripelib.Product, error)
}

type productName struct {
	id   string
	name string
}

// ProductCatalog resolves product ids to display names. Successful lookups are
// cached for the configured TTL; a failed lookup falls back to the id itself
// and is retried on the next call.
type ProductCatalog struct {
	products    productGetter
	cache       *cache.Cache
	concurrency int
	log         *zap.Logger
}

func NewProductCatalog(products productGetter, ttl time.Duration, concurrency int, log *zap.Logger) *ProductCatalog {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ProductCatalog{
		products:    products,
		cache:       cache.New(ttl, 2*ttl),
		concurrency: concurrency,
		log:         log,
	}
}

func (c *ProductCatalog) Resolve(ctx context.Context, ids []string) map[string]string {
	names := make(map[string]string, len(ids))
	missing := make([]string, 0)
	for _, id := range lo.Uniq(ids) {
		if id == "" {
			continue
		}
		if cached, ok := c.cache.Get(id); ok {
			names[id] = cached.(string)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return names
	}

	p := pool.NewWithResults[productName]().WithMaxGoroutines(c.concurrency)
	for _, id := range missing {
		p.Go(func() productName {
			return c.lookup(ctx, id)
		})
	}
	for _, resolved := range p.Wait() {
		names[resolved.id] = resolved.name
	}
	return names
}

func (c *ProductCatalog) lookup(ctx context.Context, id string) productName {
	params := &stripelib.ProductParams{}
	params.Context = ctx

	product, err := c.products.Get(id, params)
	if err != nil || product == nil || product.Name == "" {
		c.log.Warn("product lookup failed, using id as name", zap.String("product_id", id), zap.Error(err))
		return productName{id: id, name: id}
	}
	c.cache.Set(id, product.Name, cache.DefaultExpiration)
	return productName{id: id, name: product.Name}
}
