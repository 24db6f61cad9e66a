package stripe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	stripelib "github.com/stripe/stripe-go/v76"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeProducts struct {
	mu    sync.Mutex
	names map[string]string
	calls map[string]int
}

func newFakeProducts(names map[string]string) *fakeProducts {
	return &fakeProducts{names: names, calls: make(map[string]int)}
}

func (f *fakeProducts) Get(id string, _ *stripelib.ProductParams) (*stripelib.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++
	name, ok := f.names[id]
	if !ok {
		return nil, errors.New("resource_missing")
	}
	return &stripelib.Product{ID: id, Name: name}, nil
}

func (f *fakeProducts) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func TestProductCatalogResolve(t *testing.T) {
	products := newFakeProducts(map[string]string{"prod_1": "Pro", "prod_2": "Starter"})
	catalog := NewProductCatalog(products, time.Hour, 4, zap.NewNop())

	got := catalog.Resolve(context.Background(), []string{"prod_1", "prod_2", "prod_1", "prod_gone", ""})

	assert.Equal(t, map[string]string{"prod_1": "Pro", "prod_2": "Starter", "prod_gone": "prod_gone"}, got)
	assert.Equal(t, 1, products.callCount("prod_1"))
}

func TestProductCatalogCachesOnlySuccess(t *testing.T) {
	products := newFakeProducts(map[string]string{"prod_1": "Pro"})
	catalog := NewProductCatalog(products, time.Hour, 0, zap.NewNop())

	catalog.Resolve(context.Background(), []string{"prod_1", "prod_gone"})
	catalog.Resolve(context.Background(), []string{"prod_1", "prod_gone"})

	assert.Equal(t, 1, products.callCount("prod_1"))
	assert.Equal(t, 2, products.callCount("prod_gone"))
}

func TestProductCatalogEmpty(t *testing.T) {
	catalog := NewProductCatalog(newFakeProducts(nil), time.Hour, 2, zap.NewNop())

	assert.Empty(t, catalog.Resolve(context.Background(), nil))
}
