package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smallbiznis/revenuepulse/internal/revenue/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingService struct {
	calls   atomic.Int32
	err     error
	release chan struct{}
}

func (c *countingService) GetMetrics(ctx context.Context, req domain.MetricsRequest) (domain.MetricsResponse, error) {
	c.calls.Add(1)
	if c.release != nil {
		<-c.release
	}
	if c.err != nil {
		return domain.MetricsResponse{}, c.err
	}
	return domain.MetricsResponse{Range: req.Range, Bundle: domain.EmptyBundle()}, nil
}

func TestCachedServiceDisabled(t *testing.T) {
	next := &countingService{}
	assert.Same(t, domain.Service(next), NewCachedService(next, 0, zap.NewNop(), nil))
}

func TestCachedServiceServesFromCache(t *testing.T) {
	next := &countingService{}
	svc := NewCachedService(next, time.Minute, zap.NewNop(), nil)
	ctx := context.Background()

	first, err := svc.GetMetrics(ctx, domain.MetricsRequest{Range: "3M"})
	require.NoError(t, err)
	second, err := svc.GetMetrics(ctx, domain.MetricsRequest{Range: domain.RangeQuarter})
	require.NoError(t, err)

	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, domain.RangeQuarter, first.Range)
	assert.Equal(t, first.Range, second.Range)

	_, err = svc.GetMetrics(ctx, domain.MetricsRequest{Range: domain.RangeAll})
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCachedServiceDoesNotCacheErrors(t *testing.T) {
	boom := errors.New("boom")
	next := &countingService{err: boom}
	svc := NewCachedService(next, time.Minute, zap.NewNop(), nil)

	_, err := svc.GetMetrics(context.Background(), domain.MetricsRequest{})
	require.ErrorIs(t, err, boom)
	_, err = svc.GetMetrics(context.Background(), domain.MetricsRequest{})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCachedServiceRejectsInvalidRange(t *testing.T) {
	next := &countingService{}
	svc := NewCachedService(next, time.Minute, zap.NewNop(), nil)

	_, err := svc.GetMetrics(context.Background(), domain.MetricsRequest{Range: "2w"})
	require.ErrorIs(t, err, domain.ErrInvalidRange)
	assert.Zero(t, next.calls.Load())
}

func TestCachedServiceCollapsesConcurrentMisses(t *testing.T) {
	next := &countingService{release: make(chan struct{})}
	svc := NewCachedService(next, time.Minute, zap.NewNop(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetMetrics(context.Background(), domain.MetricsRequest{Range: domain.RangeHalfYear})
			assert.NoError(t, err)
		}()
	}

	require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(next.release)
	wg.Wait()

	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCachedServiceCallerCancel(t *testing.T) {
	next := &countingService{release: make(chan struct{})}
	svc := NewCachedService(next, time.Minute, zap.NewNop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.GetMetrics(ctx, domain.MetricsRequest{})
	require.ErrorIs(t, err, context.Canceled)

	close(next.release)
	require.Eventually(t, func() bool {
		_, err := svc.GetMetrics(context.Background(), domain.MetricsRequest{})
		return err == nil && next.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)
}
