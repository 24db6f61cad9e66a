package service

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/revenuepulse/internal/clock"
	obslogger "github.com/smallbiznis/revenuepulse/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/revenuepulse/internal/observability/metrics"
	obstracing "github.com/smallbiznis/revenuepulse/internal/observability/tracing"
	"github.com/smallbiznis/revenuepulse/internal/revenue/domain"
	"github.com/smallbiznis/revenuepulse/internal/revenue/engine"
	"github.com/smallbiznis/revenuepulse/internal/revenue/merge"
	"github.com/smallbiznis/revenuepulse/internal/revenue/pix"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Params struct {
	fx.In

	Cards     domain.CardSource
	Transfers domain.TransferSource
	Log       *zap.Logger
	Clock     clock.Clock
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	cards     domain.CardSource
	transfers domain.TransferSource
	log       *zap.Logger
	clock     clock.Clock
	metrics   *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		cards:     p.Cards,
		transfers: p.Transfers,
		log:       p.Log.Named("revenue.service"),
		clock:     p.Clock,
		metrics:   p.Metrics,
	}
}

func (s *Service) GetMetrics(ctx context.Context, req domain.MetricsRequest) (domain.MetricsResponse, error) {
	rng, err := domain.ParseRange(string(req.Range))
	if err != nil {
		return domain.MetricsResponse{}, err
	}
	now := s.clock.Now()

	var (
		dataset domain.CardDataset
		roster  []domain.TransferSubscription
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dataset, err = s.fetchCards(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		roster, err = s.fetchTransfers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.MetricsResponse{}, err
	}

	if len(dataset.Subscriptions) == 0 && len(roster) == 0 {
		return domain.MetricsResponse{}, domain.ErrNoSubscriptionData
	}

	card := engine.BuildCardBundle(dataset, now)
	s.metrics.RecordBundleBuild(ctx, domain.ProviderStripe)
	transfers := pix.BuildBundle(roster, now)
	s.metrics.RecordBundleBuild(ctx, domain.ProviderPix)

	bundle := FilterRange(merge.Merge(card, transfers), rng, now)

	obslogger.WithContext(ctx, s.log).Debug("revenue metrics computed",
		zap.String("range", string(rng)),
		zap.Int("card_subscriptions", len(dataset.Subscriptions)),
		zap.Int("transfer_subscriptions", len(roster)),
		zap.Int("months", len(bundle.MRR)),
	)

	return domain.MetricsResponse{
		Range:       rng,
		GeneratedAt: now,
		Summary:     Summarize(bundle),
		Bundle:      bundle,
	}, nil
}

func (s *Service) fetchCards(ctx context.Context) (ds domain.CardDataset, err error) {
	ctx, span := obstracing.StartSourceSpan(ctx, domain.ProviderStripe)
	start := time.Now()
	defer func() {
		s.metrics.RecordSourceFetch(ctx, domain.ProviderStripe, err, time.Since(start))
		obstracing.EndSpan(span, err)
	}()

	ds, err = s.cards.FetchCardDataset(ctx)
	if err != nil {
		obslogger.WithContext(ctx, s.log).Warn("card processor fetch failed", zap.Error(err))
		return domain.CardDataset{}, fmt.Errorf("%w: %s: %w", domain.ErrSourceUnavailable, domain.ProviderStripe, err)
	}

	s.metrics.RecordSourceRecords(ctx, domain.ProviderStripe, "subscription", len(ds.Subscriptions))
	s.metrics.RecordSourceRecords(ctx, domain.ProviderStripe, "invoice", len(ds.Invoices))
	s.metrics.RecordSourceRecords(ctx, domain.ProviderStripe, "balance_transaction", len(ds.Transactions))
	s.metrics.RecordSourceRecords(ctx, domain.ProviderStripe, "payout", len(ds.Payouts))
	return ds, nil
}

func (s *Service) fetchTransfers(ctx context.Context) (roster []domain.TransferSubscription, err error) {
	ctx, span := obstracing.StartSourceSpan(ctx, domain.ProviderPix)
	start := time.Now()
	defer func() {
		s.metrics.RecordSourceFetch(ctx, domain.ProviderPix, err, time.Since(start))
		obstracing.EndSpan(span, err)
	}()

	roster, err = s.transfers.ListTransferSubscriptions(ctx)
	if err != nil {
		obslogger.WithContext(ctx, s.log).Warn("transfer roster fetch failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSourceUnavailable, domain.ProviderPix, err)
	}

	s.metrics.RecordSourceRecords(ctx, domain.ProviderPix, "subscription", len(roster))
	return roster, nil
}
