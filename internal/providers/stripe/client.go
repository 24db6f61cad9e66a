package stripe

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallbiznis/revenuepulse/internal/clock"
	"github.com/smallbiznis/revenuepulse/internal/config"
	"github.com/smallbiznis/revenuepulse/internal/revenue/domain"
	"github.com/smallbiznis/revenuepulse/pkg/period"
	stripelib "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const pageSize = 100

var ErrNotConfigured = errors.New("stripe_not_configured")

// Client reads the card-processor dataset. Subscriptions are listed in full;
// invoices, balance transactions and payouts only within the lookback window.
type Client struct {
	api      *client.API
	catalog  *ProductCatalog
	clock    clock.Clock
	lookback int
	log      *zap.Logger
}

func New(cfg config.StripeConfig, backends *stripelib.Backends, clk clock.Clock, log *zap.Logger) *Client {
	c := &Client{
		clock:    clk,
		lookback: cfg.LookbackMonths,
		log:      log.Named("providers.stripe"),
	}
	if cfg.SecretKey == "" {
		return c
	}
	c.api = client.New(cfg.SecretKey, backends)
	c.catalog = NewProductCatalog(c.api.Products, cfg.ProductCacheTTL, cfg.FetchConcurrency, c.log)
	return c
}

// newBackends routes stripe-go logging through zap. An empty url keeps the
// library defaults.
func newBackends(url string, log *zap.Logger) *stripelib.Backends {
	leveled := log.Named("stripe-go").WithOptions(zap.IncreaseLevel(zap.WarnLevel)).Sugar()
	backendConfig := func() *stripelib.BackendConfig {
		cfg := &stripelib.BackendConfig{
			LeveledLogger:     leveled,
			MaxNetworkRetries: stripelib.Int64(2),
		}
		if url != "" {
			cfg.URL = stripelib.String(url)
		}
		return cfg
	}
	return &stripelib.Backends{
		API:     stripelib.GetBackendWithConfig(stripelib.APIBackend, backendConfig()),
		Connect: stripelib.GetBackendWithConfig(stripelib.ConnectBackend, backendConfig()),
		Uploads: stripelib.GetBackendWithConfig(stripelib.UploadsBackend, backendConfig()),
	}
}

func (c *Client) IsConfigured() bool {
	return c.api != nil
}

func (c *Client) FetchCardDataset(ctx context.Context) (domain.CardDataset, error) {
	if !c.IsConfigured() {
		return domain.CardDataset{}, ErrNotConfigured
	}

	since := period.AddMonths(c.clock.Now(), -c.lookback).Unix()

	var ds domain.CardDataset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ds.Subscriptions, err = c.listSubscriptions(gctx)
		return err
	})
	g.Go(func() (err error) {
		ds.Invoices, err = c.listInvoices(gctx, since)
		return err
	})
	g.Go(func() (err error) {
		ds.Transactions, err = c.listBalanceTransactions(gctx, since)
		return err
	})
	g.Go(func() (err error) {
		ds.Payouts, err = c.listPayouts(gctx, since)
		return err
	})
	g.Go(func() (err error) {
		ds.Balance, err = c.getBalance(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.CardDataset{}, err
	}

	ds.ProductNames = c.catalog.Resolve(ctx, unnamedProducts(ds.Subscriptions))

	c.log.Debug("card dataset fetched",
		zap.Int("subscriptions", len(ds.Subscriptions)),
		zap.Int("invoices", len(ds.Invoices)),
		zap.Int("balance_transactions", len(ds.Transactions)),
		zap.Int("payouts", len(ds.Payouts)),
		zap.Int("products", len(ds.ProductNames)),
	)
	return ds, nil
}

func (c *Client) listSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	params := &stripelib.SubscriptionListParams{Status: stripelib.String("all")}
	params.Context = ctx
	params.Limit = stripelib.Int64(pageSize)

	out := make([]domain.Subscription, 0)
	iter := c.api.Subscriptions.List(params)
	for iter.Next() {
		out = append(out, toSubscription(iter.Subscription()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return out, nil
}

func (c *Client) listInvoices(ctx context.Context, since int64) ([]domain.Invoice, error) {
	params := &stripelib.InvoiceListParams{
		CreatedRange: &stripelib.RangeQueryParams{GreaterThanOrEqual: since},
	}
	params.Context = ctx
	params.Limit = stripelib.Int64(pageSize)
	params.AddExpand("data.payment_intent")

	out := make([]domain.Invoice, 0)
	iter := c.api.Invoices.List(params)
	for iter.Next() {
		out = append(out, toInvoice(iter.Invoice()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return out, nil
}

func (c *Client) listBalanceTransactions(ctx context.Context, since int64) ([]domain.BalanceTransaction, error) {
	params := &stripelib.BalanceTransactionListParams{
		CreatedRange: &stripelib.RangeQueryParams{GreaterThanOrEqual: since},
	}
	params.Context = ctx
	params.Limit = stripelib.Int64(pageSize)

	out := make([]domain.BalanceTransaction, 0)
	iter := c.api.BalanceTransactions.List(params)
	for iter.Next() {
		out = append(out, toBalanceTransaction(iter.BalanceTransaction()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list balance transactions: %w", err)
	}
	return out, nil
}

func (c *Client) listPayouts(ctx context.Context, since int64) ([]domain.Payout, error) {
	params := &stripelib.PayoutListParams{
		CreatedRange: &stripelib.RangeQueryParams{GreaterThanOrEqual: since},
	}
	params.Context = ctx
	params.Limit = stripelib.Int64(pageSize)

	out := make([]domain.Payout, 0)
	iter := c.api.Payouts.List(params)
	for iter.Next() {
		out = append(out, toPayout(iter.Payout()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	return out, nil
}

func (c *Client) getBalance(ctx context.Context) (domain.BalanceSnapshot, error) {
	params := &stripelib.BalanceParams{}
	params.Context = ctx

	balance, err := c.api.Balance.Get(params)
	if err != nil {
		return domain.BalanceSnapshot{}, fmt.Errorf("get balance: %w", err)
	}
	return toBalance(balance), nil
}
