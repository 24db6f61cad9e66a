package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Range limits the time series returned to the caller.
type Range string

const (
	RangeAll      Range = "all"
	RangeQuarter  Range = "3m"
	RangeHalfYear Range = "6m"
	RangeLastYear Range = "12m"
)

// ParseRange accepts "", "all", "3m", "6m" and "12m".
func ParseRange(raw string) (Range, error) {
	switch Range(strings.ToLower(strings.TrimSpace(raw))) {
	case "", RangeAll:
		return RangeAll, nil
	case RangeQuarter:
		return RangeQuarter, nil
	case RangeHalfYear:
		return RangeHalfYear, nil
	case RangeLastYear:
		return RangeLastYear, nil
	default:
		return "", ErrInvalidRange
	}
}

// Months returns the trailing window length, or 0 for RangeAll.
func (r Range) Months() int {
	switch r {
	case RangeQuarter:
		return 3
	case RangeHalfYear:
		return 6
	case RangeLastYear:
		return 12
	default:
		return 0
	}
}

// Payment source names used in logs, spans and metric labels.
const (
	ProviderStripe = "stripe"
	ProviderPix    = "pix"
)

type MetricsRequest struct {
	Range Range
}

// Growth compares the last two points of a series.
type Growth struct {
	Current    decimal.Decimal `json:"current"`
	Previous   decimal.Decimal `json:"previous"`
	Change     decimal.Decimal `json:"change"`
	ChangeRate decimal.Decimal `json:"change_rate"`
}

type Summary struct {
	TotalMRR  Growth `json:"total_mrr"`
	NewMRR    Growth `json:"new_mrr"`
	Customers Growth `json:"customers"`
}

type MetricsResponse struct {
	Range       Range     `json:"range"`
	GeneratedAt time.Time `json:"generated_at"`
	Summary     Summary   `json:"summary"`
	Bundle      Bundle    `json:"bundle"`
}

// Service exposes the unified revenue metrics across payment sources.
type Service interface {
	GetMetrics(ctx context.Context, req MetricsRequest) (MetricsResponse, error)
}

// CardSource supplies the fully materialized card-processor dataset.
type CardSource interface {
	FetchCardDataset(ctx context.Context) (CardDataset, error)
}

// TransferSource supplies the direct-transfer roster.
type TransferSource interface {
	ListTransferSubscriptions(ctx context.Context) ([]TransferSubscription, error)
}

var (
	ErrInvalidRange       = errors.New("invalid_range")
	ErrNoSubscriptionData = errors.New("no_subscription_data")
	ErrSourceUnavailable  = errors.New("source_unavailable")
)
