// Package merge combines metric bundles from independent payment sources.
//
// Monthly and daily series are joined on their normalized keys, never on
// timestamps. Every summed amount is re-rounded to cents and every derived
// figure (totals, percentages, rates, cumulative counts) is recomputed from
// the combined inputs rather than added.
package merge

import (
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/revenuepulse/internal/revenue/domain"
	"github.com/smallbiznis/revenuepulse/internal/revenue/engine"
	"github.com/smallbiznis/revenuepulse/pkg/money"
)

// Merge combines two bundles. Live balances are taken from a only, since the
// transfer channel has no balance of its own. Merging with an empty bundle
// returns the other bundle unchanged.
func Merge(a, b domain.Bundle) domain.Bundle {
	return domain.Bundle{
		MRR:                 MRR(a.MRR, b.MRR),
		ARR:                 money.Round(a.ARR.Add(b.ARR)),
		Churn:               Churn(a.Churn, b.Churn),
		CustomerTrends:      CustomerTrends(a.CustomerTrends, b.CustomerTrends),
		RevenueByPlan:       RevenueByPlan(a.RevenueByPlan, b.RevenueByPlan),
		SubscriptionCount:   a.SubscriptionCount + b.SubscriptionCount,
		Financial:           Financial(a.Financial, b.Financial),
		MonthlyFinancials:   MonthlyFinancials(a.MonthlyFinancials, b.MonthlyFinancials),
		DailyPayouts:        DailyPayouts(a.DailyPayouts, b.DailyPayouts),
		SubscriptionRecords: SubscriptionRecords(a.SubscriptionRecords, b.SubscriptionRecords),
		FailedPayments:      FailedPayments(a.FailedPayments, b.FailedPayments),
	}
}

// All folds any number of bundles into one, starting from the empty bundle.
func All(bundles ...domain.Bundle) domain.Bundle {
	if len(bundles) == 0 {
		return domain.EmptyBundle()
	}
	merged := bundles[0]
	for _, b := range bundles[1:] {
		merged = Merge(merged, b)
	}
	return merged
}

// byKey merges two key-sorted series. Entries sharing a key are combined
// with join; the rest pass through. The result is sorted by key.
func byKey[T any](a, b []T, key func(T) string, join func(T, T) T) []T {
	index := make(map[string]T, len(a)+len(b))
	for _, series := range [][]T{a, b} {
		for _, entry := range series {
			k := key(entry)
			if prev, ok := index[k]; ok {
				index[k] = join(prev, entry)
				continue
			}
			index[k] = entry
		}
	}

	keys := lo.Keys(index)
	sort.Strings(keys)

	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, index[k])
	}
	return out
}

func addRounded(x, y decimal.Decimal) decimal.Decimal {
	return money.Round(x.Add(y))
}

// MRR sums new and existing MRR month by month and re-derives the total.
func MRR(a, b []domain.MonthlyMRR) []domain.MonthlyMRR {
	merged := byKey(a, b,
		func(m domain.MonthlyMRR) string { return m.Key },
		func(x, y domain.MonthlyMRR) domain.MonthlyMRR {
			x.NewMRR = addRounded(x.NewMRR, y.NewMRR)
			x.ExistingMRR = addRounded(x.ExistingMRR, y.ExistingMRR)
			return x
		},
	)
	for i := range merged {
		merged[i].TotalMRR = money.Round(merged[i].NewMRR.Add(merged[i].ExistingMRR))
	}
	return merged
}

// CustomerTrends sums new customers per month and rebuilds the running total.
func CustomerTrends(a, b []domain.CustomerTrend) []domain.CustomerTrend {
	merged := byKey(a, b,
		func(c domain.CustomerTrend) string { return c.Key },
		func(x, y domain.CustomerTrend) domain.CustomerTrend {
			x.NewCustomers += y.NewCustomers
			return x
		},
	)
	cumulative := 0
	for i := range merged {
		cumulative += merged[i].NewCustomers
		merged[i].CumulativeCustomers = cumulative
	}
	return merged
}

// RevenueByPlan joins plans by exact name and recomputes every share against
// the combined total.
func RevenueByPlan(a, b []domain.PlanRevenue) []domain.PlanRevenue {
	planMRR := make(map[string]decimal.Decimal, len(a)+len(b))
	for _, p := range append(append([]domain.PlanRevenue{}, a...), b...) {
		planMRR[p.Plan] = planMRR[p.Plan].Add(p.MRR)
	}
	return engine.PlanShares(planMRR)
}

// Churn sums the populations and recomputes the rate from the sums.
func Churn(a, b domain.ChurnMetrics) domain.ChurnMetrics {
	churned := a.ChurnedCount + b.ChurnedCount
	previous := a.PreviousActiveCount + b.PreviousActiveCount
	return domain.ChurnMetrics{
		ChurnRate:           money.Ratio(churned, previous),
		ChurnedCount:        churned,
		ActiveCount:         a.ActiveCount + b.ActiveCount,
		PreviousActiveCount: previous,
	}
}

// Financial sums revenue, fees and payouts. Balances come from a.
func Financial(a, b domain.FinancialMetrics) domain.FinancialMetrics {
	gross := addRounded(a.GrossRevenue, b.GrossRevenue)
	fees := addRounded(a.Fees, b.Fees)
	return domain.FinancialMetrics{
		GrossRevenue:     gross,
		Fees:             fees,
		NetRevenue:       money.Round(gross.Sub(fees)),
		TotalPayouts:     addRounded(a.TotalPayouts, b.TotalPayouts),
		PendingBalance:   a.PendingBalance,
		AvailableBalance: a.AvailableBalance,
		FeePercentage:    money.Percent(fees, gross),
	}
}

func MonthlyFinancials(a, b []domain.MonthlyFinancials) []domain.MonthlyFinancials {
	merged := byKey(a, b,
		func(m domain.MonthlyFinancials) string { return m.Key },
		func(x, y domain.MonthlyFinancials) domain.MonthlyFinancials {
			x.GrossRevenue = addRounded(x.GrossRevenue, y.GrossRevenue)
			x.Fees = addRounded(x.Fees, y.Fees)
			x.Payouts = addRounded(x.Payouts, y.Payouts)
			return x
		},
	)
	for i := range merged {
		merged[i].NetRevenue = money.Round(merged[i].GrossRevenue.Sub(merged[i].Fees))
	}
	return merged
}

// DailyPayouts sums the per-source subtotals of each day and derives the
// combined amount and count from them.
func DailyPayouts(a, b []domain.DailyPayout) []domain.DailyPayout {
	merged := byKey(a, b,
		func(d domain.DailyPayout) string { return d.Key },
		func(x, y domain.DailyPayout) domain.DailyPayout {
			x.StripeAmount = addRounded(x.StripeAmount, y.StripeAmount)
			x.StripeCount += y.StripeCount
			x.PixAmount = addRounded(x.PixAmount, y.PixAmount)
			x.PixCount += y.PixCount
			return x
		},
	)
	for i := range merged {
		merged[i].Amount = addRounded(merged[i].StripeAmount, merged[i].PixAmount)
		merged[i].Count = merged[i].StripeCount + merged[i].PixCount
	}
	return merged
}

// SubscriptionRecords concatenates both lists, newest first. Sources cover
// disjoint customers so nothing is de-duplicated.
func SubscriptionRecords(a, b []domain.SubscriptionRecord) []domain.SubscriptionRecord {
	out := make([]domain.SubscriptionRecord, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	engine.SortRecordsNewestFirst(out)
	return out
}

func FailedPayments(a, b []domain.FailedPayment) []domain.FailedPayment {
	out := make([]domain.FailedPayment, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	engine.SortFailuresNewestFirst(out)
	return out
}
