// Package engine turns card-processor records into revenue metrics.
//
// Every function here is pure: inputs are never mutated, the current time is
// always passed in, and unusable rows contribute zero instead of failing the
// aggregation.
package engine

import (
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/revenuepulse/internal/revenue/domain"
	"github.com/smallbiznis/revenuepulse/pkg/money"
	"github.com/smallbiznis/revenuepulse/pkg/period"
)

const UnknownProduct = "Unknown Product"

var (
	monthsPerYear = decimal.NewFromInt(12)
	weeksPerYear  = decimal.NewFromInt(52)
	daysPerYear   = decimal.NewFromInt(365)
)

// MonthlyRecurringValue normalizes every recurring line item of sub to a
// monthly amount and returns their sum rounded to cents.
func MonthlyRecurringValue(sub domain.Subscription) decimal.Decimal {
	total := decimal.Zero
	for _, item := range sub.Items {
		total = total.Add(itemMonthlyValue(item))
	}
	return money.Round(total)
}

func itemMonthlyValue(item domain.LineItem) decimal.Decimal {
	if item.Recurring == nil {
		return decimal.Zero
	}

	count := item.Recurring.IntervalCount
	if count <= 0 {
		count = 1
	}
	quantity := item.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	intervals := decimal.NewFromInt(count)
	var monthly decimal.Decimal
	switch item.Recurring.Interval {
	case domain.IntervalMonth:
		monthly = item.UnitAmount.Div(intervals)
	case domain.IntervalYear:
		monthly = item.UnitAmount.Div(monthsPerYear.Mul(intervals))
	case domain.IntervalWeek:
		monthly = item.UnitAmount.Mul(weeksPerYear).Div(monthsPerYear.Mul(intervals))
	case domain.IntervalDay:
		monthly = item.UnitAmount.Mul(daysPerYear).Div(monthsPerYear.Mul(intervals))
	default:
		return decimal.Zero
	}

	return monthly.Mul(decimal.NewFromInt(quantity))
}

type valuedSubscription struct {
	created    time.Time
	canceledAt *time.Time
	createdKey string
	mrr        decimal.Decimal
}

// activeIn reports whether the subscription overlaps the month at all.
func (v valuedSubscription) activeIn(m period.Month) bool {
	if !v.created.Before(m.End()) {
		return false
	}
	return v.canceledAt == nil || !v.canceledAt.Before(m.Start)
}

// NewVsExistingMRR splits MRR per month into revenue from subscriptions created
// in that month and revenue carried over from earlier months.
//
// Months are the union of every month touched by a subscription with a
// positive monthly value: creation month through cancellation month, or
// through the month of now when still open.
func NewVsExistingMRR(subs []domain.Subscription, now time.Time) []domain.MonthlyMRR {
	valued := lo.FilterMap(subs, func(sub domain.Subscription, _ int) (valuedSubscription, bool) {
		mrr := MonthlyRecurringValue(sub)
		return valuedSubscription{
			created:    sub.Created,
			canceledAt: sub.CanceledAt,
			createdKey: period.MonthKey(sub.Created),
			mrr:        mrr,
		}, mrr.IsPositive()
	})
	if len(valued) == 0 {
		return []domain.MonthlyMRR{}
	}

	months := make(map[string]period.Month)
	for _, v := range valued {
		created := period.MonthOf(v.created)
		months[created.Key] = created

		end := now
		if v.canceledAt != nil {
			end = *v.canceledAt
		}
		for _, m := range period.MonthsBetween(v.created, end) {
			months[m.Key] = m
		}
	}

	keys := lo.Keys(months)
	sort.Strings(keys)

	results := make([]domain.MonthlyMRR, 0, len(keys))
	for _, key := range keys {
		m := months[key]
		newMRR := decimal.Zero
		existingMRR := decimal.Zero

		for _, v := range valued {
			if !v.activeIn(m) {
				continue
			}
			if v.createdKey == m.Key {
				newMRR = newMRR.Add(v.mrr)
			} else {
				existingMRR = existingMRR.Add(v.mrr)
			}
		}

		newMRR = money.Round(newMRR)
		existingMRR = money.Round(existingMRR)
		results = append(results, domain.MonthlyMRR{
			Month:       m.Label,
			Key:         m.Key,
			MonthDate:   m.Start,
			NewMRR:      newMRR,
			ExistingMRR: existingMRR,
			TotalMRR:    money.Round(newMRR.Add(existingMRR)),
		})
	}

	return results
}

// ARR is twelve times the monthly value of every active or trialing
// subscription, as of now.
func ARR(subs []domain.Subscription) decimal.Decimal {
	total := decimal.Zero
	for _, sub := range subs {
		if !sub.Status.IsLive() {
			continue
		}
		total = total.Add(MonthlyRecurringValue(sub).Mul(monthsPerYear))
	}
	return money.Round(total)
}

// ChurnMetrics compares subscriptions active at the start of the current
// month with those still active at now.
func ChurnMetrics(subs []domain.Subscription, now time.Time) domain.ChurnMetrics {
	monthStart := period.StartOfMonth(now)

	var activeAtStart, activeNow, churned int
	for _, sub := range subs {
		wasActive := sub.Created.Before(monthStart) && notCanceledBefore(sub.CanceledAt, monthStart)
		isActive := sub.Created.Before(now) && notCanceledBefore(sub.CanceledAt, now)

		if wasActive {
			activeAtStart++
			if !isActive && sub.CanceledAt != nil &&
				!sub.CanceledAt.Before(monthStart) && sub.CanceledAt.Before(now) {
				churned++
			}
		}
		if isActive {
			activeNow++
		}
	}

	return domain.ChurnMetrics{
		ChurnRate:           money.Ratio(churned, activeAtStart),
		ChurnedCount:        churned,
		ActiveCount:         activeNow,
		PreviousActiveCount: activeAtStart,
	}
}

func notCanceledBefore(canceledAt *time.Time, t time.Time) bool {
	return canceledAt == nil || !canceledAt.Before(t)
}

// CustomerTrends counts distinct customers per creation month and keeps a
// running total across months.
func CustomerTrends(subs []domain.Subscription) []domain.CustomerTrend {
	customersByMonth := make(map[string]map[string]struct{})
	for _, sub := range subs {
		key := period.MonthKey(sub.Created)
		customers, ok := customersByMonth[key]
		if !ok {
			customers = make(map[string]struct{})
			customersByMonth[key] = customers
		}
		customerID := sub.CustomerID
		if customerID == "" {
			customerID = sub.ID
		}
		customers[customerID] = struct{}{}
	}

	keys := lo.Keys(customersByMonth)
	sort.Strings(keys)

	trends := make([]domain.CustomerTrend, 0, len(keys))
	cumulative := 0
	for _, key := range keys {
		start, err := period.ParseMonthKey(key)
		if err != nil {
			continue
		}
		count := len(customersByMonth[key])
		cumulative += count
		m := period.MonthOf(start)
		trends = append(trends, domain.CustomerTrend{
			Month:               m.Label,
			Key:                 m.Key,
			MonthDate:           m.Start,
			NewCustomers:        count,
			CumulativeCustomers: cumulative,
		})
	}
	return trends
}

// RevenueByPlan attributes the monthly value of every line item of active or
// trialing subscriptions to its product and reports each product's share.
func RevenueByPlan(subs []domain.Subscription, productNames map[string]string) []domain.PlanRevenue {
	planMRR := make(map[string]decimal.Decimal)
	for _, sub := range subs {
		if !sub.Status.IsLive() {
			continue
		}
		for _, item := range sub.Items {
			single := sub
			single.Items = []domain.LineItem{item}
			name := PlanName(item, productNames)
			planMRR[name] = planMRR[name].Add(MonthlyRecurringValue(single))
		}
	}

	return PlanShares(planMRR)
}

// PlanName resolves the display name of a line item's product. An embedded
// name from an expanded product wins over the bare product id.
func PlanName(item domain.LineItem, productNames map[string]string) string {
	if item.ProductID != "" {
		if name, ok := productNames[item.ProductID]; ok && name != "" {
			return name
		}
	}
	if item.ProductName != "" {
		return item.ProductName
	}
	if item.ProductID != "" {
		return item.ProductID
	}
	return UnknownProduct
}

// PlanShares rounds each plan total, computes its percentage of the sum of the
// rounded totals and orders plans by MRR, largest first.
func PlanShares(planMRR map[string]decimal.Decimal) []domain.PlanRevenue {
	rounded := make(map[string]decimal.Decimal, len(planMRR))
	total := decimal.Zero
	for plan, mrr := range planMRR {
		rounded[plan] = money.Round(mrr)
		total = total.Add(rounded[plan])
	}

	plans := make([]domain.PlanRevenue, 0, len(rounded))
	for plan, mrr := range rounded {
		plans = append(plans, domain.PlanRevenue{
			Plan:       plan,
			MRR:        mrr,
			Percentage: money.Percent(mrr, total),
		})
	}

	sort.Slice(plans, func(i, j int) bool {
		if cmp := plans[i].MRR.Cmp(plans[j].MRR); cmp != 0 {
			return cmp > 0
		}
		return plans[i].Plan < plans[j].Plan
	})
	return plans
}
