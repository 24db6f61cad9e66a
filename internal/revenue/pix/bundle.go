// Package pix computes revenue metrics for subscriptions collected by direct
// bank transfer.
//
// The roster carries no payment history, so installments are projected from
// each row's start date: one per month while the row is active. An inactive
// row books exactly one installment (its first payment) and nothing after it.
// Installment n is dated n months after the start date rather than one month
// after the previous installment, so a start on the 31st returns to the 31st
// whenever the month has one.
package pix

import (
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/revenuepulse/internal/revenue/domain"
	"github.com/smallbiznis/revenuepulse/internal/revenue/engine"
	"github.com/smallbiznis/revenuepulse/pkg/money"
	"github.com/smallbiznis/revenuepulse/pkg/period"
)

const invoiceDateLayout = "20060102"

var monthsPerYear = decimal.NewFromInt(12)

type mrrTotals struct {
	month       period.Month
	newMRR      decimal.Decimal
	existingMRR decimal.Decimal
}

type dayTotals struct {
	day    time.Time
	amount decimal.Decimal
	count  int
}

type builder struct {
	mrr       map[string]*mrrTotals
	days      map[string]*dayTotals
	customers map[string]int
	plans     map[string]decimal.Decimal
	records   []domain.SubscriptionRecord

	gross    decimal.Decimal
	arr      decimal.Decimal
	active   int
	inactive int
}

// BuildBundle projects the roster up to referenceDate and computes the same
// metric set the card processor produces. Fees are always zero and every
// installment counts as paid out on its payment day.
func BuildBundle(roster []domain.TransferSubscription, referenceDate time.Time) domain.Bundle {
	b := &builder{
		mrr:       make(map[string]*mrrTotals),
		days:      make(map[string]*dayTotals),
		customers: make(map[string]int),
		plans:     make(map[string]decimal.Decimal),
		records:   make([]domain.SubscriptionRecord, 0),
	}

	for _, sub := range roster {
		b.add(sub, referenceDate)
	}

	gross := money.Round(b.gross)
	financial := domain.FinancialMetrics{
		GrossRevenue:     gross,
		Fees:             decimal.Zero,
		NetRevenue:       gross,
		TotalPayouts:     gross,
		PendingBalance:   decimal.Zero,
		AvailableBalance: decimal.Zero,
		FeePercentage:    decimal.Zero,
	}

	return domain.Bundle{
		MRR:                 b.monthlyMRR(),
		ARR:                 money.Round(b.arr),
		Churn:               Churn(b.active, b.inactive),
		CustomerTrends:      b.customerTrends(),
		RevenueByPlan:       engine.PlanShares(b.plans),
		SubscriptionCount:   len(roster),
		Financial:           financial,
		MonthlyFinancials:   b.monthlyFinancials(),
		DailyPayouts:        b.dailyPayouts(),
		SubscriptionRecords: b.sortedRecords(),
		FailedPayments:      []domain.FailedPayment{},
	}
}

// Churn maps the roster's active/inactive snapshot onto churn metrics: every
// inactive row counts as churned out of the whole roster.
func Churn(active, inactive int) domain.ChurnMetrics {
	previous := active + inactive
	return domain.ChurnMetrics{
		ChurnRate:           money.Ratio(inactive, previous),
		ChurnedCount:        inactive,
		ActiveCount:         active,
		PreviousActiveCount: previous,
	}
}

func (b *builder) add(sub domain.TransferSubscription, referenceDate time.Time) {
	if sub.Active {
		b.active++
		b.arr = b.arr.Add(sub.Amount.Mul(monthsPerYear))
	} else {
		b.inactive++
	}

	b.plans[sub.PlanType] = b.plans[sub.PlanType].Add(sub.Amount)
	b.customers[period.MonthKey(sub.StartDate)]++

	for n := 0; ; n++ {
		paidAt := period.AddMonths(sub.StartDate, n)
		if paidAt.After(referenceDate) {
			return
		}
		b.book(sub, paidAt, n+1)
		if !sub.Active {
			return
		}
	}
}

func (b *builder) book(sub domain.TransferSubscription, paidAt time.Time, installment int) {
	b.gross = b.gross.Add(sub.Amount)

	m := period.MonthOf(paidAt)
	mrr := monthBucket(b.mrr, m)
	if installment == 1 {
		mrr.newMRR = mrr.newMRR.Add(sub.Amount)
	} else {
		mrr.existingMRR = mrr.existingMRR.Add(sub.Amount)
	}

	dayKey := period.DayKey(paidAt)
	day, ok := b.days[dayKey]
	if !ok {
		day = &dayTotals{day: period.StartOfDay(paidAt)}
		b.days[dayKey] = day
	}
	day.amount = day.amount.Add(sub.Amount)
	day.count++

	b.records = append(b.records, domain.SubscriptionRecord{
		CustomerName:      sub.CustomerName,
		CustomerEmail:     engine.NotAvailable,
		Amount:            money.Round(sub.Amount),
		Date:              paidAt,
		InstallmentNumber: installment,
		InvoiceID:         sub.ID + "-" + paidAt.UTC().Format(invoiceDateLayout),
	})
}

func monthBucket(buckets map[string]*mrrTotals, m period.Month) *mrrTotals {
	bucket, ok := buckets[m.Key]
	if !ok {
		bucket = &mrrTotals{month: m}
		buckets[m.Key] = bucket
	}
	return bucket
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}

func (b *builder) monthlyMRR() []domain.MonthlyMRR {
	keys := sortedKeys(b.mrr)
	out := make([]domain.MonthlyMRR, 0, len(keys))
	for _, key := range keys {
		bucket := b.mrr[key]
		newMRR := money.Round(bucket.newMRR)
		existingMRR := money.Round(bucket.existingMRR)
		out = append(out, domain.MonthlyMRR{
			Month:       bucket.month.Label,
			Key:         bucket.month.Key,
			MonthDate:   bucket.month.Start,
			NewMRR:      newMRR,
			ExistingMRR: existingMRR,
			TotalMRR:    money.Round(newMRR.Add(existingMRR)),
		})
	}
	return out
}

// monthlyFinancials reports every booked installment as revenue paid out in
// the same month; transfers settle immediately.
func (b *builder) monthlyFinancials() []domain.MonthlyFinancials {
	keys := sortedKeys(b.mrr)
	out := make([]domain.MonthlyFinancials, 0, len(keys))
	for _, key := range keys {
		bucket := b.mrr[key]
		gross := money.Round(bucket.newMRR.Add(bucket.existingMRR))
		out = append(out, domain.MonthlyFinancials{
			Month:        bucket.month.Label,
			Key:          bucket.month.Key,
			MonthDate:    bucket.month.Start,
			GrossRevenue: gross,
			Fees:         decimal.Zero,
			NetRevenue:   gross,
			Payouts:      gross,
		})
	}
	return out
}

func (b *builder) customerTrends() []domain.CustomerTrend {
	keys := sortedKeys(b.customers)
	out := make([]domain.CustomerTrend, 0, len(keys))
	cumulative := 0
	for _, key := range keys {
		start, err := period.ParseMonthKey(key)
		if err != nil {
			continue
		}
		m := period.MonthOf(start)
		cumulative += b.customers[key]
		out = append(out, domain.CustomerTrend{
			Month:               m.Label,
			Key:                 m.Key,
			MonthDate:           m.Start,
			NewCustomers:        b.customers[key],
			CumulativeCustomers: cumulative,
		})
	}
	return out
}

func (b *builder) dailyPayouts() []domain.DailyPayout {
	keys := sortedKeys(b.days)
	out := make([]domain.DailyPayout, 0, len(keys))
	for _, key := range keys {
		day := b.days[key]
		amount := money.Round(day.amount)
		out = append(out, domain.DailyPayout{
			Date:         period.DayLabel(day.day),
			Key:          key,
			DateObj:      day.day,
			Amount:       amount,
			Count:        day.count,
			StripeAmount: decimal.Zero,
			StripeCount:  0,
			PixAmount:    amount,
			PixCount:     day.count,
		})
	}
	return out
}

func (b *builder) sortedRecords() []domain.SubscriptionRecord {
	engine.SortRecordsNewestFirst(b.records)
	return b.records
}
