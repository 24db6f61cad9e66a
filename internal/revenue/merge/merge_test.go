package merge

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/revenuepulse/internal/revenue/domain"
	"github.com/smallbiznis/revenuepulse/internal/revenue/engine"
	"github.com/smallbiznis/revenuepulse/internal/revenue/pix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func assertDecimal(t *testing.T, expected string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, got.Equal(dec(expected)), "expected %s, got %s", expected, got)
}

func assertSameJSON(t *testing.T, expected, got any) {
	t.Helper()
	want, err := json.Marshal(expected)
	require.NoError(t, err)
	have, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(have))
}

func cardBundle() domain.Bundle {
	arrival := date(2024, time.February, 10)
	paidAt := date(2024, time.February, 1)
	ds := domain.CardDataset{
		Subscriptions: []domain.Subscription{
			{
				ID: "sub_1", CustomerID: "cus_1", Status: domain.SubscriptionStatusActive, Created: date(2024, time.January, 15),
				Items: []domain.LineItem{{
					UnitAmount: dec("99.99"), Quantity: 1, ProductID: "prod_pro",
					Recurring: &domain.Recurring{Interval: domain.IntervalMonth, IntervalCount: 1},
				}},
			},
			{
				ID: "sub_2", CustomerID: "cus_2", Status: domain.SubscriptionStatusActive, Created: date(2024, time.February, 3),
				Items: []domain.LineItem{{
					UnitAmount: dec("1000"), Quantity: 1, ProductID: "prod_year",
					Recurring: &domain.Recurring{Interval: domain.IntervalYear, IntervalCount: 1},
				}},
			},
		},
		Invoices: []domain.Invoice{{
			ID: "in_1", CustomerID: "cus_1", SubscriptionID: "sub_1", Status: domain.InvoiceStatusPaid,
			Paid: true, Attempted: true, AmountPaid: dec("99.99"), Created: paidAt, PaidAt: &paidAt,
		}},
		Transactions: []domain.BalanceTransaction{
			{ID: "txn_1", Type: domain.TransactionTypeCharge, Amount: dec("99.99"), Fee: dec("3.20"), Created: paidAt},
		},
		Payouts: []domain.Payout{
			{ID: "po_1", Status: domain.PayoutStatusPaid, Amount: dec("96.79"), ArrivalDate: &arrival},
		},
		Balance: domain.BalanceSnapshot{
			Available: []decimal.Decimal{dec("12.34")},
			Pending:   []decimal.Decimal{dec("5")},
		},
		ProductNames: map[string]string{"prod_pro": "Pro", "prod_year": "Annual"},
	}
	return engine.BuildCardBundle(ds, date(2024, time.March, 5))
}

func transferBundle() domain.Bundle {
	return pix.BuildBundle([]domain.TransferSubscription{
		{ID: "pix_1", CustomerName: "Ana", PlanType: "Pro", Amount: dec("50"), StartDate: date(2024, time.February, 10), Active: true},
		{ID: "pix_2", CustomerName: "Bia", PlanType: "Basic", Amount: dec("20"), StartDate: date(2023, time.December, 1), Active: false},
	}, date(2024, time.March, 5))
}

func TestMergeIdentity(t *testing.T) {
	a := cardBundle()

	assertSameJSON(t, a, Merge(a, domain.EmptyBundle()))
}

func TestMergeTotalsAreOrderIndependent(t *testing.T) {
	a := cardBundle()
	b := transferBundle()

	ab := Merge(a, b)
	ba := Merge(b, a)

	assertDecimal(t, ab.ARR.String(), ba.ARR)
	assert.Equal(t, ab.SubscriptionCount, ba.SubscriptionCount)
	assertSameJSON(t, ab.MRR, ba.MRR)
	assertSameJSON(t, ab.CustomerTrends, ba.CustomerTrends)
	assertSameJSON(t, ab.RevenueByPlan, ba.RevenueByPlan)
	assertSameJSON(t, ab.MonthlyFinancials, ba.MonthlyFinancials)
	assertSameJSON(t, ab.Churn, ba.Churn)
	assertDecimal(t, ab.Financial.GrossRevenue.String(), ba.Financial.GrossRevenue)
	assertDecimal(t, ab.Financial.Fees.String(), ba.Financial.Fees)
	assert.Len(t, ba.SubscriptionRecords, len(ab.SubscriptionRecords))
}

func TestMergeIsAssociativeOnTotals(t *testing.T) {
	a := cardBundle()
	b := transferBundle()
	c := pix.BuildBundle([]domain.TransferSubscription{
		{ID: "pix_7", CustomerName: "Caio", PlanType: "Annual", Amount: dec("10.005"), StartDate: date(2024, time.January, 20), Active: true},
	}, date(2024, time.March, 5))

	left := Merge(Merge(a, b), c)
	right := Merge(a, Merge(b, c))

	assertSameJSON(t, left.MRR, right.MRR)
	assertSameJSON(t, left.CustomerTrends, right.CustomerTrends)
	assertSameJSON(t, left.Churn, right.Churn)
	assertSameJSON(t, left.Financial, right.Financial)
	assertSameJSON(t, left.DailyPayouts, right.DailyPayouts)
}

func TestMergeDailyPayoutsSameDay(t *testing.T) {
	day := date(2024, time.March, 6)
	a := []domain.DailyPayout{{
		Date: "06/03/2024", Key: "2024-03-06", DateObj: day,
		Amount: dec("50"), Count: 1, StripeAmount: dec("50"), StripeCount: 1,
	}}
	b := []domain.DailyPayout{{
		Date: "06/03/2024", Key: "2024-03-06", DateObj: day.Add(3 * time.Hour),
		Amount: dec("30"), Count: 2, PixAmount: dec("30"), PixCount: 2,
	}}

	got := DailyPayouts(a, b)

	require.Len(t, got, 1)
	assertDecimal(t, "80", got[0].Amount)
	assert.Equal(t, 3, got[0].Count)
	assertDecimal(t, "50", got[0].StripeAmount)
	assertDecimal(t, "30", got[0].PixAmount)
	assert.Equal(t, 1, got[0].StripeCount)
	assert.Equal(t, 2, got[0].PixCount)
}

func TestMergeMRRRoundsAndRederivesTotal(t *testing.T) {
	a := []domain.MonthlyMRR{
		{Key: "2024-01", Month: "Jan 2024", NewMRR: dec("10.10"), ExistingMRR: dec("0"), TotalMRR: dec("10.10")},
		{Key: "2024-03", Month: "Mar 2024", NewMRR: dec("1"), ExistingMRR: dec("2"), TotalMRR: dec("3")},
	}
	b := []domain.MonthlyMRR{
		{Key: "2024-02", Month: "Feb 2024", NewMRR: dec("5"), ExistingMRR: dec("0"), TotalMRR: dec("5")},
		{Key: "2024-01", Month: "Jan 2024", NewMRR: dec("0.20"), ExistingMRR: dec("4.70"), TotalMRR: dec("4.90")},
	}

	got := MRR(a, b)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03"}, []string{got[0].Key, got[1].Key, got[2].Key})
	assertDecimal(t, "10.30", got[0].NewMRR)
	assertDecimal(t, "4.70", got[0].ExistingMRR)
	assertDecimal(t, "15", got[0].TotalMRR)
	for _, m := range got {
		assert.True(t, m.TotalMRR.Equal(m.NewMRR.Add(m.ExistingMRR)), m.Key)
	}
}

func TestMergeCustomerTrendsRecomputesCumulative(t *testing.T) {
	a := []domain.CustomerTrend{
		{Key: "2024-01", NewCustomers: 2, CumulativeCustomers: 2},
		{Key: "2024-03", NewCustomers: 1, CumulativeCustomers: 3},
	}
	b := []domain.CustomerTrend{
		{Key: "2024-02", NewCustomers: 4, CumulativeCustomers: 4},
		{Key: "2024-03", NewCustomers: 1, CumulativeCustomers: 5},
	}

	got := CustomerTrends(a, b)

	require.Len(t, got, 3)
	assert.Equal(t, []int{2, 6, 8}, []int{got[0].CumulativeCustomers, got[1].CumulativeCustomers, got[2].CumulativeCustomers})
	assert.Equal(t, 2, got[2].NewCustomers)
	for i := 1; i < len(got); i++ {
		assert.Equal(t, got[i-1].CumulativeCustomers+got[i].NewCustomers, got[i].CumulativeCustomers)
	}
}

func TestMergeRevenueByPlan(t *testing.T) {
	a := []domain.PlanRevenue{{Plan: "Pro", MRR: dec("300"), Percentage: dec("75")}, {Plan: "Starter", MRR: dec("100"), Percentage: dec("25")}}
	b := []domain.PlanRevenue{{Plan: "Pro", MRR: dec("100"), Percentage: dec("50")}, {Plan: "pro", MRR: dec("100"), Percentage: dec("50")}}

	got := RevenueByPlan(a, b)

	require.Len(t, got, 3)
	assert.Equal(t, "Pro", got[0].Plan)
	assertDecimal(t, "400", got[0].MRR)
	assertDecimal(t, "66.67", got[0].Percentage)
	assertDecimal(t, "16.67", got[1].Percentage)
	assertDecimal(t, "16.67", got[2].Percentage)
}

func TestMergeChurn(t *testing.T) {
	card := domain.ChurnMetrics{ChurnedCount: 2, ActiveCount: 8, PreviousActiveCount: 10, ChurnRate: dec("20")}
	transfers := pix.Churn(5, 1)

	got := Churn(card, transfers)

	assert.Equal(t, 3, got.ChurnedCount)
	assert.Equal(t, 13, got.ActiveCount)
	assert.Equal(t, 16, got.PreviousActiveCount)
	assertDecimal(t, "18.75", got.ChurnRate)
}

func TestMergeFinancialKeepsFirstBalance(t *testing.T) {
	a := domain.FinancialMetrics{
		GrossRevenue: dec("100"), Fees: dec("3"), NetRevenue: dec("97"), TotalPayouts: dec("90"),
		AvailableBalance: dec("7"), PendingBalance: dec("3"), FeePercentage: dec("3"),
	}
	b := domain.FinancialMetrics{
		GrossRevenue: dec("50"), NetRevenue: dec("50"), TotalPayouts: dec("50"),
		AvailableBalance: dec("999"), PendingBalance: dec("999"),
	}

	got := Financial(a, b)

	assertDecimal(t, "150", got.GrossRevenue)
	assertDecimal(t, "147", got.NetRevenue)
	assertDecimal(t, "140", got.TotalPayouts)
	assertDecimal(t, "2", got.FeePercentage)
	assertDecimal(t, "7", got.AvailableBalance)
	assertDecimal(t, "3", got.PendingBalance)
}

func TestMergeSubscriptionRecordsNewestFirst(t *testing.T) {
	a := []domain.SubscriptionRecord{{InvoiceID: "in_2", Date: date(2024, time.March, 1)}, {InvoiceID: "in_1", Date: date(2024, time.January, 1)}}
	b := []domain.SubscriptionRecord{{InvoiceID: "pix_1-20240210", Date: date(2024, time.February, 10)}}

	got := SubscriptionRecords(a, b)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"in_2", "pix_1-20240210", "in_1"}, []string{got[0].InvoiceID, got[1].InvoiceID, got[2].InvoiceID})
}

func TestAll(t *testing.T) {
	assertSameJSON(t, domain.EmptyBundle(), All())

	a := cardBundle()
	b := transferBundle()
	assertSameJSON(t, Merge(a, b), All(a, b))
}
