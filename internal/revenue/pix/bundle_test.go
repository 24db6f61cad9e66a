package pix

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/revenuepulse/internal/revenue/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func assertDecimal(t *testing.T, expected string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, got.Equal(decimal.RequireFromString(expected)), "expected %s, got %s", expected, got)
}

func roster() []domain.TransferSubscription {
	return []domain.TransferSubscription{
		{ID: "pix_1", CustomerName: "Ana", PlanType: "Mensal", Amount: decimal.NewFromInt(100), StartDate: date(2024, time.January, 31), Active: true},
		{ID: "pix_2", CustomerName: "Bruno", PlanType: "Mensal", Amount: decimal.NewFromInt(50), StartDate: date(2024, time.February, 10), Active: false},
		{ID: "pix_3", CustomerName: "Carla", PlanType: "Anual", Amount: decimal.NewFromInt(1200), StartDate: date(2024, time.May, 1), Active: true},
	}
}

func TestBuildBundleMRR(t *testing.T) {
	got := BuildBundle(roster(), date(2024, time.April, 15))

	require.Len(t, got.MRR, 3)
	assert.Equal(t, "2024-01", got.MRR[0].Key)
	assertDecimal(t, "100", got.MRR[0].NewMRR)

	assert.Equal(t, "2024-02", got.MRR[1].Key)
	assertDecimal(t, "50", got.MRR[1].NewMRR)
	assertDecimal(t, "100", got.MRR[1].ExistingMRR)
	assertDecimal(t, "150", got.MRR[1].TotalMRR)

	assert.Equal(t, "2024-03", got.MRR[2].Key)
	assertDecimal(t, "0", got.MRR[2].NewMRR)
	assertDecimal(t, "100", got.MRR[2].ExistingMRR)
}

func TestBuildBundleSnapshotFigures(t *testing.T) {
	got := BuildBundle(roster(), date(2024, time.April, 15))

	assertDecimal(t, "15600", got.ARR)
	assert.Equal(t, 3, got.SubscriptionCount)

	assert.Equal(t, 2, got.Churn.ActiveCount)
	assert.Equal(t, 1, got.Churn.ChurnedCount)
	assert.Equal(t, 3, got.Churn.PreviousActiveCount)
	assertDecimal(t, "33.33", got.Churn.ChurnRate)

	assertDecimal(t, "350", got.Financial.GrossRevenue)
	assertDecimal(t, "0", got.Financial.Fees)
	assertDecimal(t, "350", got.Financial.NetRevenue)
	assertDecimal(t, "350", got.Financial.TotalPayouts)
	assertDecimal(t, "0", got.Financial.AvailableBalance)
	assert.Empty(t, got.FailedPayments)
}

func TestBuildBundleInstallmentsClampToMonthEnd(t *testing.T) {
	got := BuildBundle(roster(), date(2024, time.April, 15))

	require.Len(t, got.SubscriptionRecords, 4)
	first := got.SubscriptionRecords[0]
	assert.Equal(t, "pix_1-20240331", first.InvoiceID)
	assert.Equal(t, 3, first.InstallmentNumber)
	assert.Equal(t, "N/A", first.CustomerEmail)

	assert.Equal(t, "pix_1-20240229", got.SubscriptionRecords[1].InvoiceID)
	assert.Equal(t, date(2024, time.February, 29), got.SubscriptionRecords[1].Date)
	assert.Equal(t, "pix_2-20240210", got.SubscriptionRecords[2].InvoiceID)
	assert.Equal(t, "pix_1-20240131", got.SubscriptionRecords[3].InvoiceID)
}

func TestBuildBundleInactiveRecordBooksOneInstallment(t *testing.T) {
	inactive := []domain.TransferSubscription{
		{ID: "pix_9", CustomerName: "Davi", PlanType: "Mensal", Amount: decimal.NewFromInt(80), StartDate: date(2023, time.March, 1), Active: false},
	}

	got := BuildBundle(inactive, date(2024, time.March, 1))

	require.Len(t, got.SubscriptionRecords, 1)
	assert.Equal(t, 1, got.SubscriptionRecords[0].InstallmentNumber)
	assert.Zero(t, got.Churn.ActiveCount)
	assert.Equal(t, 1, got.Churn.ChurnedCount)
	assertDecimal(t, "0", got.ARR)
	assertDecimal(t, "80", got.Financial.GrossRevenue)
}

func TestBuildBundleCustomerTrendsAndPlans(t *testing.T) {
	got := BuildBundle(roster(), date(2024, time.April, 15))

	require.Len(t, got.CustomerTrends, 3)
	assert.Equal(t, "2024-05", got.CustomerTrends[2].Key)
	assert.Equal(t, 3, got.CustomerTrends[2].CumulativeCustomers)

	require.Len(t, got.RevenueByPlan, 2)
	assert.Equal(t, "Anual", got.RevenueByPlan[0].Plan)
	assertDecimal(t, "1200", got.RevenueByPlan[0].MRR)
	assertDecimal(t, "88.89", got.RevenueByPlan[0].Percentage)
	assert.Equal(t, "Mensal", got.RevenueByPlan[1].Plan)
	assertDecimal(t, "150", got.RevenueByPlan[1].MRR)
	assertDecimal(t, "11.11", got.RevenueByPlan[1].Percentage)
}

func TestBuildBundleDailyPayoutsAndMonthlyFinancials(t *testing.T) {
	got := BuildBundle(roster(), date(2024, time.April, 15))

	require.Len(t, got.DailyPayouts, 4)
	for _, day := range got.DailyPayouts {
		assert.True(t, day.Amount.Equal(day.PixAmount), day.Key)
		assert.Equal(t, day.Count, day.PixCount, day.Key)
		assert.Zero(t, day.StripeCount, day.Key)
	}
	assert.Equal(t, "10/02/2024", got.DailyPayouts[1].Date)

	require.Len(t, got.MonthlyFinancials, 3)
	assertDecimal(t, "150", got.MonthlyFinancials[1].GrossRevenue)
	assertDecimal(t, "150", got.MonthlyFinancials[1].Payouts)
	assertDecimal(t, "0", got.MonthlyFinancials[1].Fees)
}

func TestBuildBundleEmptyRoster(t *testing.T) {
	got := BuildBundle(nil, date(2024, time.April, 15))

	assert.Empty(t, got.MRR)
	assert.NotNil(t, got.SubscriptionRecords)
	assert.Zero(t, got.SubscriptionCount)
	assertDecimal(t, "0", got.Churn.ChurnRate)
}
