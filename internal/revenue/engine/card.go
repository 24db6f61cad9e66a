package engine

import (
	"time"

	"github.com/smallbiznis/revenuepulse/internal/revenue/domain"
)

// BuildCardBundle computes every card-processor metric from a fully fetched
// dataset.
func BuildCardBundle(ds domain.CardDataset, now time.Time) domain.Bundle {
	return domain.Bundle{
		MRR:                 NewVsExistingMRR(ds.Subscriptions, now),
		ARR:                 ARR(ds.Subscriptions),
		Churn:               ChurnMetrics(ds.Subscriptions, now),
		CustomerTrends:      CustomerTrends(ds.Subscriptions),
		RevenueByPlan:       RevenueByPlan(ds.Subscriptions, ds.ProductNames),
		SubscriptionCount:   len(ds.Subscriptions),
		Financial:           FinancialMetrics(ds.Transactions, ds.Payouts, ds.Balance),
		MonthlyFinancials:   MonthlyFinancials(ds.Transactions, ds.Payouts),
		DailyPayouts:        DailyPayouts(ds.Payouts),
		SubscriptionRecords: SubscriptionRecords(ds.Invoices),
		FailedPayments:      FailedPayments(ds.Invoices),
	}
}
