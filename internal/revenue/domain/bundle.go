package domain

import "github.com/shopspring/decimal"

// Bundle is the full set of metrics produced for one payment source, or for
// several sources once merged.
type Bundle struct {
	MRR                 []MonthlyMRR         `json:"mrr_data"`
	ARR                 decimal.Decimal      `json:"arr"`
	Churn               ChurnMetrics         `json:"churn_metrics"`
	CustomerTrends      []CustomerTrend      `json:"customer_trends"`
	RevenueByPlan       []PlanRevenue        `json:"revenue_by_plan"`
	SubscriptionCount   int                  `json:"subscriptions_count"`
	Financial           FinancialMetrics     `json:"financial_metrics"`
	MonthlyFinancials   []MonthlyFinancials  `json:"monthly_financials"`
	DailyPayouts        []DailyPayout        `json:"daily_payouts"`
	SubscriptionRecords []SubscriptionRecord `json:"subscription_records"`
	FailedPayments      []FailedPayment      `json:"failed_payments"`
}

// EmptyBundle returns a bundle with no activity. Merging it with any bundle
// leaves that bundle unchanged.
func EmptyBundle() Bundle {
	return Bundle{
		MRR:                 []MonthlyMRR{},
		CustomerTrends:      []CustomerTrend{},
		RevenueByPlan:       []PlanRevenue{},
		MonthlyFinancials:   []MonthlyFinancials{},
		DailyPayouts:        []DailyPayout{},
		SubscriptionRecords: []SubscriptionRecord{},
		FailedPayments:      []FailedPayment{},
	}
}
