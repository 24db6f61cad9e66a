package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type MonthlyMRR struct {
	Month       string          `json:"month"`
	Key         string          `json:"key"`
	MonthDate   time.Time       `json:"month_date"`
	NewMRR      decimal.Decimal `json:"new_mrr"`
	ExistingMRR decimal.Decimal `json:"existing_mrr"`
	TotalMRR    decimal.Decimal `json:"total_mrr"`
}

type CustomerTrend struct {
	Month               string    `json:"month"`
	Key                 string    `json:"key"`
	MonthDate           time.Time `json:"month_date"`
	NewCustomers        int       `json:"new_customers"`
	CumulativeCustomers int       `json:"cumulative_customers"`
}

type PlanRevenue struct {
	Plan       string          `json:"plan"`
	MRR        decimal.Decimal `json:"mrr"`
	Percentage decimal.Decimal `json:"percentage"`
}

type ChurnMetrics struct {
	ChurnRate           decimal.Decimal `json:"churn_rate"`
	ChurnedCount        int             `json:"churned_count"`
	ActiveCount         int             `json:"active_count"`
	PreviousActiveCount int             `json:"previous_active_count"`
}

type FinancialMetrics struct {
	GrossRevenue     decimal.Decimal `json:"gross_revenue"`
	Fees             decimal.Decimal `json:"fees"`
	NetRevenue       decimal.Decimal `json:"net_revenue"`
	TotalPayouts     decimal.Decimal `json:"total_payouts"`
	PendingBalance   decimal.Decimal `json:"pending_balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	FeePercentage    decimal.Decimal `json:"fee_percentage"`
}

type MonthlyFinancials struct {
	Month        string          `json:"month"`
	Key          string          `json:"key"`
	MonthDate    time.Time       `json:"month_date"`
	GrossRevenue decimal.Decimal `json:"gross_revenue"`
	Fees         decimal.Decimal `json:"fees"`
	NetRevenue   decimal.Decimal `json:"net_revenue"`
	Payouts      decimal.Decimal `json:"payouts"`
}

type DailyPayout struct {
	Date         string          `json:"date"`
	Key          string          `json:"key"`
	DateObj      time.Time       `json:"date_obj"`
	Amount       decimal.Decimal `json:"amount"`
	Count        int             `json:"count"`
	StripeAmount decimal.Decimal `json:"stripe_amount"`
	StripeCount  int             `json:"stripe_count"`
	PixAmount    decimal.Decimal `json:"pix_amount"`
	PixCount     int             `json:"pix_count"`
}

type SubscriptionRecord struct {
	CustomerName      string          `json:"customer_name"`
	CustomerEmail     string          `json:"customer_email"`
	Amount            decimal.Decimal `json:"amount"`
	Date              time.Time       `json:"date"`
	InstallmentNumber int             `json:"installment_number"`
	InvoiceID         string          `json:"invoice_id"`
}

type FailedPayment struct {
	CustomerName      string          `json:"customer_name"`
	CustomerEmail     string          `json:"customer_email"`
	Amount            decimal.Decimal `json:"amount"`
	AttemptDate       time.Time       `json:"attempt_date"`
	InstallmentNumber int             `json:"installment_number"`
	InvoiceID         string          `json:"invoice_id"`
	FailureReason     string          `json:"failure_reason,omitempty"`
}
