package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusTrialing   SubscriptionStatus = "trialing"
	SubscriptionStatusCanceled   SubscriptionStatus = "canceled"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusUnpaid     SubscriptionStatus = "unpaid"
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
	SubscriptionStatusPaused     SubscriptionStatus = "paused"
)

// IsLive reports whether the status counts towards ARR and plan revenue.
func (s SubscriptionStatus) IsLive() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}

type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

type Recurring struct {
	Interval      Interval
	IntervalCount int64
}

type LineItem struct {
	UnitAmount  decimal.Decimal
	Quantity    int64
	Recurring   *Recurring
	ProductID   string
	ProductName string
}

type Subscription struct {
	ID         string
	CustomerID string
	Status     SubscriptionStatus
	Created    time.Time
	CanceledAt *time.Time
	Items      []LineItem
}

type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusOpen          InvoiceStatus = "open"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusUncollectible InvoiceStatus = "uncollectible"
	InvoiceStatusVoid          InvoiceStatus = "void"
)

type Invoice struct {
	ID             string
	CustomerID     string
	CustomerName   string
	CustomerEmail  string
	SubscriptionID string
	Status         InvoiceStatus
	Paid           bool
	Attempted      bool
	AmountPaid     decimal.Decimal
	AmountDue      decimal.Decimal
	Created        time.Time
	PaidAt         *time.Time
	FinalizedAt    *time.Time
	FailureMessage string
}

type TransactionType string

const (
	TransactionTypeCharge  TransactionType = "charge"
	TransactionTypePayment TransactionType = "payment"
	TransactionTypeRefund  TransactionType = "refund"
	TransactionTypePayout  TransactionType = "payout"
)

// CountsAsRevenue reports whether the transaction contributes to gross revenue and fees.
func (t TransactionType) CountsAsRevenue() bool {
	return t == TransactionTypeCharge || t == TransactionTypePayment
}

type BalanceTransaction struct {
	ID      string
	Type    TransactionType
	Amount  decimal.Decimal
	Fee     decimal.Decimal
	Created time.Time
}

type PayoutStatus string

const (
	PayoutStatusPaid      PayoutStatus = "paid"
	PayoutStatusPending   PayoutStatus = "pending"
	PayoutStatusInTransit PayoutStatus = "in_transit"
	PayoutStatusFailed    PayoutStatus = "failed"
	PayoutStatusCanceled  PayoutStatus = "canceled"
)

type Payout struct {
	ID          string
	Status      PayoutStatus
	Amount      decimal.Decimal
	ArrivalDate *time.Time
}

// BalanceSnapshot holds the per-currency funds reported by the card processor.
type BalanceSnapshot struct {
	Available []decimal.Decimal
	Pending   []decimal.Decimal
}

// CardDataset is everything fetched from the card processor for one computation.
type CardDataset struct {
	Subscriptions []Subscription
	Invoices      []Invoice
	Transactions  []BalanceTransaction
	Payouts       []Payout
	Balance       BalanceSnapshot
	// ProductNames maps product ids to display names. Read only.
	ProductNames map[string]string
}

// TransferSubscription is one row of the direct-transfer roster: a flat amount
// collected once a month from StartDate while Active.
type TransferSubscription struct {
	ID           string
	CustomerName string
	PlanType     string
	Amount       decimal.Decimal
	StartDate    time.Time
	Active       bool
}
