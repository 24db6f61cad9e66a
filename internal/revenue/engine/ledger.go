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

const (
	NotAvailable         = "N/A"
	DefaultFailureReason = "Pagamento falhou"
)

// FinancialMetrics totals revenue, processor fees, paid payouts and the
// current balance.
func FinancialMetrics(txns []domain.BalanceTransaction, payouts []domain.Payout, balance domain.BalanceSnapshot) domain.FinancialMetrics {
	gross := decimal.Zero
	fees := decimal.Zero
	for _, txn := range txns {
		if !txn.Type.CountsAsRevenue() {
			continue
		}
		gross = gross.Add(txn.Amount)
		fees = fees.Add(txn.Fee)
	}

	totalPayouts := decimal.Zero
	for _, p := range payouts {
		if p.Status == domain.PayoutStatusPaid {
			totalPayouts = totalPayouts.Add(p.Amount)
		}
	}

	gross = money.Round(gross)
	fees = money.Round(fees)
	return domain.FinancialMetrics{
		GrossRevenue:     gross,
		Fees:             fees,
		NetRevenue:       money.Round(gross.Sub(fees)),
		TotalPayouts:     money.Round(totalPayouts),
		AvailableBalance: money.Round(money.Sum(balance.Available...)),
		PendingBalance:   money.Round(money.Sum(balance.Pending...)),
		FeePercentage:    money.Percent(fees, gross),
	}
}

type monthTotals struct {
	month   period.Month
	gross   decimal.Decimal
	fees    decimal.Decimal
	payouts decimal.Decimal
}

// MonthlyFinancials buckets revenue by transaction month and paid payouts by
// arrival month. A month with payouts only still appears.
func MonthlyFinancials(txns []domain.BalanceTransaction, payouts []domain.Payout) []domain.MonthlyFinancials {
	buckets := make(map[string]*monthTotals)
	bucket := func(t time.Time) *monthTotals {
		m := period.MonthOf(t)
		b, ok := buckets[m.Key]
		if !ok {
			b = &monthTotals{month: m}
			buckets[m.Key] = b
		}
		return b
	}

	for _, txn := range txns {
		if !txn.Type.CountsAsRevenue() {
			continue
		}
		b := bucket(txn.Created)
		b.gross = b.gross.Add(txn.Amount)
		b.fees = b.fees.Add(txn.Fee)
	}

	for _, p := range payouts {
		if p.Status != domain.PayoutStatusPaid || p.ArrivalDate == nil {
			continue
		}
		b := bucket(*p.ArrivalDate)
		b.payouts = b.payouts.Add(p.Amount)
	}

	keys := lo.Keys(buckets)
	sort.Strings(keys)

	results := make([]domain.MonthlyFinancials, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		gross := money.Round(b.gross)
		fees := money.Round(b.fees)
		results = append(results, domain.MonthlyFinancials{
			Month:        b.month.Label,
			Key:          b.month.Key,
			MonthDate:    b.month.Start,
			GrossRevenue: gross,
			Fees:         fees,
			NetRevenue:   money.Round(gross.Sub(fees)),
			Payouts:      money.Round(b.payouts),
		})
	}
	return results
}

// DailyPayouts buckets paid payouts by arrival day. The transfer subtotals are
// left at zero; they are filled in when bundles are merged.
func DailyPayouts(payouts []domain.Payout) []domain.DailyPayout {
	type dayTotals struct {
		day    time.Time
		amount decimal.Decimal
		count  int
	}

	buckets := make(map[string]*dayTotals)
	for _, p := range payouts {
		if p.Status != domain.PayoutStatusPaid || p.ArrivalDate == nil {
			continue
		}
		key := period.DayKey(*p.ArrivalDate)
		b, ok := buckets[key]
		if !ok {
			b = &dayTotals{day: period.StartOfDay(*p.ArrivalDate)}
			buckets[key] = b
		}
		b.amount = b.amount.Add(p.Amount)
		b.count++
	}

	keys := lo.Keys(buckets)
	sort.Strings(keys)

	results := make([]domain.DailyPayout, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		amount := money.Round(b.amount)
		results = append(results, domain.DailyPayout{
			Date:         period.DayLabel(b.day),
			Key:          key,
			DateObj:      b.day,
			Amount:       amount,
			Count:        b.count,
			StripeAmount: amount,
			StripeCount:  b.count,
			PixAmount:    decimal.Zero,
			PixCount:     0,
		})
	}
	return results
}

// subscriptionInvoicesByCreation returns the subscription-linked invoices
// oldest first, leaving the input untouched.
func subscriptionInvoicesByCreation(invoices []domain.Invoice) []domain.Invoice {
	linked := lo.Filter(invoices, func(inv domain.Invoice, _ int) bool {
		return inv.SubscriptionID != ""
	})
	sort.SliceStable(linked, func(i, j int) bool {
		return linked[i].Created.Before(linked[j].Created)
	})
	return linked
}

// SubscriptionRecords lists paid subscription invoices with each customer's
// installment number, most recent payment first.
func SubscriptionRecords(invoices []domain.Invoice) []domain.SubscriptionRecord {
	paidCounts := make(map[string]int)
	records := make([]domain.SubscriptionRecord, 0)

	for _, inv := range subscriptionInvoicesByCreation(invoices) {
		if inv.Status != domain.InvoiceStatusPaid {
			continue
		}
		paidCounts[inv.CustomerID]++

		paidAt := inv.Created
		if inv.PaidAt != nil {
			paidAt = *inv.PaidAt
		}
		records = append(records, domain.SubscriptionRecord{
			CustomerName:      orNotAvailable(inv.CustomerName),
			CustomerEmail:     orNotAvailable(inv.CustomerEmail),
			Amount:            money.Round(inv.AmountPaid),
			Date:              paidAt,
			InstallmentNumber: paidCounts[inv.CustomerID],
			InvoiceID:         inv.ID,
		})
	}

	SortRecordsNewestFirst(records)
	return records
}

// FailedPayments lists attempted but unpaid subscription invoices. The
// installment number is the count of the customer's earlier paid invoices
// plus one.
func FailedPayments(invoices []domain.Invoice) []domain.FailedPayment {
	paidCounts := make(map[string]int)
	failures := make([]domain.FailedPayment, 0)

	for _, inv := range subscriptionInvoicesByCreation(invoices) {
		if inv.Status == domain.InvoiceStatusPaid {
			paidCounts[inv.CustomerID]++
			continue
		}
		if !isFailedAttempt(inv) {
			continue
		}

		attemptedAt := inv.Created
		if inv.FinalizedAt != nil {
			attemptedAt = *inv.FinalizedAt
		}
		reason := inv.FailureMessage
		if reason == "" {
			reason = DefaultFailureReason
		}
		failures = append(failures, domain.FailedPayment{
			CustomerName:      orNotAvailable(inv.CustomerName),
			CustomerEmail:     orNotAvailable(inv.CustomerEmail),
			Amount:            money.Round(inv.AmountDue),
			AttemptDate:       attemptedAt,
			InstallmentNumber: paidCounts[inv.CustomerID] + 1,
			InvoiceID:         inv.ID,
			FailureReason:     reason,
		})
	}

	SortFailuresNewestFirst(failures)
	return failures
}

func isFailedAttempt(inv domain.Invoice) bool {
	if inv.Status != domain.InvoiceStatusOpen && inv.Status != domain.InvoiceStatusUncollectible {
		return false
	}
	return inv.Attempted && !inv.Paid
}

func SortRecordsNewestFirst(records []domain.SubscriptionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
}

func SortFailuresNewestFirst(failures []domain.FailedPayment) {
	sort.SliceStable(failures, func(i, j int) bool {
		return failures[i].AttemptDate.After(failures[j].AttemptDate)
	})
}

func orNotAvailable(v string) string {
	if v == "" {
		return NotAvailable
	}
	return v
}
