package stripe

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/revenuepulse/internal/revenue/domain"
	"github.com/smallbiznis/revenuepulse/pkg/money"
	stripelib "github.com/stripe/stripe-go/v76"
)

// Stripe reports amounts in the smallest currency unit and times as unix
// seconds, with zero meaning unset.

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func optionalTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := unixTime(sec)
	return &t
}

func toSubscription(s *stripelib.Subscription) domain.Subscription {
	sub := domain.Subscription{
		ID:         s.ID,
		Status:     domain.SubscriptionStatus(s.Status),
		Created:    unixTime(s.Created),
		CanceledAt: optionalTime(s.CanceledAt),
		Items:      make([]domain.LineItem, 0),
	}
	if s.Customer != nil {
		sub.CustomerID = s.Customer.ID
	}
	if s.Items == nil {
		return sub
	}
	for _, item := range s.Items.Data {
		if item == nil || item.Price == nil {
			continue
		}
		sub.Items = append(sub.Items, toLineItem(item))
	}
	return sub
}

func toLineItem(item *stripelib.SubscriptionItem) domain.LineItem {
	price := item.Price
	line := domain.LineItem{
		UnitAmount: unitAmount(price),
		Quantity:   item.Quantity,
	}
	if price.Recurring != nil {
		line.Recurring = &domain.Recurring{
			Interval:      domain.Interval(price.Recurring.Interval),
			IntervalCount: price.Recurring.IntervalCount,
		}
	}
	if price.Product != nil {
		line.ProductID = price.Product.ID
		line.ProductName = price.Product.Name
	}
	return line
}

// unitAmount prefers the decimal form, which carries sub-cent prices.
func unitAmount(price *stripelib.Price) decimal.Decimal {
	if price.UnitAmountDecimal != 0 {
		return decimal.NewFromFloat(price.UnitAmountDecimal).Shift(-money.Places)
	}
	return money.FromMinor(price.UnitAmount)
}

func toInvoice(inv *stripelib.Invoice) domain.Invoice {
	out := domain.Invoice{
		ID:            inv.ID,
		CustomerName:  inv.CustomerName,
		CustomerEmail: inv.CustomerEmail,
		Status:        domain.InvoiceStatus(inv.Status),
		Paid:          inv.Paid,
		Attempted:     inv.Attempted,
		AmountPaid:    money.FromMinor(inv.AmountPaid),
		AmountDue:     money.FromMinor(inv.AmountDue),
		Created:       unixTime(inv.Created),
	}
	if inv.Customer != nil {
		out.CustomerID = inv.Customer.ID
		if out.CustomerName == "" {
			out.CustomerName = inv.Customer.Name
		}
		if out.CustomerEmail == "" {
			out.CustomerEmail = inv.Customer.Email
		}
	}
	if inv.Subscription != nil {
		out.SubscriptionID = inv.Subscription.ID
	}
	if inv.StatusTransitions != nil {
		out.PaidAt = optionalTime(inv.StatusTransitions.PaidAt)
		out.FinalizedAt = optionalTime(inv.StatusTransitions.FinalizedAt)
	}
	out.FailureMessage = failureMessage(inv)
	return out
}

func failureMessage(inv *stripelib.Invoice) string {
	if inv.PaymentIntent != nil && inv.PaymentIntent.LastPaymentError != nil {
		if msg := inv.PaymentIntent.LastPaymentError.Msg; msg != "" {
			return msg
		}
	}
	if inv.Charge != nil && inv.Charge.FailureMessage != "" {
		return inv.Charge.FailureMessage
	}
	if inv.LastFinalizationError != nil {
		return inv.LastFinalizationError.Msg
	}
	return ""
}

func toBalanceTransaction(bt *stripelib.BalanceTransaction) domain.BalanceTransaction {
	return domain.BalanceTransaction{
		ID:      bt.ID,
		Type:    domain.TransactionType(bt.Type),
		Amount:  money.FromMinor(bt.Amount),
		Fee:     money.FromMinor(bt.Fee),
		Created: unixTime(bt.Created),
	}
}

func toPayout(p *stripelib.Payout) domain.Payout {
	return domain.Payout{
		ID:          p.ID,
		Status:      domain.PayoutStatus(p.Status),
		Amount:      money.FromMinor(p.Amount),
		ArrivalDate: optionalTime(p.ArrivalDate),
	}
}

func toBalance(b *stripelib.Balance) domain.BalanceSnapshot {
	snapshot := domain.BalanceSnapshot{
		Available: make([]decimal.Decimal, 0, len(b.Available)),
		Pending:   make([]decimal.Decimal, 0, len(b.Pending)),
	}
	for _, amount := range b.Available {
		if amount != nil {
			snapshot.Available = append(snapshot.Available, money.FromMinor(amount.Amount))
		}
	}
	for _, amount := range b.Pending {
		if amount != nil {
			snapshot.Pending = append(snapshot.Pending, money.FromMinor(amount.Amount))
		}
	}
	return snapshot
}

// unnamedProducts lists product ids whose display name was not embedded in
// the subscription payload.
func unnamedProducts(subs []domain.Subscription) []string {
	ids := make([]string, 0)
	for _, sub := range subs {
		for _, item := range sub.Items {
			if item.ProductID != "" && item.ProductName == "" {
				ids = append(ids, item.ProductID)
			}
		}
	}
	return ids
}
