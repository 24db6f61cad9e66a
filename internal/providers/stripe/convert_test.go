package stripe

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/revenuepulse/internal/revenue/domain"
	stripelib "github.com/stripe/stripe-go/v76"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDecimal(t *testing.T, expected string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, got.Equal(decimal.RequireFromString(expected)), "expected %s, got %s", expected, got)
}

func TestToSubscription(t *testing.T) {
	created := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)
	canceled := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	got := toSubscription(&stripelib.Subscription{
		ID:         "sub_1",
		Customer:   &stripelib.Customer{ID: "cus_1"},
		Status:     stripelib.SubscriptionStatusCanceled,
		Created:    created.Unix(),
		CanceledAt: canceled.Unix(),
		Items: &stripelib.SubscriptionItemList{Data: []*stripelib.SubscriptionItem{
			{
				Quantity: 2,
				Price: &stripelib.Price{
					UnitAmount: 1999,
					Recurring:  &stripelib.PriceRecurring{Interval: stripelib.PriceRecurringIntervalYear, IntervalCount: 1},
					Product:    &stripelib.Product{ID: "prod_1"},
				},
			},
			{Quantity: 1},
		}},
	})

	assert.Equal(t, "sub_1", got.ID)
	assert.Equal(t, "cus_1", got.CustomerID)
	assert.Equal(t, domain.SubscriptionStatusCanceled, got.Status)
	assert.Equal(t, created, got.Created)
	require.NotNil(t, got.CanceledAt)
	assert.Equal(t, canceled, *got.CanceledAt)

	require.Len(t, got.Items, 1)
	item := got.Items[0]
	assertDecimal(t, "19.99", item.UnitAmount)
	assert.Equal(t, int64(2), item.Quantity)
	require.NotNil(t, item.Recurring)
	assert.Equal(t, domain.IntervalYear, item.Recurring.Interval)
	assert.Equal(t, "prod_1", item.ProductID)
	assert.Empty(t, item.ProductName)
}

func TestToSubscriptionWithoutCancellation(t *testing.T) {
	got := toSubscription(&stripelib.Subscription{ID: "sub_2", Status: stripelib.SubscriptionStatusActive})

	assert.Nil(t, got.CanceledAt)
	assert.Empty(t, got.CustomerID)
	assert.NotNil(t, got.Items)
}

func TestUnitAmountPrefersDecimal(t *testing.T) {
	assertDecimal(t, "0.125", unitAmount(&stripelib.Price{UnitAmount: 12, UnitAmountDecimal: 12.5}))
	assertDecimal(t, "12", unitAmount(&stripelib.Price{UnitAmount: 1200}))
}

func TestToInvoice(t *testing.T) {
	paid := time.Date(2024, time.February, 2, 8, 30, 0, 0, time.UTC)

	got := toInvoice(&stripelib.Invoice{
		ID:                "in_1",
		Customer:          &stripelib.Customer{ID: "cus_1", Name: "Ana", Email: "ana@example.com"},
		Subscription:      &stripelib.Subscription{ID: "sub_1"},
		Status:            stripelib.InvoiceStatusPaid,
		Paid:              true,
		Attempted:         true,
		AmountPaid:        4990,
		AmountDue:         4990,
		Created:           paid.Add(-time.Hour).Unix(),
		StatusTransitions: &stripelib.InvoiceStatusTransitions{PaidAt: paid.Unix()},
	})

	assert.Equal(t, "cus_1", got.CustomerID)
	assert.Equal(t, "Ana", got.CustomerName)
	assert.Equal(t, "ana@example.com", got.CustomerEmail)
	assert.Equal(t, "sub_1", got.SubscriptionID)
	assert.Equal(t, domain.InvoiceStatusPaid, got.Status)
	assertDecimal(t, "49.90", got.AmountPaid)
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, paid, *got.PaidAt)
	assert.Nil(t, got.FinalizedAt)
	assert.Empty(t, got.FailureMessage)
}

func TestFailureMessage(t *testing.T) {
	withIntent := &stripelib.Invoice{
		PaymentIntent: &stripelib.PaymentIntent{LastPaymentError: &stripelib.Error{Msg: "Your card was declined."}},
		Charge:        &stripelib.Charge{FailureMessage: "generic"},
	}
	assert.Equal(t, "Your card was declined.", failureMessage(withIntent))

	withCharge := &stripelib.Invoice{Charge: &stripelib.Charge{FailureMessage: "insufficient funds"}}
	assert.Equal(t, "insufficient funds", failureMessage(withCharge))

	assert.Empty(t, failureMessage(&stripelib.Invoice{}))
}

func TestToPayoutAndBalance(t *testing.T) {
	payout := toPayout(&stripelib.Payout{ID: "po_1", Status: stripelib.PayoutStatusPaid, Amount: 10050})
	assertDecimal(t, "100.50", payout.Amount)
	assert.Nil(t, payout.ArrivalDate)

	balance := toBalance(&stripelib.Balance{
		Available: []*stripelib.Amount{{Amount: 1234}, nil},
		Pending:   []*stripelib.Amount{{Amount: 500}},
	})
	require.Len(t, balance.Available, 1)
	assertDecimal(t, "12.34", balance.Available[0])
	assertDecimal(t, "5", balance.Pending[0])
}

func TestUnnamedProducts(t *testing.T) {
	subs := []domain.Subscription{{Items: []domain.LineItem{
		{ProductID: "prod_1"},
		{ProductID: "prod_2", ProductName: "Named"},
		{},
	}}}

	assert.Equal(t, []string{"prod_1"}, unnamedProducts(subs))
}
