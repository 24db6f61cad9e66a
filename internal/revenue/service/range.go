package service

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/revenuepulse/internal/revenue/domain"
	"github.com/smallbiznis/revenuepulse/pkg/money"
	"github.com/smallbiznis/revenuepulse/pkg/period"
)

var hundred = decimal.NewFromInt(100)

// FilterRange keeps the monthly and daily series entries that fall strictly
// after now minus the range length. Cumulative customer counts keep the
// values computed over the full history.
func FilterRange(b domain.Bundle, rng domain.Range, now time.Time) domain.Bundle {
	months := rng.Months()
	if months == 0 {
		return b
	}
	cutoff := period.AddMonths(now, -months)

	b.MRR = lo.Filter(b.MRR, func(m domain.MonthlyMRR, _ int) bool {
		return m.MonthDate.After(cutoff)
	})
	b.CustomerTrends = lo.Filter(b.CustomerTrends, func(c domain.CustomerTrend, _ int) bool {
		return c.MonthDate.After(cutoff)
	})
	b.MonthlyFinancials = lo.Filter(b.MonthlyFinancials, func(m domain.MonthlyFinancials, _ int) bool {
		return m.MonthDate.After(cutoff)
	})
	b.DailyPayouts = lo.Filter(b.DailyPayouts, func(d domain.DailyPayout, _ int) bool {
		return d.DateObj.After(cutoff)
	})
	return b
}

// Summarize compares the last two points of the MRR and customer series.
func Summarize(b domain.Bundle) domain.Summary {
	var summary domain.Summary

	if n := len(b.MRR); n > 0 {
		latest := b.MRR[n-1]
		var previous domain.MonthlyMRR
		if n > 1 {
			previous = b.MRR[n-2]
		}
		summary.TotalMRR = growth(latest.TotalMRR, previous.TotalMRR)
		summary.NewMRR = growth(latest.NewMRR, previous.NewMRR)
	} else {
		summary.TotalMRR = growth(decimal.Zero, decimal.Zero)
		summary.NewMRR = growth(decimal.Zero, decimal.Zero)
	}

	current, previous := 0, 0
	if n := len(b.CustomerTrends); n > 0 {
		current = b.CustomerTrends[n-1].CumulativeCustomers
		if n > 1 {
			previous = b.CustomerTrends[n-2].CumulativeCustomers
		}
	}
	summary.Customers = growth(decimal.NewFromInt(int64(current)), decimal.NewFromInt(int64(previous)))

	return summary
}

// growth reports the change from previous to current. From a zero baseline
// any increase counts as 100%.
func growth(current, previous decimal.Decimal) domain.Growth {
	change := money.Round(current.Sub(previous))
	rate := decimal.Zero
	switch {
	case !previous.IsZero():
		rate = money.Percent(change, previous)
	case current.IsPositive():
		rate = hundred
	}
	return domain.Growth{
		Current:    current,
		Previous:   previous,
		Change:     change,
		ChangeRate: rate,
	}
}
