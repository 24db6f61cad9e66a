// Package money holds the decimal helpers shared by every metric computation.
//
// Amounts are expressed in base currency units (not cents). Every aggregate is
// rounded to two places, half away from zero, at the point it is produced.
package money

import "github.com/shopspring/decimal"

// Places is the number of fractional digits kept for every reported amount.
const Places int32 = 2

var hundred = decimal.NewFromInt(100)

// Round rounds d to cents, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// FromMinor converts an amount in the smallest currency unit (cents) to base units.
func FromMinor(amount int64) decimal.Decimal {
	return decimal.New(amount, -Places)
}

// Percent returns part/total*100 rounded to cents, or zero when total is zero.
func Percent(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return Round(part.Div(total).Mul(hundred))
}

// Ratio returns numerator/denominator*100 rounded to cents, or zero when the
// denominator is zero.
func Ratio(numerator, denominator int) decimal.Decimal {
	if denominator == 0 {
		return decimal.Zero
	}
	return Percent(decimal.NewFromInt(int64(numerator)), decimal.NewFromInt(int64(denominator)))
}

// Sum adds values without rounding.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
