package reporting

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// DeltaPercent is the percent change from previous to current.
// A zero previous yields 100 for growth and nil otherwise, which renders as N/A.
func DeltaPercent(current, previous int64) *float64 {
	return deltaDecimal(decimal.NewFromInt(current), decimal.NewFromInt(previous))
}

func deltaDecimal(current, previous decimal.Decimal) *float64 {
	if previous.IsZero() {
		if current.IsPositive() {
			v := 100.0
			return &v
		}
		return nil
	}
	v, _ := current.Sub(previous).Div(previous).Mul(hundred).Round(2).Float64()
	return &v
}

// ratio divides and yields zero for a zero denominator.
func ratio(numerator, denominator decimal.Decimal) decimal.Decimal {
	if denominator.IsZero() {
		return decimal.Zero
	}
	return numerator.Div(denominator)
}

func percentOf(part, whole int64) float64 {
	v, _ := ratio(decimal.NewFromInt(part), decimal.NewFromInt(whole)).Mul(hundred).Round(2).Float64()
	return v
}

// averageCents divides minor units and rounds half-to-even.
func averageCents(total, count int64) int64 {
	return ratio(decimal.NewFromInt(total), decimal.NewFromInt(count)).RoundBank(0).IntPart()
}

func deltaFloat(current, previous float64) *float64 {
	return deltaDecimal(decimal.NewFromFloat(current), decimal.NewFromFloat(previous))
}
