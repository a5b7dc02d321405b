package domain

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// parseDec parses a wire decimal string, defaulting absent/invalid input to 0.
func parseDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// SpreadPct is (ask-bid)/ask*100. A non-positive ask yields 0, never Inf/NaN.
func SpreadPct(ask, bid string) float64 {
	a := parseDec(ask)
	if a.Sign() <= 0 {
		return 0
	}
	v, _ := a.Sub(parseDec(bid)).Div(a).Mul(hundred).Float64()
	return v
}

// VolatilityPct is (high-low)/low*100. A non-positive low yields 0.
func VolatilityPct(high, low string) float64 {
	l := parseDec(low)
	if l.Sign() <= 0 {
		return 0
	}
	v, _ := parseDec(high).Sub(l).Div(l).Mul(hundred).Float64()
	return v
}

// NotionalUSD is price*qty for liquidation sizing.
func NotionalUSD(price, qty string) float64 {
	v, _ := parseDec(price).Mul(parseDec(qty)).Float64()
	return v
}
