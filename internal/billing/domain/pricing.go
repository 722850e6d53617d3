package domain

import "github.com/shopspring/decimal"

// DefaultUnitPrice is the currency charged per unit volume dispensed.
var DefaultUnitPrice = decimal.RequireFromString("12.25")

// DefaultCurrencySymbol prefixes summary and spending amounts.
const DefaultCurrencySymbol = "$"

// Pricing carries the billing constants. A single Pricing value is injected
// everywhere money is computed so the formula cannot diverge between
// tap-close revenue, summaries, and spending detail.
type Pricing struct {
	UnitPrice      decimal.Decimal
	CurrencySymbol string
}

func DefaultPricing() Pricing {
	return Pricing{
		UnitPrice:      DefaultUnitPrice,
		CurrencySymbol: DefaultCurrencySymbol,
	}
}

// Revenue prices an open interval: flow volume snapshot times elapsed
// seconds times the unit price, rounded to two decimals. Negative elapsed
// time is clamped to zero so an in-flight event never bills negatively.
func (p Pricing) Revenue(flowVolume, elapsedSeconds float64) decimal.Decimal {
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	return decimal.NewFromFloat(flowVolume).
		Mul(decimal.NewFromFloat(elapsedSeconds)).
		Mul(p.UnitPrice).
		Round(2)
}

// Display renders an amount with the configured currency symbol.
func (p Pricing) Display(amount decimal.Decimal) string {
	return p.CurrencySymbol + amount.StringFixed(2)
}
