package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRevenue(t *testing.T) {
	pricing := DefaultPricing()

	cases := []struct {
		name           string
		flowVolume     float64
		elapsedSeconds float64
		want           string
	}{
		{"fifty seconds", 0.064, 50, "39.20"},
		{"zero elapsed", 0.064, 0, "0.00"},
		{"negative elapsed clamped", 0.064, -10, "0.00"},
		{"sub-cent rounds down", 0.0004, 1, "0.00"},
		{"one unit one second", 1, 1, "12.25"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := pricing.Revenue(tc.flowVolume, tc.elapsedSeconds)
			assert.Equal(t, tc.want, got.StringFixed(2))
		})
	}
}

func TestDisplay(t *testing.T) {
	pricing := DefaultPricing()
	assert.Equal(t, "$39.20", pricing.Display(decimal.RequireFromString("39.2")))

	pricing.CurrencySymbol = "€"
	assert.Equal(t, "€0.00", pricing.Display(decimal.Zero))
}
