package billing

import (
	billingdomain "github.com/openbar/tapflow/internal/billing/domain"
	"github.com/openbar/tapflow/internal/billing/service"
	"github.com/openbar/tapflow/internal/config"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("billing.service",
	fx.Provide(providePricing),
	fx.Provide(service.New),
)

// providePricing builds the single Pricing value every money computation
// shares. An unparseable BILLING_UNIT_PRICE falls back to the default
// rather than failing startup.
func providePricing(cfg config.Config, log *zap.Logger) billingdomain.Pricing {
	pricing := billingdomain.DefaultPricing()
	if cfg.BillingCurrencySymbol != "" {
		pricing.CurrencySymbol = cfg.BillingCurrencySymbol
	}
	if cfg.BillingUnitPrice == "" {
		return pricing
	}

	unitPrice, err := decimal.NewFromString(cfg.BillingUnitPrice)
	if err != nil || unitPrice.IsNegative() {
		log.Warn("invalid BILLING_UNIT_PRICE, using default",
			zap.String("value", cfg.BillingUnitPrice),
			zap.String("default", billingdomain.DefaultUnitPrice.String()),
		)
		return pricing
	}
	pricing.UnitPrice = unitPrice
	return pricing
}
