package types

import (
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/samber/lo"
)

// PricingModel defines how a price charges for a given quantity
type PricingModel string

const (
	// PRICING_MODEL_FLAT charges the unit amount once, quantity ignored
	PRICING_MODEL_FLAT PricingModel = "flat"

	// PRICING_MODEL_PER_UNIT charges unit amount * quantity
	PRICING_MODEL_PER_UNIT PricingModel = "per_unit"

	// PRICING_MODEL_TIERED charges graduated tiers, each band of units at
	// that band's rate ex first 100 at $1, next 900 at $0.90
	PRICING_MODEL_TIERED PricingModel = "tiered"

	// PRICING_MODEL_VOLUME charges all units at the rate of the single tier
	// the total quantity lands in
	PRICING_MODEL_VOLUME PricingModel = "volume"

	// MAX_BILLING_AMOUNT is the maximum allowed billing amount in minor
	// units (as a safeguard)
	MAX_BILLING_AMOUNT = 1000000000000 // 1 trillion
)

func (m PricingModel) String() string {
	return string(m)
}

func (m PricingModel) Validate() error {
	allowed := []PricingModel{
		PRICING_MODEL_FLAT,
		PRICING_MODEL_PER_UNIT,
		PRICING_MODEL_TIERED,
		PRICING_MODEL_VOLUME,
	}
	if !lo.Contains(allowed, m) {
		return ierr.NewError("invalid pricing model").
			WithHint("Pricing model must be one of flat, per_unit, tiered, volume").
			WithReportableDetails(map[string]any{
				"allowed_values": allowed,
				"provided_value": m,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsTiered returns true for the models that require a tier list
func (m PricingModel) IsTiered() bool {
	return m == PRICING_MODEL_TIERED || m == PRICING_MODEL_VOLUME
}
