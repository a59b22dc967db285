package plan

import (
	"github.com/cyclebill/cyclebill/internal/domain/price"
	"github.com/cyclebill/cyclebill/internal/types"
)

type Plan struct {
	// ID is the unique identifier for the plan
	ID string `db:"id" json:"id"`

	// LookupKey is the tenant-supplied key for the plan, unique per tenant and mode
	LookupKey string `db:"lookup_key" json:"lookup_key"`

	// Name is the display name of the plan
	Name string `db:"name" json:"name"`

	// Description of the plan
	Description string `db:"description" json:"description"`

	// BillingPeriod is the billing interval for the plan ex month, year
	BillingPeriod types.BillingPeriod `db:"billing_period" json:"billing_period"`

	// BillingPeriodCount is the count of the billing period ex 1, 3, 6, 12
	BillingPeriodCount int `db:"billing_period_count" json:"billing_period_count"`

	// TrialPeriodDays is the default trial length for new subscriptions, 0 for none
	TrialPeriodDays int `db:"trial_period_days" json:"trial_period_days"`

	// PlanStatus is the sellability status of the plan
	PlanStatus types.PlanStatus `db:"plan_status" json:"plan_status"`

	// Prices are the per-currency price definitions of the plan, exactly one
	// per currency. Loaded alongside the plan row, never mutated after creation.
	Prices []*price.Price `db:"-" json:"prices,omitempty"`

	// Features is a jsonb bag of feature flags for the plan
	Features types.Metadata `db:"features" json:"features"`

	// Metadata is a jsonb field for additional information
	Metadata types.Metadata `db:"metadata" json:"metadata"`

	types.BaseModel
}

// IsActive reports whether the plan accepts new subscriptions
func (p *Plan) IsActive() bool {
	return p.PlanStatus == types.PlanStatusActive
}

// PriceForCurrency returns the plan's price definition for the given
// currency, matching case-insensitively, or nil when the plan does not sell
// in that currency. No fallback currency substitution happens here: billing
// in the wrong currency is a correctness violation, so absence is surfaced
// to the caller.
func (p *Plan) PriceForCurrency(currency string) *price.Price {
	normalized := types.NormalizeCurrency(currency)
	for _, pr := range p.Prices {
		if types.NormalizeCurrency(pr.Currency) == normalized {
			return pr
		}
	}
	return nil
}
