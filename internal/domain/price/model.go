package price

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"

	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/shopspring/decimal"
)

// JSONBTiers is the tier list persisted as a JSONB column
type JSONBTiers []PriceTier

// Price is one currency's pricing rule within a plan. A plan carries exactly
// one price per currency. Prices are immutable after creation; changing
// pricing requires creating a new plan.
type Price struct {
	// ID is the unique identifier for the price
	ID string `db:"id" json:"id"`

	// PlanID is the id of the plan this price belongs to
	PlanID string `db:"plan_id" json:"plan_id"`

	// Currency is the 3 letter ISO 4217 code, normalized uppercase ex USD, EUR
	Currency string `db:"currency" json:"currency"`

	// UnitAmount is the amount in integer minor currency units ex cents.
	// Never a float: 1250 means $12.50 for USD.
	UnitAmount int64 `db:"unit_amount" json:"unit_amount"`

	// PricingModel is how the price charges for a quantity
	// ex flat, per_unit, tiered, volume
	PricingModel types.PricingModel `db:"pricing_model" json:"pricing_model"`

	// Tiers are the bands for the tiered and volume models, ordered by
	// ascending upper bound. Empty for flat and per_unit.
	Tiers JSONBTiers `db:"tiers" json:"tiers,omitempty"`

	// Metadata is a jsonb field for additional information
	Metadata types.Metadata `db:"metadata" json:"metadata"`

	types.BaseModel
}

// PriceTier is one band of a tiered or volume price
type PriceTier struct {
	// UpTo is the inclusive upper bound of the band. It is null for the
	// terminal infinite band, which only the last tier may carry.
	UpTo *uint64 `json:"up_to"`

	// UnitAmount is the amount per unit within this band, in minor units
	UnitAmount int64 `json:"unit_amount"`

	// FlatAmount is an optional flat surcharge applied on top of
	// unit_amount*quantity when at least one unit is priced in this band.
	// It solves cases in banking like 2.7% + 5c.
	FlatAmount *int64 `json:"flat_amount,omitempty"`
}

// GetTierUpTo returns the up_to value for the tier and treats null case as MaxUint64.
// NOTE: Only to be used for sorting of tiers to avoid any unexpected behaviour
func (t PriceTier) GetTierUpTo() uint64 {
	if t.UpTo != nil {
		return *t.UpTo
	}
	return math.MaxUint64
}

// Validate checks the structural invariants of a price definition. Tier
// invariants hold forever afterwards because prices are never mutated.
func (p *Price) Validate() error {
	if err := types.ValidateCurrencyCode(p.Currency); err != nil {
		return err
	}
	if err := p.PricingModel.Validate(); err != nil {
		return err
	}
	if p.UnitAmount < 0 {
		return ierr.NewError("unit amount must not be negative").
			WithHint("Unit amount is in integer minor currency units and must be >= 0").
			WithReportableDetails(map[string]any{
				"unit_amount": p.UnitAmount,
			}).
			Mark(ierr.ErrValidation)
	}

	if !p.PricingModel.IsTiered() {
		if len(p.Tiers) > 0 {
			return ierr.NewError("tiers are only allowed for tiered and volume pricing").
				WithHint("Remove tiers or use a tiered/volume pricing model").
				Mark(ierr.ErrValidation)
		}
		return nil
	}

	return ValidateTiers(p.Tiers)
}

// ValidateTiers enforces the tier list invariants: at least one tier, bounds
// strictly increasing, and a null (infinite) bound only on the last tier.
func ValidateTiers(tiers []PriceTier) error {
	if len(tiers) == 0 {
		return ierr.NewError("tiered pricing requires at least one tier").
			WithHint("Provide an ordered list of tiers").
			Mark(ierr.ErrValidation)
	}

	var prevUpTo uint64
	for i, tier := range tiers {
		if tier.UnitAmount < 0 {
			return ierr.NewError("tier unit amount must not be negative").
				WithReportableDetails(map[string]any{
					"tier_index":  i,
					"unit_amount": tier.UnitAmount,
				}).
				Mark(ierr.ErrValidation)
		}
		if tier.FlatAmount != nil && *tier.FlatAmount < 0 {
			return ierr.NewError("tier flat amount must not be negative").
				WithReportableDetails(map[string]any{
					"tier_index":  i,
					"flat_amount": *tier.FlatAmount,
				}).
				Mark(ierr.ErrValidation)
		}
		if tier.UpTo == nil {
			if i != len(tiers)-1 {
				return ierr.NewError("only the last tier may have a null upper bound").
					WithHint("A null up_to marks the terminal infinite tier").
					WithReportableDetails(map[string]any{
						"tier_index": i,
					}).
					Mark(ierr.ErrValidation)
			}
			continue
		}
		if *tier.UpTo == 0 || (i > 0 && *tier.UpTo <= prevUpTo) {
			return ierr.NewError("tier upper bounds must be strictly increasing").
				WithReportableDetails(map[string]any{
					"tier_index": i,
					"up_to":      *tier.UpTo,
				}).
				Mark(ierr.ErrValidation)
		}
		prevUpTo = *tier.UpTo
	}
	return nil
}

// GetCurrencySymbol returns the currency symbol for the price
func (p *Price) GetCurrencySymbol() string {
	return types.GetCurrencySymbol(p.Currency)
}

// MajorAmount converts minor units to a decimal amount in major currency
// units according to the currency's exponent, ex 1250 -> 12.50 for USD.
func MajorAmount(minorUnits int64, currency string) decimal.Decimal {
	precision := types.GetCurrencyPrecision(currency)
	return decimal.New(minorUnits, -precision)
}

// GetDisplayAmount returns the unit amount in the currency ex $12.50
func (p *Price) GetDisplayAmount() string {
	amount := MajorAmount(p.UnitAmount, p.Currency)
	return fmt.Sprintf("%s%s", p.GetCurrencySymbol(), amount.StringFixed(types.GetCurrencyPrecision(p.Currency)))
}

// GetDisplayAmountWithPrecision formats a minor-unit amount with the
// currency's symbol and exponent ex 1500 -> $15.00
func GetDisplayAmountWithPrecision(minorUnits int64, currency string) string {
	amount := MajorAmount(minorUnits, currency)
	return fmt.Sprintf("%s%s", types.GetCurrencySymbol(currency), amount.StringFixed(types.GetCurrencyPrecision(currency)))
}

// Scanner/Valuer implementations for JSONBTiers
func (j *JSONBTiers) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("invalid type for jsonb tiers")
	}
	return json.Unmarshal(bytes, j)
}

func (j JSONBTiers) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}
