package service

import (
	"context"
	"sort"

	"github.com/cyclebill/cyclebill/internal/domain/plan"
	"github.com/cyclebill/cyclebill/internal/domain/price"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/types"
)

type PriceService interface {
	// ResolvePrice selects the plan's price definition for the target
	// currency. Absence is a validation failure, never a silent fallback.
	ResolvePrice(ctx context.Context, plan *plan.Plan, currency string) (*price.Price, error)

	// CalculateCost computes the charge for a price and quantity in integer
	// minor currency units. Pure function of its inputs.
	CalculateCost(ctx context.Context, price *price.Price, quantity int64) int64
}

type priceService struct {
	logger *logger.Logger
}

func NewPriceService(logger *logger.Logger) PriceService {
	return &priceService{logger: logger}
}

func (s *priceService) ResolvePrice(ctx context.Context, plan *plan.Plan, currency string) (*price.Price, error) {
	if err := types.ValidateCurrencyCode(currency); err != nil {
		return nil, err
	}

	resolved := plan.PriceForCurrency(currency)
	if resolved == nil {
		return nil, ierr.NewError("plan has no price for currency").
			WithHint("The plan does not sell in the requested currency").
			WithReportableDetails(map[string]any{
				"plan_id":  plan.ID,
				"currency": types.NormalizeCurrency(currency),
			}).
			Mark(ierr.ErrValidation)
	}
	return resolved, nil
}

// CalculateCost calculates the charge for a given price and quantity
// returns the cost in integer minor currency units (e.g., 1500 = $15.00)
func (s *priceService) CalculateCost(ctx context.Context, priceObj *price.Price, quantity int64) int64 {
	switch priceObj.PricingModel {
	case types.PRICING_MODEL_FLAT:
		// Quantity does not factor into a flat price
		return priceObj.UnitAmount

	case types.PRICING_MODEL_PER_UNIT:
		if quantity <= 0 {
			return 0
		}
		return priceObj.UnitAmount * quantity

	case types.PRICING_MODEL_TIERED, types.PRICING_MODEL_VOLUME:
		if quantity <= 0 {
			return 0
		}
		return s.calculateTieredCost(ctx, priceObj, quantity)
	}

	s.logger.Errorw("invalid pricing model", "price_id", priceObj.ID, "pricing_model", priceObj.PricingModel)
	return 0
}

// calculateTieredCost calculates cost for the tiered and volume models
func (s *priceService) calculateTieredCost(ctx context.Context, priceObj *price.Price, quantity int64) int64 {
	if len(priceObj.Tiers) == 0 {
		s.logger.Errorw("no tiers found for price", "price_id", priceObj.ID)
		return 0
	}

	// Sort price tiers by up_to value; the null bound sorts last
	tiers := make([]price.PriceTier, len(priceObj.Tiers))
	copy(tiers, priceObj.Tiers)
	sort.Slice(tiers, func(i, j int) bool {
		return tiers[i].GetTierUpTo() < tiers[j].GetTierUpTo()
	})

	var cost int64

	switch priceObj.PricingModel {
	case types.PRICING_MODEL_VOLUME:
		// All units are priced at the single tier the total quantity lands
		// in: up_to is inclusive, so the first tier with up_to >= quantity
		// wins, and the terminal null tier catches everything else.
		selectedTier := tiers[len(tiers)-1]
		for _, tier := range tiers {
			if tier.UpTo == nil || uint64(quantity) <= *tier.UpTo {
				selectedTier = tier
				break
			}
		}

		cost = selectedTier.UnitAmount * quantity
		if selectedTier.FlatAmount != nil {
			cost += *selectedTier.FlatAmount
		}

		s.logger.Debugw("volume tier cost",
			"price_id", priceObj.ID,
			"quantity", quantity,
			"cost", cost,
		)

	case types.PRICING_MODEL_TIERED:
		// Graduated: each band of units is priced at its own tier's rate.
		// A tier's flat surcharge applies only when at least one unit is
		// priced in that tier.
		remaining := quantity
		var prevUpTo uint64
		for _, tier := range tiers {
			tierQuantity := remaining
			if tier.UpTo != nil {
				bandSize := int64(*tier.UpTo - prevUpTo)
				if tierQuantity > bandSize {
					tierQuantity = bandSize
				}
				prevUpTo = *tier.UpTo
			}

			tierCost := tier.UnitAmount * tierQuantity
			if tier.FlatAmount != nil && tierQuantity > 0 {
				tierCost += *tier.FlatAmount
			}
			cost += tierCost
			remaining -= tierQuantity

			s.logger.Debugw("graduated tier cost",
				"price_id", priceObj.ID,
				"tier_quantity", tierQuantity,
				"tier_cost", tierCost,
			)

			if remaining <= 0 {
				break
			}
		}

		// Quantity beyond a finite terminal bound is priced at the last
		// tier's rate, the same catch-all the volume model applies.
		if remaining > 0 {
			cost += tiers[len(tiers)-1].UnitAmount * remaining
		}
	}

	return cost
}
