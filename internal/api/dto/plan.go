package dto

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/domain/plan"
	"github.com/cyclebill/cyclebill/internal/domain/price"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/cyclebill/cyclebill/internal/validator"
)

type CreatePlanRequest struct {
	Name               string               `json:"name" validate:"required"`
	LookupKey          string               `json:"lookup_key,omitempty"`
	Description        string               `json:"description,omitempty"`
	BillingPeriod      types.BillingPeriod  `json:"billing_period" validate:"required"`
	BillingPeriodCount int                  `json:"billing_period_count,omitempty"`
	TrialPeriodDays    int                  `json:"trial_period_days,omitempty"`
	Prices             []CreatePriceRequest `json:"prices" validate:"required,min=1,dive"`
	Features           types.Metadata       `json:"features,omitempty"`
	Metadata           types.Metadata       `json:"metadata,omitempty"`
}

type CreatePriceRequest struct {
	Currency     string             `json:"currency" validate:"required"`
	UnitAmount   int64              `json:"unit_amount" validate:"min=0"`
	PricingModel types.PricingModel `json:"pricing_model" validate:"required"`
	Tiers        []price.PriceTier  `json:"tiers,omitempty"`
}

func (r *CreatePlanRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.BillingPeriod.Validate(); err != nil {
		return err
	}
	if r.BillingPeriodCount < 0 {
		return ierr.NewError("billing period count must be a positive integer").
			WithReportableDetails(map[string]any{
				"billing_period_count": r.BillingPeriodCount,
			}).
			Mark(ierr.ErrValidation)
	}
	if r.TrialPeriodDays < 0 {
		return ierr.NewError("trial period days must not be negative").
			WithReportableDetails(map[string]any{
				"trial_period_days": r.TrialPeriodDays,
			}).
			Mark(ierr.ErrValidation)
	}

	// Exactly one price per currency per plan
	seen := make(map[string]bool, len(r.Prices))
	for _, pr := range r.Prices {
		currency := types.NormalizeCurrency(pr.Currency)
		if seen[currency] {
			return ierr.NewError("duplicate currency in plan prices").
				WithHint("A plan carries exactly one price per currency").
				WithReportableDetails(map[string]any{
					"currency": currency,
				}).
				Mark(ierr.ErrValidation)
		}
		seen[currency] = true
	}
	return nil
}

func (r *CreatePlanRequest) ToPlan(ctx context.Context) *plan.Plan {
	count := r.BillingPeriodCount
	if count == 0 {
		count = 1
	}

	return &plan.Plan{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:               r.Name,
		LookupKey:          r.LookupKey,
		Description:        r.Description,
		BillingPeriod:      r.BillingPeriod,
		BillingPeriodCount: count,
		TrialPeriodDays:    r.TrialPeriodDays,
		PlanStatus:         types.PlanStatusActive,
		Features:           r.Features,
		Metadata:           r.Metadata,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
}

func (r *CreatePriceRequest) ToPrice(ctx context.Context, planID string) *price.Price {
	return &price.Price{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PRICE),
		PlanID:       planID,
		Currency:     types.NormalizeCurrency(r.Currency),
		UnitAmount:   r.UnitAmount,
		PricingModel: r.PricingModel,
		Tiers:        r.Tiers,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}
}

type PlanResponse struct {
	*plan.Plan
}

// ListPlansResponse is a cursor-paginated page of plans
type ListPlansResponse = types.ListResponse[*PlanResponse]
