package dto

import (
	"context"
	"time"

	"github.com/cyclebill/cyclebill/internal/domain/subscription"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/cyclebill/cyclebill/internal/validator"
)

type CreateSubscriptionRequest struct {
	CustomerID string         `json:"customer_id" validate:"required"`
	PlanID     string         `json:"plan_id" validate:"required"`
	Currency   string         `json:"currency" validate:"required"`
	Quantity   int64          `json:"quantity,omitempty"`
	LookupKey  string         `json:"lookup_key,omitempty"`
	StartDate  time.Time      `json:"start_date,omitempty"`
	TrialEnd   *time.Time     `json:"trial_end,omitempty"`
	Metadata   types.Metadata `json:"metadata,omitempty"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := types.ValidateCurrencyCode(r.Currency); err != nil {
		return err
	}
	if r.Quantity < 0 {
		return ierr.NewError("quantity must not be negative").
			WithHint("Quantity must be a positive integer").
			WithReportableDetails(map[string]any{
				"quantity": r.Quantity,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ToSubscription builds the subscription skeleton. The lifecycle manager
// fills in the resolved price, period window and status.
func (r *CreateSubscriptionRequest) ToSubscription(ctx context.Context) *subscription.Subscription {
	quantity := r.Quantity
	if quantity == 0 {
		quantity = 1
	}

	return &subscription.Subscription{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		CustomerID: r.CustomerID,
		LookupKey:  r.LookupKey,
		Currency:   types.NormalizeCurrency(r.Currency),
		Items: subscription.JSONBItems{
			{PlanID: r.PlanID, Quantity: quantity},
		},
		Metadata:  r.Metadata,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
}

type UpdateSubscriptionRequest struct {
	LookupKey *string         `json:"lookup_key,omitempty"`
	Quantity  *int64          `json:"quantity,omitempty"`
	Metadata  *types.Metadata `json:"metadata,omitempty"`
}

func (r *UpdateSubscriptionRequest) Validate() error {
	if r.Quantity != nil && *r.Quantity <= 0 {
		return ierr.NewError("quantity must be a positive integer").
			WithReportableDetails(map[string]any{
				"quantity": *r.Quantity,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ToPatch converts the request into the typed subscription patch
func (r *UpdateSubscriptionRequest) ToPatch() subscription.Patch {
	return subscription.Patch{
		LookupKey: r.LookupKey,
		Quantity:  r.Quantity,
		Metadata:  r.Metadata,
	}
}

type ChangePlanRequest struct {
	PlanID string `json:"plan_id" validate:"required"`

	// Immediate resets the billing period from now; otherwise the current
	// period is kept and the next renewal picks up the new plan
	Immediate bool `json:"immediate,omitempty"`
}

func (r *ChangePlanRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type CancelSubscriptionRequest struct {
	// AtPeriodEnd defaults to true: the subscription stays active until the
	// current period ends
	AtPeriodEnd *bool  `json:"at_period_end,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// GetAtPeriodEnd returns the cancellation timing, defaulting to period end
func (r *CancelSubscriptionRequest) GetAtPeriodEnd() bool {
	if r == nil || r.AtPeriodEnd == nil {
		return true
	}
	return *r.AtPeriodEnd
}

type PauseSubscriptionRequest struct {
	// PauseEnd optionally schedules the end of the pause; must be in the future
	PauseEnd *time.Time `json:"pause_end,omitempty"`
}

type SubscriptionResponse struct {
	*subscription.Subscription
}

// ListSubscriptionsResponse is a cursor-paginated page of subscriptions
type ListSubscriptionsResponse = types.ListResponse[*SubscriptionResponse]
