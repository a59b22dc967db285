package types

import (
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionStatus is the status of a subscription
// For now taking inspiration from Stripe's subscription statuses
// https://stripe.com/docs/api/subscriptions/object#subscription_object-status
type SubscriptionStatus string

const (
	SubscriptionStatusTrialing   SubscriptionStatus = "trialing"
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusPaused     SubscriptionStatus = "paused"
	SubscriptionStatusCancelled  SubscriptionStatus = "canceled"
	SubscriptionStatusUnpaid     SubscriptionStatus = "unpaid"
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusTrialing,
		SubscriptionStatusActive,
		SubscriptionStatusPastDue,
		SubscriptionStatusPaused,
		SubscriptionStatusCancelled,
		SubscriptionStatusUnpaid,
		SubscriptionStatusIncomplete,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Invalid subscription status").
			WithReportableDetails(map[string]any{
				"allowed_status": allowed,
				"provided_value": s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// subscriptionTransitions is the exhaustive table of transitions this core
// drives. past_due, unpaid and incomplete are recognized states but their
// transitions are owned by the payment collaborator, so they appear here only
// as sources where a core operation is still legal.
var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionStatusTrialing: {
		SubscriptionStatusActive,
		SubscriptionStatusCancelled,
	},
	SubscriptionStatusActive: {
		SubscriptionStatusPaused,
		SubscriptionStatusCancelled,
	},
	SubscriptionStatusPaused: {
		SubscriptionStatusActive,
		SubscriptionStatusCancelled,
	},
	SubscriptionStatusPastDue: {
		SubscriptionStatusCancelled,
	},
	SubscriptionStatusUnpaid: {
		SubscriptionStatusCancelled,
	},
	SubscriptionStatusIncomplete: {
		SubscriptionStatusCancelled,
	},
	SubscriptionStatusCancelled: {},
}

// CanTransitionTo reports whether the core may move a subscription from its
// current status to the target status.
func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	return lo.Contains(subscriptionTransitions[s], target)
}

// IsTerminal reports whether no further core transitions are allowed
func (s SubscriptionStatus) IsTerminal() bool {
	return len(subscriptionTransitions[s]) == 0
}

// SubscriptionFilter represents filters for subscription queries
type SubscriptionFilter struct {
	*QueryFilter

	// CustomerID filters by customer ID
	CustomerID string `json:"customer_id,omitempty" form:"customer_id"`
	// PlanID filters by plan ID
	PlanID string `json:"plan_id,omitempty" form:"plan_id"`
	// SubscriptionStatus filters by subscription status
	SubscriptionStatus []SubscriptionStatus `json:"subscription_status,omitempty" form:"subscription_status"`
}

// NewSubscriptionFilter creates a new SubscriptionFilter with default pagination
func NewSubscriptionFilter() *SubscriptionFilter {
	return &SubscriptionFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// Validate validates the subscription filter
func (f SubscriptionFilter) Validate() error {
	if f.QueryFilter != nil {
		if err := f.QueryFilter.Validate(); err != nil {
			return err
		}
	}
	for _, status := range f.SubscriptionStatus {
		if err := status.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// GetLimit implements BaseFilter interface
func (f *SubscriptionFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetLimit()
	}
	return f.QueryFilter.GetLimit()
}

// GetStartingAfter implements BaseFilter interface
func (f *SubscriptionFilter) GetStartingAfter() string {
	if f.QueryFilter == nil {
		return ""
	}
	return f.QueryFilter.GetStartingAfter()
}
