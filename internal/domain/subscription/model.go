package subscription

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cyclebill/cyclebill/internal/types"
)

// SubscriptionItem binds a subscription to a plan's price. The core supports
// a single item per subscription today; the list models the multi-item
// extension without a schema change.
type SubscriptionItem struct {
	PlanID   string `json:"plan_id"`
	PriceID  string `json:"price_id"`
	Quantity int64  `json:"quantity"`
}

// JSONBItems is the item list persisted as a JSONB column alongside the
// relational row
type JSONBItems []SubscriptionItem

type Subscription struct {
	// ID is the unique identifier for the subscription
	ID string `db:"id" json:"id"`

	// LookupKey is the tenant-supplied key for the subscription, unique per tenant and mode
	LookupKey string `db:"lookup_key" json:"lookup_key"`

	// CustomerID is the identifier for the customer in our system
	CustomerID string `db:"customer_id" json:"customer_id"`

	// Items are the plan/price/quantity bindings of the subscription
	Items JSONBItems `db:"items" json:"items"`

	// Currency is the 3 letter ISO code pinned at creation, independent of
	// any tenant default
	Currency string `db:"currency" json:"currency"`

	// SubscriptionStatus is the status of the subscription
	SubscriptionStatus types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`

	// CurrentPeriodStart is the start of the period the subscription has been
	// billed for
	CurrentPeriodStart time.Time `db:"current_period_start" json:"current_period_start"`

	// CurrentPeriodEnd is the end of the period the subscription has been
	// billed for. At this instant a renewal is due.
	CurrentPeriodEnd time.Time `db:"current_period_end" json:"current_period_end"`

	// TrialStart is the start date of the trial period
	TrialStart *time.Time `db:"trial_start" json:"trial_start"`

	// TrialEnd is the end date of the trial period
	TrialEnd *time.Time `db:"trial_end" json:"trial_end"`

	// CancelAt is the date the subscription will be canceled
	CancelAt *time.Time `db:"cancel_at" json:"cancel_at"`

	// CancelledAt is the date the subscription was canceled
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at"`

	// CancelAtPeriodEnd is whether the subscription cancels at the end of
	// the current period instead of immediately
	CancelAtPeriodEnd bool `db:"cancel_at_period_end" json:"cancel_at_period_end"`

	// CancellationReason is set only when a cancellation has been requested
	CancellationReason string `db:"cancellation_reason" json:"cancellation_reason"`

	// PauseStart is when the subscription was paused
	PauseStart *time.Time `db:"pause_start" json:"pause_start"`

	// PauseEnd is the scheduled end of the pause, if any
	PauseEnd *time.Time `db:"pause_end" json:"pause_end"`

	// BillingAnchor is the reference instant used to compute recurring
	// period boundaries
	BillingAnchor time.Time `db:"billing_anchor" json:"billing_anchor"`

	// BillingPeriod is the billing interval, copied from the plan at
	// creation or plan change
	BillingPeriod types.BillingPeriod `db:"billing_period" json:"billing_period"`

	// BillingPeriodCount is the interval multiplier, copied from the plan
	BillingPeriodCount int `db:"billing_period_count" json:"billing_period_count"`

	// Metadata is a jsonb field for additional information
	Metadata types.Metadata `db:"metadata" json:"metadata"`

	types.BaseModel
}

// PlanID returns the plan of the subscription's first item.
// Single-item subscriptions are the only shape the core writes today.
func (s *Subscription) PlanID() string {
	if len(s.Items) == 0 {
		return ""
	}
	return s.Items[0].PlanID
}

// PriceID returns the price of the subscription's first item
func (s *Subscription) PriceID() string {
	if len(s.Items) == 0 {
		return ""
	}
	return s.Items[0].PriceID
}

// Quantity returns the quantity of the subscription's first item
func (s *Subscription) Quantity() int64 {
	if len(s.Items) == 0 {
		return 0
	}
	return s.Items[0].Quantity
}

// IsTrialing reports whether the subscription is in its trial window
func (s *Subscription) IsTrialing() bool {
	return s.SubscriptionStatus == types.SubscriptionStatusTrialing
}

// Scanner/Valuer implementations for JSONBItems
func (j *JSONBItems) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("invalid type for jsonb items")
	}
	return json.Unmarshal(bytes, j)
}

func (j JSONBItems) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}
