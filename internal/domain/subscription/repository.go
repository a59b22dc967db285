package subscription

import (
	"context"
	"time"

	"github.com/cyclebill/cyclebill/internal/types"
)

// Repository defines the interface for subscription persistence.
// All operations are scoped by the tenant and mode carried in the context.
// Create and Update run inside the caller's transaction when one is open, so
// a lifecycle operation's read-validate-write is atomic.
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	GetByLookupKey(ctx context.Context, lookupKey string) (*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error

	// List returns one page of subscriptions plus a flag reporting whether
	// rows exist beyond it. Adapters fetch limit+1 rows internally so no
	// count query is needed.
	List(ctx context.Context, filter *types.SubscriptionFilter) ([]*Subscription, bool, error)

	// ListTrialsDue returns trialing subscriptions whose trial ended at or
	// before asOf, for the external scheduler that drives trial expiry.
	ListTrialsDue(ctx context.Context, asOf time.Time) ([]*Subscription, error)
}
