package testutil

import (
	"context"
	"sort"
	"time"

	"github.com/cyclebill/cyclebill/internal/domain/subscription"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/samber/lo"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
}

// NewInMemorySubscriptionStore creates a new in-memory subscription store
func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
	}
}

func copySubscription(sub *subscription.Subscription) *subscription.Subscription {
	if sub == nil {
		return nil
	}
	copied := *sub
	copied.Items = make(subscription.JSONBItems, len(sub.Items))
	copy(copied.Items, sub.Items)
	copied.Metadata = lo.Assign(types.Metadata{}, sub.Metadata)
	return &copied
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if sub.LookupKey != "" {
		if existing, err := s.GetByLookupKey(ctx, sub.LookupKey); err == nil && existing != nil {
			return ierr.NewError("subscription lookup key already exists").
				WithHint("Lookup keys are unique per tenant and mode").
				Mark(ierr.ErrAlreadyExists)
		}
	}
	return s.InMemoryStore.Create(ctx, sub.ID, copySubscription(sub))
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !subscriptionInScope(ctx, sub) {
		return nil, ierr.NewError("subscription not found").
			WithHint("No subscription exists for the given id").
			Mark(ierr.ErrNotFound)
	}
	return copySubscription(sub), nil
}

func (s *InMemorySubscriptionStore) GetByLookupKey(ctx context.Context, lookupKey string) (*subscription.Subscription, error) {
	filterFn := func(ctx context.Context, sub *subscription.Subscription, _ interface{}) bool {
		return subscriptionInScope(ctx, sub) && sub.LookupKey == lookupKey
	}

	subs, err := s.InMemoryStore.List(ctx, nil, filterFn, nil)
	if err != nil || len(subs) == 0 {
		return nil, ierr.NewError("subscription not found").
			WithHint("No subscription exists for the given lookup key").
			Mark(ierr.ErrNotFound)
	}
	return copySubscription(subs[0]), nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	if existing, err := s.Get(ctx, sub.ID); err != nil || existing == nil {
		return ierr.NewError("subscription not found").
			WithHint("No subscription exists for the given id").
			Mark(ierr.ErrNotFound)
	}
	if sub.LookupKey != "" {
		existing, err := s.GetByLookupKey(ctx, sub.LookupKey)
		if err == nil && existing != nil && existing.ID != sub.ID {
			return ierr.NewError("subscription lookup key already exists").
				WithHint("Lookup keys are unique per tenant and mode").
				Mark(ierr.ErrAlreadyExists)
		}
	}
	return s.InMemoryStore.Update(ctx, sub.ID, copySubscription(sub))
}

func (s *InMemorySubscriptionStore) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, bool, error) {
	if filter == nil {
		filter = types.NewSubscriptionFilter()
	}

	items, err := s.InMemoryStore.List(ctx, filter, subscriptionFilterFn, subscriptionSortFn)
	if err != nil {
		return nil, false, err
	}

	page, hasMore, err := paginateByCursor(items, filter.GetStartingAfter(), filter.GetLimit(),
		func(sub *subscription.Subscription) string { return sub.ID })
	if err != nil {
		return nil, false, err
	}

	return lo.Map(page, func(sub *subscription.Subscription, _ int) *subscription.Subscription {
		return copySubscription(sub)
	}), hasMore, nil
}

func (s *InMemorySubscriptionStore) ListTrialsDue(ctx context.Context, asOf time.Time) ([]*subscription.Subscription, error) {
	filterFn := func(ctx context.Context, sub *subscription.Subscription, _ interface{}) bool {
		return subscriptionInScope(ctx, sub) &&
			sub.SubscriptionStatus == types.SubscriptionStatusTrialing &&
			sub.TrialEnd != nil && !sub.TrialEnd.After(asOf)
	}

	subs, err := s.InMemoryStore.List(ctx, nil, filterFn, nil)
	if err != nil {
		return nil, err
	}

	sort.Slice(subs, func(i, j int) bool {
		return subs[i].TrialEnd.Before(*subs[j].TrialEnd)
	})

	return lo.Map(subs, func(sub *subscription.Subscription, _ int) *subscription.Subscription {
		return copySubscription(sub)
	}), nil
}

func subscriptionInScope(ctx context.Context, sub *subscription.Subscription) bool {
	return sub != nil &&
		sub.TenantID == types.GetTenantID(ctx) &&
		sub.Mode == types.GetMode(ctx) &&
		sub.Status == types.StatusPublished
}

func subscriptionFilterFn(ctx context.Context, sub *subscription.Subscription, filter interface{}) bool {
	if !subscriptionInScope(ctx, sub) {
		return false
	}
	f, ok := filter.(*types.SubscriptionFilter)
	if !ok || f == nil {
		return true
	}
	if f.CustomerID != "" && sub.CustomerID != f.CustomerID {
		return false
	}
	if f.PlanID != "" && sub.PlanID() != f.PlanID {
		return false
	}
	if len(f.SubscriptionStatus) > 0 && !lo.Contains(f.SubscriptionStatus, sub.SubscriptionStatus) {
		return false
	}
	return true
}

func subscriptionSortFn(i, j *subscription.Subscription) bool {
	if !i.CreatedAt.Equal(j.CreatedAt) {
		return i.CreatedAt.After(j.CreatedAt)
	}
	return i.ID > j.ID
}
