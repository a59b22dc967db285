package testutil

import (
	"context"
	"sort"

	"github.com/cyclebill/cyclebill/internal/domain/price"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/samber/lo"
)

// InMemoryPriceStore implements price.Repository
type InMemoryPriceStore struct {
	*InMemoryStore[*price.Price]
}

// NewInMemoryPriceStore creates a new in-memory price store
func NewInMemoryPriceStore() *InMemoryPriceStore {
	return &InMemoryPriceStore{
		InMemoryStore: NewInMemoryStore[*price.Price](),
	}
}

func copyPrice(p *price.Price) *price.Price {
	if p == nil {
		return nil
	}
	copied := *p
	copied.Tiers = make(price.JSONBTiers, len(p.Tiers))
	copy(copied.Tiers, p.Tiers)
	copied.Metadata = lo.Assign(types.Metadata{}, p.Metadata)
	return &copied
}

func (s *InMemoryPriceStore) Create(ctx context.Context, p *price.Price) error {
	return s.InMemoryStore.Create(ctx, p.ID, copyPrice(p))
}

func (s *InMemoryPriceStore) CreateBulk(ctx context.Context, prices []*price.Price) error {
	for _, p := range prices {
		if err := s.Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *InMemoryPriceStore) Get(ctx context.Context, id string) (*price.Price, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !priceInScope(ctx, p) {
		return nil, ierr.NewError("price not found").
			WithHint("No price exists for the given id").
			Mark(ierr.ErrNotFound)
	}
	return copyPrice(p), nil
}

func (s *InMemoryPriceStore) ListByPlan(ctx context.Context, planID string) ([]*price.Price, error) {
	filterFn := func(ctx context.Context, p *price.Price, _ interface{}) bool {
		return priceInScope(ctx, p) && p.PlanID == planID
	}

	prices, err := s.InMemoryStore.List(ctx, nil, filterFn, nil)
	if err != nil {
		return nil, err
	}

	sort.Slice(prices, func(i, j int) bool {
		return prices[i].Currency < prices[j].Currency
	})

	return lo.Map(prices, func(p *price.Price, _ int) *price.Price {
		return copyPrice(p)
	}), nil
}

func priceInScope(ctx context.Context, p *price.Price) bool {
	return p != nil &&
		p.TenantID == types.GetTenantID(ctx) &&
		p.Mode == types.GetMode(ctx) &&
		p.Status == types.StatusPublished
}
