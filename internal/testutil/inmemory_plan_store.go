package testutil

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/domain/plan"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/samber/lo"
)

// InMemoryPlanStore implements plan.Repository. It mirrors the postgres
// adapter by attaching the plan's prices from the price store on every read.
type InMemoryPlanStore struct {
	*InMemoryStore[*plan.Plan]
	prices *InMemoryPriceStore
}

// NewInMemoryPlanStore creates a new in-memory plan store backed by the given
// price store
func NewInMemoryPlanStore(prices *InMemoryPriceStore) *InMemoryPlanStore {
	return &InMemoryPlanStore{
		InMemoryStore: NewInMemoryStore[*plan.Plan](),
		prices:        prices,
	}
}

func copyPlan(p *plan.Plan) *plan.Plan {
	if p == nil {
		return nil
	}
	copied := *p
	copied.Prices = nil
	copied.Features = lo.Assign(types.Metadata{}, p.Features)
	copied.Metadata = lo.Assign(types.Metadata{}, p.Metadata)
	return &copied
}

func (s *InMemoryPlanStore) Create(ctx context.Context, p *plan.Plan) error {
	if p.LookupKey != "" {
		if existing, err := s.GetByLookupKey(ctx, p.LookupKey); err == nil && existing != nil {
			return ierr.NewError("plan lookup key already exists").
				WithHint("Lookup keys are unique per tenant and mode").
				Mark(ierr.ErrAlreadyExists)
		}
	}
	return s.InMemoryStore.Create(ctx, p.ID, copyPlan(p))
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !planInScope(ctx, p) {
		return nil, ierr.NewError("plan not found").
			WithHint("No plan exists for the given id").
			Mark(ierr.ErrNotFound)
	}
	return s.withPrices(ctx, copyPlan(p))
}

func (s *InMemoryPlanStore) GetByLookupKey(ctx context.Context, lookupKey string) (*plan.Plan, error) {
	filterFn := func(ctx context.Context, p *plan.Plan, _ interface{}) bool {
		return planInScope(ctx, p) && p.LookupKey == lookupKey
	}

	plans, err := s.InMemoryStore.List(ctx, nil, filterFn, nil)
	if err != nil || len(plans) == 0 {
		return nil, ierr.NewError("plan not found").
			WithHint("No plan exists for the given lookup key").
			Mark(ierr.ErrNotFound)
	}
	return s.withPrices(ctx, copyPlan(plans[0]))
}

func (s *InMemoryPlanStore) List(ctx context.Context, filter *types.PlanFilter) ([]*plan.Plan, bool, error) {
	if filter == nil {
		filter = types.NewPlanFilter()
	}

	items, err := s.InMemoryStore.List(ctx, filter, planFilterFn, planSortFn)
	if err != nil {
		return nil, false, err
	}

	page, hasMore, err := paginateByCursor(items, filter.GetStartingAfter(), filter.GetLimit(),
		func(p *plan.Plan) string { return p.ID })
	if err != nil {
		return nil, false, err
	}

	result := make([]*plan.Plan, 0, len(page))
	for _, p := range page {
		withPrices, err := s.withPrices(ctx, copyPlan(p))
		if err != nil {
			return nil, false, err
		}
		result = append(result, withPrices)
	}
	return result, hasMore, nil
}

func (s *InMemoryPlanStore) Update(ctx context.Context, p *plan.Plan) error {
	if _, err := s.Get(ctx, p.ID); err != nil {
		return err
	}
	return s.InMemoryStore.Update(ctx, p.ID, copyPlan(p))
}

func (s *InMemoryPlanStore) withPrices(ctx context.Context, p *plan.Plan) (*plan.Plan, error) {
	if s.prices == nil {
		return p, nil
	}
	prices, err := s.prices.ListByPlan(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Prices = prices
	return p, nil
}

func planInScope(ctx context.Context, p *plan.Plan) bool {
	return p != nil &&
		p.TenantID == types.GetTenantID(ctx) &&
		p.Mode == types.GetMode(ctx) &&
		p.Status == types.StatusPublished
}

func planFilterFn(ctx context.Context, p *plan.Plan, filter interface{}) bool {
	if !planInScope(ctx, p) {
		return false
	}
	f, ok := filter.(*types.PlanFilter)
	if !ok || f == nil {
		return true
	}
	if len(f.PlanStatus) > 0 && !lo.Contains(f.PlanStatus, p.PlanStatus) {
		return false
	}
	return true
}

func planSortFn(i, j *plan.Plan) bool {
	if !i.CreatedAt.Equal(j.CreatedAt) {
		return i.CreatedAt.After(j.CreatedAt)
	}
	return i.ID > j.ID
}
