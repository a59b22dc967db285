package testutil

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/domain/customer"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/samber/lo"
)

// InMemoryCustomerStore implements customer.Repository
type InMemoryCustomerStore struct {
	*InMemoryStore[*customer.Customer]
}

// NewInMemoryCustomerStore creates a new in-memory customer store
func NewInMemoryCustomerStore() *InMemoryCustomerStore {
	return &InMemoryCustomerStore{
		InMemoryStore: NewInMemoryStore[*customer.Customer](),
	}
}

func copyCustomer(c *customer.Customer) *customer.Customer {
	if c == nil {
		return nil
	}
	copied := *c
	copied.Metadata = lo.Assign(types.Metadata{}, c.Metadata)
	return &copied
}

func (s *InMemoryCustomerStore) Create(ctx context.Context, c *customer.Customer) error {
	if c.LookupKey != "" {
		if existing, err := s.GetByLookupKey(ctx, c.LookupKey); err == nil && existing != nil {
			return ierr.NewError("customer lookup key already exists").
				WithHint("Lookup keys are unique per tenant and mode").
				Mark(ierr.ErrAlreadyExists)
		}
	}
	return s.InMemoryStore.Create(ctx, c.ID, copyCustomer(c))
}

func (s *InMemoryCustomerStore) Get(ctx context.Context, id string) (*customer.Customer, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !customerInScope(ctx, c) {
		return nil, ierr.NewError("customer not found").
			WithHint("No customer exists for the given id").
			Mark(ierr.ErrNotFound)
	}
	return copyCustomer(c), nil
}

func (s *InMemoryCustomerStore) GetByLookupKey(ctx context.Context, lookupKey string) (*customer.Customer, error) {
	filterFn := func(ctx context.Context, c *customer.Customer, _ interface{}) bool {
		return customerInScope(ctx, c) && c.LookupKey == lookupKey
	}

	customers, err := s.InMemoryStore.List(ctx, nil, filterFn, nil)
	if err != nil || len(customers) == 0 {
		return nil, ierr.NewError("customer not found").
			WithHint("No customer exists for the given lookup key").
			Mark(ierr.ErrNotFound)
	}
	return copyCustomer(customers[0]), nil
}

func (s *InMemoryCustomerStore) List(ctx context.Context, filter *types.QueryFilter) ([]*customer.Customer, bool, error) {
	if filter == nil {
		filter = types.NewDefaultQueryFilter()
	}

	items, err := s.InMemoryStore.List(ctx, filter, customerFilterFn, customerSortFn)
	if err != nil {
		return nil, false, err
	}

	page, hasMore, err := paginateByCursor(items, filter.GetStartingAfter(), filter.GetLimit(),
		func(c *customer.Customer) string { return c.ID })
	if err != nil {
		return nil, false, err
	}

	return lo.Map(page, func(c *customer.Customer, _ int) *customer.Customer {
		return copyCustomer(c)
	}), hasMore, nil
}

func customerInScope(ctx context.Context, c *customer.Customer) bool {
	return c != nil &&
		c.TenantID == types.GetTenantID(ctx) &&
		c.Mode == types.GetMode(ctx) &&
		c.Status == types.StatusPublished
}

func customerFilterFn(ctx context.Context, c *customer.Customer, _ interface{}) bool {
	return customerInScope(ctx, c)
}

// customerSortFn sorts by created_at desc, id desc to mirror the database
// ordering
func customerSortFn(i, j *customer.Customer) bool {
	if !i.CreatedAt.Equal(j.CreatedAt) {
		return i.CreatedAt.After(j.CreatedAt)
	}
	return i.ID > j.ID
}
