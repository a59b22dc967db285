package customer

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/types"
)

// Repository defines the interface for customer data access.
// All operations are scoped by the tenant and mode carried in the context.
type Repository interface {
	Create(ctx context.Context, customer *Customer) error
	Get(ctx context.Context, id string) (*Customer, error)
	GetByLookupKey(ctx context.Context, lookupKey string) (*Customer, error)
	List(ctx context.Context, filter *types.QueryFilter) ([]*Customer, bool, error)
}
