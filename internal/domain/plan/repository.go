package plan

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/types"
)

// Repository defines the interface for plan persistence.
// All operations are scoped by the tenant and mode carried in the context.
type Repository interface {
	Create(ctx context.Context, plan *Plan) error
	Get(ctx context.Context, id string) (*Plan, error)
	GetByLookupKey(ctx context.Context, lookupKey string) (*Plan, error)
	List(ctx context.Context, filter *types.PlanFilter) ([]*Plan, bool, error)
	Update(ctx context.Context, plan *Plan) error
}
