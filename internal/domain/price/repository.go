package price

import (
	"context"
)

// Repository defines the interface for price persistence.
// Prices are created with their plan and never updated; there is
// deliberately no Update method.
type Repository interface {
	Create(ctx context.Context, price *Price) error
	CreateBulk(ctx context.Context, prices []*Price) error
	Get(ctx context.Context, id string) (*Price, error)
	ListByPlan(ctx context.Context, planID string) ([]*Price, error)
}
