package postgres

import (
	"context"
	"fmt"

	"github.com/cyclebill/cyclebill/internal/domain/customer"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/postgres"
	"github.com/cyclebill/cyclebill/internal/types"
)

type customerRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

func NewCustomerRepository(db postgres.IClient, logger *logger.Logger) customer.Repository {
	return &customerRepository{db: db, logger: logger}
}

const customerColumns = `
	id,
	lookup_key,
	name,
	email,
	metadata,
	tenant_id,
	mode,
	status,
	created_at,
	updated_at,
	created_by,
	updated_by
`

func (r *customerRepository) Create(ctx context.Context, cust *customer.Customer) error {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return wrapDBError(err, "create customer")
	}

	if cust.LookupKey != "" {
		if existing, err := r.GetByLookupKey(ctx, cust.LookupKey); err == nil && existing != nil {
			return lookupKeyConflict("customer", cust.LookupKey)
		}
	}

	query := `
		INSERT INTO customers (` + customerColumns + `) VALUES (
			:id,
			:lookup_key,
			:name,
			:email,
			:metadata,
			:tenant_id,
			:mode,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)
	`

	_, err := r.db.Querier(ctx).NamedExecContext(ctx, query, cust)
	if err != nil {
		if isUniqueViolation(err) {
			return lookupKeyConflict("customer", cust.LookupKey)
		}
		return wrapDBError(err, "create customer")
	}
	return nil
}

func (r *customerRepository) Get(ctx context.Context, id string) (*customer.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE id = $1 AND tenant_id = $2 AND mode = $3 AND status = $4
	`

	var cust customer.Customer
	err := r.db.Querier(ctx).GetContext(ctx, &cust, query,
		id, types.GetTenantID(ctx), types.GetMode(ctx), types.StatusPublished)
	if err != nil {
		if isNoRows(err) {
			return nil, customerNotFound("id", id)
		}
		return nil, wrapDBError(err, "get customer")
	}
	return &cust, nil
}

func (r *customerRepository) GetByLookupKey(ctx context.Context, lookupKey string) (*customer.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE lookup_key = $1 AND tenant_id = $2 AND mode = $3 AND status = $4
	`

	var cust customer.Customer
	err := r.db.Querier(ctx).GetContext(ctx, &cust, query,
		lookupKey, types.GetTenantID(ctx), types.GetMode(ctx), types.StatusPublished)
	if err != nil {
		if isNoRows(err) {
			return nil, customerNotFound("lookup_key", lookupKey)
		}
		return nil, wrapDBError(err, "get customer by lookup key")
	}
	return &cust, nil
}

func (r *customerRepository) List(ctx context.Context, filter *types.QueryFilter) ([]*customer.Customer, bool, error) {
	if filter == nil {
		filter = types.NewDefaultQueryFilter()
	}

	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE tenant_id = $1 AND mode = $2 AND status = $3
	`
	args := []interface{}{types.GetTenantID(ctx), types.GetMode(ctx), filter.GetStatus()}

	if cursor := filter.GetStartingAfter(); cursor != "" {
		anchor, err := r.Get(ctx, cursor)
		if err != nil {
			return nil, false, err
		}
		args = append(args, anchor.CreatedAt, anchor.ID)
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", len(args)-1, len(args))
	}

	limit := filter.GetLimit()
	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	var customers []*customer.Customer
	if err := r.db.Querier(ctx).SelectContext(ctx, &customers, query, args...); err != nil {
		return nil, false, wrapDBError(err, "list customers")
	}

	hasMore := len(customers) > limit
	if hasMore {
		customers = customers[:limit]
	}
	return customers, hasMore, nil
}
