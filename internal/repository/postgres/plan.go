package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cyclebill/cyclebill/internal/domain/plan"
	"github.com/cyclebill/cyclebill/internal/domain/price"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/postgres"
	"github.com/cyclebill/cyclebill/internal/types"
)

type planRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

func NewPlanRepository(db postgres.IClient, logger *logger.Logger) plan.Repository {
	return &planRepository{db: db, logger: logger}
}

const planColumns = `
	id,
	lookup_key,
	name,
	description,
	billing_period,
	billing_period_count,
	trial_period_days,
	plan_status,
	features,
	metadata,
	tenant_id,
	mode,
	status,
	created_at,
	updated_at,
	created_by,
	updated_by
`

func (r *planRepository) Create(ctx context.Context, planObj *plan.Plan) error {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return wrapDBError(err, "create plan")
	}

	if planObj.LookupKey != "" {
		if existing, err := r.GetByLookupKey(ctx, planObj.LookupKey); err == nil && existing != nil {
			return lookupKeyConflict("plan", planObj.LookupKey)
		}
	}

	query := `
		INSERT INTO plans (` + planColumns + `) VALUES (
			:id,
			:lookup_key,
			:name,
			:description,
			:billing_period,
			:billing_period_count,
			:trial_period_days,
			:plan_status,
			:features,
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

	_, err := r.db.Querier(ctx).NamedExecContext(ctx, query, planObj)
	if err != nil {
		if isUniqueViolation(err) {
			return lookupKeyConflict("plan", planObj.LookupKey)
		}
		return wrapDBError(err, "create plan")
	}
	return nil
}

func (r *planRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM plans
		WHERE id = $1 AND tenant_id = $2 AND mode = $3 AND status = $4
	`

	var planObj plan.Plan
	err := r.db.Querier(ctx).GetContext(ctx, &planObj, query,
		id, types.GetTenantID(ctx), types.GetMode(ctx), types.StatusPublished)
	if err != nil {
		if isNoRows(err) {
			return nil, planNotFound("id", id)
		}
		return nil, wrapDBError(err, "get plan")
	}

	if err := r.attachPrices(ctx, &planObj); err != nil {
		return nil, err
	}
	return &planObj, nil
}

func (r *planRepository) GetByLookupKey(ctx context.Context, lookupKey string) (*plan.Plan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM plans
		WHERE lookup_key = $1 AND tenant_id = $2 AND mode = $3 AND status = $4
	`

	var planObj plan.Plan
	err := r.db.Querier(ctx).GetContext(ctx, &planObj, query,
		lookupKey, types.GetTenantID(ctx), types.GetMode(ctx), types.StatusPublished)
	if err != nil {
		if isNoRows(err) {
			return nil, planNotFound("lookup_key", lookupKey)
		}
		return nil, wrapDBError(err, "get plan by lookup key")
	}

	if err := r.attachPrices(ctx, &planObj); err != nil {
		return nil, err
	}
	return &planObj, nil
}

// attachPrices loads the plan's per-currency price definitions alongside the
// plan row
func (r *planRepository) attachPrices(ctx context.Context, planObj *plan.Plan) error {
	query := `
		SELECT ` + priceColumns + `
		FROM prices
		WHERE plan_id = $1 AND tenant_id = $2 AND mode = $3 AND status = $4
		ORDER BY currency ASC
	`

	var prices []*price.Price
	err := r.db.Querier(ctx).SelectContext(ctx, &prices, query,
		planObj.ID, types.GetTenantID(ctx), types.GetMode(ctx), types.StatusPublished)
	if err != nil {
		return wrapDBError(err, "load plan prices")
	}
	planObj.Prices = prices
	return nil
}

func (r *planRepository) List(ctx context.Context, filter *types.PlanFilter) ([]*plan.Plan, bool, error) {
	if filter == nil {
		filter = types.NewPlanFilter()
	}

	query := `
		SELECT ` + planColumns + `
		FROM plans
		WHERE tenant_id = $1 AND mode = $2 AND status = $3
	`
	args := []interface{}{types.GetTenantID(ctx), types.GetMode(ctx), types.StatusPublished}

	if len(filter.PlanStatus) > 0 {
		placeholders := make([]string, 0, len(filter.PlanStatus))
		for _, status := range filter.PlanStatus {
			args = append(args, status)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		query += " AND plan_status IN (" + strings.Join(placeholders, ", ") + ")"
	}

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

	var plans []*plan.Plan
	if err := r.db.Querier(ctx).SelectContext(ctx, &plans, query, args...); err != nil {
		return nil, false, wrapDBError(err, "list plans")
	}

	hasMore := len(plans) > limit
	if hasMore {
		plans = plans[:limit]
	}

	for _, p := range plans {
		if err := r.attachPrices(ctx, p); err != nil {
			return nil, false, err
		}
	}
	return plans, hasMore, nil
}

func (r *planRepository) Update(ctx context.Context, planObj *plan.Plan) error {
	planObj.UpdatedAt = time.Now().UTC()
	planObj.UpdatedBy = types.GetUserID(ctx)

	query := `
		UPDATE plans SET
			lookup_key = :lookup_key,
			name = :name,
			description = :description,
			trial_period_days = :trial_period_days,
			plan_status = :plan_status,
			features = :features,
			metadata = :metadata,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND mode = :mode
	`

	result, err := r.db.Querier(ctx).NamedExecContext(ctx, query, planObj)
	if err != nil {
		if isUniqueViolation(err) {
			return lookupKeyConflict("plan", planObj.LookupKey)
		}
		return wrapDBError(err, "update plan")
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return planNotFound("id", planObj.ID)
	}
	return nil
}
