package postgres

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/domain/price"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/postgres"
	"github.com/cyclebill/cyclebill/internal/types"
)

type priceRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

func NewPriceRepository(db postgres.IClient, logger *logger.Logger) price.Repository {
	return &priceRepository{db: db, logger: logger}
}

const priceColumns = `
	id,
	plan_id,
	currency,
	unit_amount,
	pricing_model,
	tiers,
	metadata,
	tenant_id,
	mode,
	status,
	created_at,
	updated_at,
	created_by,
	updated_by
`

const priceInsertQuery = `
	INSERT INTO prices (` + priceColumns + `) VALUES (
		:id,
		:plan_id,
		:currency,
		:unit_amount,
		:pricing_model,
		:tiers,
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

func (r *priceRepository) Create(ctx context.Context, priceObj *price.Price) error {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return wrapDBError(err, "create price")
	}

	_, err := r.db.Querier(ctx).NamedExecContext(ctx, priceInsertQuery, priceObj)
	if err != nil {
		return wrapDBError(err, "create price")
	}
	return nil
}

func (r *priceRepository) CreateBulk(ctx context.Context, prices []*price.Price) error {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return wrapDBError(err, "create prices")
	}

	for _, priceObj := range prices {
		if _, err := r.db.Querier(ctx).NamedExecContext(ctx, priceInsertQuery, priceObj); err != nil {
			return wrapDBError(err, "create prices")
		}
	}
	return nil
}

func (r *priceRepository) Get(ctx context.Context, id string) (*price.Price, error) {
	query := `
		SELECT ` + priceColumns + `
		FROM prices
		WHERE id = $1 AND tenant_id = $2 AND mode = $3 AND status = $4
	`

	var priceObj price.Price
	err := r.db.Querier(ctx).GetContext(ctx, &priceObj, query,
		id, types.GetTenantID(ctx), types.GetMode(ctx), types.StatusPublished)
	if err != nil {
		if isNoRows(err) {
			return nil, priceNotFound("id", id)
		}
		return nil, wrapDBError(err, "get price")
	}
	return &priceObj, nil
}

func (r *priceRepository) ListByPlan(ctx context.Context, planID string) ([]*price.Price, error) {
	query := `
		SELECT ` + priceColumns + `
		FROM prices
		WHERE plan_id = $1 AND tenant_id = $2 AND mode = $3 AND status = $4
		ORDER BY currency ASC
	`

	var prices []*price.Price
	err := r.db.Querier(ctx).SelectContext(ctx, &prices, query,
		planID, types.GetTenantID(ctx), types.GetMode(ctx), types.StatusPublished)
	if err != nil {
		return nil, wrapDBError(err, "list prices by plan")
	}
	return prices, nil
}
