package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cyclebill/cyclebill/internal/domain/subscription"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/postgres"
	"github.com/cyclebill/cyclebill/internal/types"
)

type subscriptionRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

func NewSubscriptionRepository(db postgres.IClient, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

const subscriptionColumns = `
	id,
	lookup_key,
	customer_id,
	items,
	currency,
	subscription_status,
	current_period_start,
	current_period_end,
	trial_start,
	trial_end,
	cancel_at,
	cancelled_at,
	cancel_at_period_end,
	cancellation_reason,
	pause_start,
	pause_end,
	billing_anchor,
	billing_period,
	billing_period_count,
	metadata,
	tenant_id,
	mode,
	status,
	created_at,
	updated_at,
	created_by,
	updated_by
`

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return wrapDBError(err, "create subscription")
	}

	if sub.LookupKey != "" {
		if existing, err := r.GetByLookupKey(ctx, sub.LookupKey); err == nil && existing != nil {
			return lookupKeyConflict("subscription", sub.LookupKey)
		}
	}

	query := `
		INSERT INTO subscriptions (` + subscriptionColumns + `) VALUES (
			:id,
			:lookup_key,
			:customer_id,
			:items,
			:currency,
			:subscription_status,
			:current_period_start,
			:current_period_end,
			:trial_start,
			:trial_end,
			:cancel_at,
			:cancelled_at,
			:cancel_at_period_end,
			:cancellation_reason,
			:pause_start,
			:pause_end,
			:billing_anchor,
			:billing_period,
			:billing_period_count,
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

	_, err := r.db.Querier(ctx).NamedExecContext(ctx, query, sub)
	if err != nil {
		if isUniqueViolation(err) {
			return lookupKeyConflict("subscription", sub.LookupKey)
		}
		return wrapDBError(err, "create subscription")
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE id = $1 AND tenant_id = $2 AND mode = $3 AND status = $4
	`

	var sub subscription.Subscription
	err := r.db.Querier(ctx).GetContext(ctx, &sub, query,
		id, types.GetTenantID(ctx), types.GetMode(ctx), types.StatusPublished)
	if err != nil {
		if isNoRows(err) {
			return nil, subscriptionNotFound("id", id)
		}
		return nil, wrapDBError(err, "get subscription")
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetByLookupKey(ctx context.Context, lookupKey string) (*subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE lookup_key = $1 AND tenant_id = $2 AND mode = $3 AND status = $4
	`

	var sub subscription.Subscription
	err := r.db.Querier(ctx).GetContext(ctx, &sub, query,
		lookupKey, types.GetTenantID(ctx), types.GetMode(ctx), types.StatusPublished)
	if err != nil {
		if isNoRows(err) {
			return nil, subscriptionNotFound("lookup_key", lookupKey)
		}
		return nil, wrapDBError(err, "get subscription by lookup key")
	}
	return &sub, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	if sub.LookupKey != "" {
		existing, err := r.GetByLookupKey(ctx, sub.LookupKey)
		if err == nil && existing != nil && existing.ID != sub.ID {
			return lookupKeyConflict("subscription", sub.LookupKey)
		}
	}

	sub.UpdatedAt = time.Now().UTC()
	sub.UpdatedBy = types.GetUserID(ctx)

	query := `
		UPDATE subscriptions SET
			lookup_key = :lookup_key,
			items = :items,
			subscription_status = :subscription_status,
			current_period_start = :current_period_start,
			current_period_end = :current_period_end,
			trial_start = :trial_start,
			trial_end = :trial_end,
			cancel_at = :cancel_at,
			cancelled_at = :cancelled_at,
			cancel_at_period_end = :cancel_at_period_end,
			cancellation_reason = :cancellation_reason,
			pause_start = :pause_start,
			pause_end = :pause_end,
			billing_anchor = :billing_anchor,
			billing_period = :billing_period,
			billing_period_count = :billing_period_count,
			metadata = :metadata,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND mode = :mode
	`

	result, err := r.db.Querier(ctx).NamedExecContext(ctx, query, sub)
	if err != nil {
		if isUniqueViolation(err) {
			return lookupKeyConflict("subscription", sub.LookupKey)
		}
		return wrapDBError(err, "update subscription")
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return subscriptionNotFound("id", sub.ID)
	}
	return nil
}

func (r *subscriptionRepository) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, bool, error) {
	if filter == nil {
		filter = types.NewSubscriptionFilter()
	}

	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE tenant_id = $1 AND mode = $2 AND status = $3
	`
	args := []interface{}{types.GetTenantID(ctx), types.GetMode(ctx), types.StatusPublished}

	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if filter.PlanID != "" {
		// The plan binding lives in the items blob
		args = append(args, filter.PlanID)
		query += fmt.Sprintf(" AND items->0->>'plan_id' = $%d", len(args))
	}
	if len(filter.SubscriptionStatus) > 0 {
		placeholders := make([]string, 0, len(filter.SubscriptionStatus))
		for _, status := range filter.SubscriptionStatus {
			args = append(args, status)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		query += " AND subscription_status IN (" + strings.Join(placeholders, ", ") + ")"
	}

	if cursor := filter.GetStartingAfter(); cursor != "" {
		anchor, err := r.Get(ctx, cursor)
		if err != nil {
			return nil, false, err
		}
		args = append(args, anchor.CreatedAt, anchor.ID)
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", len(args)-1, len(args))
	}

	// One extra row tells us whether another page exists
	limit := filter.GetLimit()
	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	var subs []*subscription.Subscription
	if err := r.db.Querier(ctx).SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, false, wrapDBError(err, "list subscriptions")
	}

	hasMore := len(subs) > limit
	if hasMore {
		subs = subs[:limit]
	}
	return subs, hasMore, nil
}

func (r *subscriptionRepository) ListTrialsDue(ctx context.Context, asOf time.Time) ([]*subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE tenant_id = $1 AND mode = $2 AND status = $3
			AND subscription_status = $4
			AND trial_end IS NOT NULL AND trial_end <= $5
		ORDER BY trial_end ASC
	`

	var subs []*subscription.Subscription
	err := r.db.Querier(ctx).SelectContext(ctx, &subs, query,
		types.GetTenantID(ctx), types.GetMode(ctx), types.StatusPublished,
		types.SubscriptionStatusTrialing, asOf)
	if err != nil {
		return nil, wrapDBError(err, "list trials due")
	}
	return subs, nil
}
