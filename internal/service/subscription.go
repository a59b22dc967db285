package service

import (
	"context"
	"time"

	"github.com/cyclebill/cyclebill/internal/api/dto"
	"github.com/cyclebill/cyclebill/internal/domain/plan"
	"github.com/cyclebill/cyclebill/internal/domain/subscription"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/types"
)

type SubscriptionService interface {
	CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	GetSubscriptionByLookupKey(ctx context.Context, lookupKey string) (*dto.SubscriptionResponse, error)
	UpdateSubscription(ctx context.Context, id string, req dto.UpdateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	ChangePlan(ctx context.Context, id string, req dto.ChangePlanRequest) (*dto.SubscriptionResponse, error)
	CancelSubscription(ctx context.Context, id string, req *dto.CancelSubscriptionRequest) (*dto.SubscriptionResponse, error)
	ReactivateSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	PauseSubscription(ctx context.Context, id string, req *dto.PauseSubscriptionRequest) (*dto.SubscriptionResponse, error)
	ResumeSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	ListSubscriptions(ctx context.Context, filter *types.SubscriptionFilter) (*dto.ListSubscriptionsResponse, error)

	// ActivateExpiredTrial moves a trialing subscription whose trial has
	// ended into its first paid period. Invoked by an external scheduler and
	// idempotent: an already active subscription is a no-op so the scheduler
	// may retry safely.
	ActivateExpiredTrial(ctx context.Context, id string) (*dto.SubscriptionResponse, error)

	// ProcessRenewal advances an active subscription whose billed period has
	// elapsed into the next period, or cancels it when a period-end
	// cancellation is scheduled. Invoked by an external scheduler.
	ProcessRenewal(ctx context.Context, id string) (*dto.SubscriptionResponse, error)

	// ListTrialsDue returns trialing subscriptions whose trial ended at or
	// before asOf, the scheduler's work queue for ActivateExpiredTrial.
	ListTrialsDue(ctx context.Context, asOf time.Time) ([]*subscription.Subscription, error)
}

type subscriptionService struct {
	ServiceParams
	priceService PriceService
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{
		ServiceParams: params,
		priceService:  NewPriceService(params.Logger),
	}
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.CustomerRepo.Get(ctx, req.CustomerID); err != nil {
		return nil, err
	}

	planObj, err := s.PlanRepo.Get(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if !planObj.IsActive() {
		return nil, ierr.NewError("plan does not accept new subscriptions").
			WithHint("The plan is not active").
			WithReportableDetails(map[string]any{
				"plan_id":     planObj.ID,
				"plan_status": planObj.PlanStatus,
			}).
			Mark(ierr.ErrValidation)
	}

	priceObj, err := s.priceService.ResolvePrice(ctx, planObj, req.Currency)
	if err != nil {
		return nil, err
	}

	sub := req.ToSubscription(ctx)
	sub.Items[0].PriceID = priceObj.ID
	sub.BillingPeriod = planObj.BillingPeriod
	sub.BillingPeriodCount = planObj.BillingPeriodCount

	now := time.Now().UTC()
	start := req.StartDate
	if start.IsZero() {
		start = now
	}
	sub.BillingAnchor = start

	trialEnd, err := s.resolveTrialEnd(req.TrialEnd, planObj, start, now)
	if err != nil {
		return nil, err
	}

	if trialEnd != nil {
		sub.SubscriptionStatus = types.SubscriptionStatusTrialing
		sub.TrialStart = &start
		sub.TrialEnd = trialEnd
		sub.CurrentPeriodStart = start
		sub.CurrentPeriodEnd = *trialEnd
	} else {
		periodEnd, err := types.NextBillingDate(start, sub.BillingPeriodCount, sub.BillingPeriod)
		if err != nil {
			return nil, err
		}
		sub.SubscriptionStatus = types.SubscriptionStatusActive
		sub.CurrentPeriodStart = start
		sub.CurrentPeriodEnd = periodEnd
	}

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		return s.SubRepo.Create(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("created subscription",
		"subscription_id", sub.ID,
		"customer_id", sub.CustomerID,
		"plan_id", sub.PlanID(),
		"subscription_status", sub.SubscriptionStatus,
	)
	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

// resolveTrialEnd picks the trial window end: an explicit trial end wins over
// the plan default, and no trial at all is a valid outcome (nil).
func (s *subscriptionService) resolveTrialEnd(explicit *time.Time, planObj *plan.Plan, start, now time.Time) (*time.Time, error) {
	if explicit != nil {
		if !explicit.After(now) {
			return nil, ierr.NewError("trial end must be in the future").
				WithHint("Provide a trial end date after the current time").
				WithReportableDetails(map[string]any{
					"trial_end": *explicit,
				}).
				Mark(ierr.ErrValidation)
		}
		// The trial window doubles as the first billing period, so its end
		// must fall strictly after the subscription start.
		if !explicit.After(start) {
			return nil, ierr.NewError("trial end must be after the start date").
				WithHint("Provide a trial end date after the subscription start date").
				WithReportableDetails(map[string]any{
					"start_date": start,
					"trial_end":  *explicit,
				}).
				Mark(ierr.ErrValidation)
		}
		end := explicit.UTC()
		return &end, nil
	}
	if planObj.TrialPeriodDays > 0 {
		end := types.AddClampedDate(start, 0, 0, planObj.TrialPeriodDays)
		return &end, nil
	}
	return nil, nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

func (s *subscriptionService) GetSubscriptionByLookupKey(ctx context.Context, lookupKey string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.GetByLookupKey(ctx, lookupKey)
	if err != nil {
		return nil, err
	}
	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

func (s *subscriptionService) UpdateSubscription(ctx context.Context, id string, req dto.UpdateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated *subscription.Subscription
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		sub, err := s.SubRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if sub.SubscriptionStatus == types.SubscriptionStatusCancelled {
			return ierr.NewError("cannot update a canceled subscription").
				WithHint("Canceled subscriptions are immutable").
				WithReportableDetails(map[string]any{
					"subscription_id": sub.ID,
				}).
				Mark(ierr.ErrValidation)
		}

		patch := req.ToPatch()
		if patch.IsEmpty() {
			updated = sub
			return nil
		}
		updated = patch.Apply(sub)
		return s.SubRepo.Update(ctx, updated)
	})
	if err != nil {
		return nil, err
	}
	return &dto.SubscriptionResponse{Subscription: updated}, nil
}

func (s *subscriptionService) ChangePlan(ctx context.Context, id string, req dto.ChangePlanRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated *subscription.Subscription
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		sub, err := s.SubRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if sub.SubscriptionStatus != types.SubscriptionStatusActive &&
			sub.SubscriptionStatus != types.SubscriptionStatusTrialing {
			return ierr.NewError("cannot change plan in current status").
				WithHint("Plan changes are allowed only on active or trialing subscriptions").
				WithReportableDetails(map[string]any{
					"subscription_id":     sub.ID,
					"subscription_status": sub.SubscriptionStatus,
				}).
				Mark(ierr.ErrValidation)
		}

		newPlan, err := s.PlanRepo.Get(ctx, req.PlanID)
		if err != nil {
			return err
		}
		if !newPlan.IsActive() {
			return ierr.NewError("plan does not accept new subscriptions").
				WithHint("The plan is not active").
				WithReportableDetails(map[string]any{
					"plan_id":     newPlan.ID,
					"plan_status": newPlan.PlanStatus,
				}).
				Mark(ierr.ErrValidation)
		}

		// The subscription's currency is pinned; the new plan must sell in it
		newPrice, err := s.priceService.ResolvePrice(ctx, newPlan, sub.Currency)
		if err != nil {
			return err
		}

		sub.Items[0].PlanID = newPlan.ID
		sub.Items[0].PriceID = newPrice.ID
		sub.BillingPeriod = newPlan.BillingPeriod
		sub.BillingPeriodCount = newPlan.BillingPeriodCount

		if req.Immediate {
			now := time.Now().UTC()
			periodEnd, err := types.NextBillingDate(now, newPlan.BillingPeriodCount, newPlan.BillingPeriod)
			if err != nil {
				return err
			}
			sub.CurrentPeriodStart = now
			sub.CurrentPeriodEnd = periodEnd
			sub.BillingAnchor = now
		}

		updated = sub
		return s.SubRepo.Update(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("changed subscription plan",
		"subscription_id", updated.ID,
		"plan_id", updated.PlanID(),
		"immediate", req.Immediate,
	)
	return &dto.SubscriptionResponse{Subscription: updated}, nil
}

func (s *subscriptionService) CancelSubscription(ctx context.Context, id string, req *dto.CancelSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	var updated *subscription.Subscription
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		sub, err := s.SubRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if sub.SubscriptionStatus == types.SubscriptionStatusCancelled {
			return ierr.NewError("subscription is already canceled").
				WithHint("The subscription has already been canceled").
				WithReportableDetails(map[string]any{
					"subscription_id": sub.ID,
				}).
				Mark(ierr.ErrValidation)
		}

		now := time.Now().UTC()
		if req.GetAtPeriodEnd() {
			sub.CancelAtPeriodEnd = true
			cancelAt := sub.CurrentPeriodEnd
			sub.CancelAt = &cancelAt
		} else {
			if !sub.SubscriptionStatus.CanTransitionTo(types.SubscriptionStatusCancelled) {
				return ierr.NewError("cannot cancel subscription in current status").
					WithReportableDetails(map[string]any{
						"subscription_id":     sub.ID,
						"subscription_status": sub.SubscriptionStatus,
					}).
					Mark(ierr.ErrValidation)
			}
			sub.SubscriptionStatus = types.SubscriptionStatusCancelled
			sub.CancelledAt = &now
			sub.CancelAt = &now
		}
		if req != nil {
			sub.CancellationReason = req.Reason
		}

		updated = sub
		return s.SubRepo.Update(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("canceled subscription",
		"subscription_id", updated.ID,
		"at_period_end", req.GetAtPeriodEnd(),
	)
	return &dto.SubscriptionResponse{Subscription: updated}, nil
}

func (s *subscriptionService) ReactivateSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	var updated *subscription.Subscription
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		sub, err := s.SubRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if sub.SubscriptionStatus == types.SubscriptionStatusCancelled {
			return ierr.NewError("cannot reactivate a canceled subscription").
				WithHint("Create a new subscription instead").
				WithReportableDetails(map[string]any{
					"subscription_id": sub.ID,
				}).
				Mark(ierr.ErrValidation)
		}
		if !sub.CancelAtPeriodEnd {
			return ierr.NewError("subscription has no pending cancellation").
				WithHint("Only subscriptions scheduled to cancel at period end can be reactivated").
				WithReportableDetails(map[string]any{
					"subscription_id": sub.ID,
				}).
				Mark(ierr.ErrValidation)
		}

		sub.CancelAtPeriodEnd = false
		sub.CancelAt = nil
		sub.CancellationReason = ""

		updated = sub
		return s.SubRepo.Update(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("reactivated subscription", "subscription_id", updated.ID)
	return &dto.SubscriptionResponse{Subscription: updated}, nil
}

func (s *subscriptionService) PauseSubscription(ctx context.Context, id string, req *dto.PauseSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	var updated *subscription.Subscription
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		sub, err := s.SubRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if !sub.SubscriptionStatus.CanTransitionTo(types.SubscriptionStatusPaused) {
			return ierr.NewError("cannot pause subscription in current status").
				WithHint("Only active subscriptions can be paused").
				WithReportableDetails(map[string]any{
					"subscription_id":     sub.ID,
					"subscription_status": sub.SubscriptionStatus,
				}).
				Mark(ierr.ErrValidation)
		}

		now := time.Now().UTC()
		if req != nil && req.PauseEnd != nil && !req.PauseEnd.After(now) {
			return ierr.NewError("pause end must be in the future").
				WithReportableDetails(map[string]any{
					"pause_end": *req.PauseEnd,
				}).
				Mark(ierr.ErrValidation)
		}

		sub.SubscriptionStatus = types.SubscriptionStatusPaused
		sub.PauseStart = &now
		if req != nil {
			sub.PauseEnd = req.PauseEnd
		}

		updated = sub
		return s.SubRepo.Update(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("paused subscription", "subscription_id", updated.ID)
	return &dto.SubscriptionResponse{Subscription: updated}, nil
}

func (s *subscriptionService) ResumeSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	var updated *subscription.Subscription
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		sub, err := s.SubRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if sub.SubscriptionStatus != types.SubscriptionStatusPaused {
			return ierr.NewError("cannot resume subscription in current status").
				WithHint("Only paused subscriptions can be resumed").
				WithReportableDetails(map[string]any{
					"subscription_id":     sub.ID,
					"subscription_status": sub.SubscriptionStatus,
				}).
				Mark(ierr.ErrValidation)
		}

		// Resuming starts a fresh full period; no credit is carried over from
		// the period interrupted by the pause.
		now := time.Now().UTC()
		periodEnd, err := types.NextBillingDate(now, sub.BillingPeriodCount, sub.BillingPeriod)
		if err != nil {
			return err
		}

		sub.SubscriptionStatus = types.SubscriptionStatusActive
		sub.CurrentPeriodStart = now
		sub.CurrentPeriodEnd = periodEnd
		sub.PauseStart = nil
		sub.PauseEnd = nil

		updated = sub
		return s.SubRepo.Update(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("resumed subscription", "subscription_id", updated.ID)
	return &dto.SubscriptionResponse{Subscription: updated}, nil
}

func (s *subscriptionService) ActivateExpiredTrial(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	var updated *subscription.Subscription
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		sub, err := s.SubRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		// Scheduler retries land here after a successful activation
		if sub.SubscriptionStatus == types.SubscriptionStatusActive {
			updated = sub
			return nil
		}

		if sub.SubscriptionStatus != types.SubscriptionStatusTrialing || sub.TrialEnd == nil {
			return ierr.NewError("subscription is not in a trial").
				WithReportableDetails(map[string]any{
					"subscription_id":     sub.ID,
					"subscription_status": sub.SubscriptionStatus,
				}).
				Mark(ierr.ErrValidation)
		}

		now := time.Now().UTC()
		if sub.TrialEnd.After(now) {
			return ierr.NewError("trial has not ended yet").
				WithReportableDetails(map[string]any{
					"subscription_id": sub.ID,
					"trial_end":       *sub.TrialEnd,
				}).
				Mark(ierr.ErrValidation)
		}

		// The paid period starts exactly where the trial ended, not at the
		// instant the scheduler got around to this row.
		periodStart := *sub.TrialEnd
		periodEnd, err := types.NextBillingDate(periodStart, sub.BillingPeriodCount, sub.BillingPeriod)
		if err != nil {
			return err
		}

		sub.SubscriptionStatus = types.SubscriptionStatusActive
		sub.CurrentPeriodStart = periodStart
		sub.CurrentPeriodEnd = periodEnd

		updated = sub
		return s.SubRepo.Update(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("activated trial subscription", "subscription_id", updated.ID)
	return &dto.SubscriptionResponse{Subscription: updated}, nil
}

func (s *subscriptionService) ProcessRenewal(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	var updated *subscription.Subscription
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		sub, err := s.SubRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if sub.SubscriptionStatus != types.SubscriptionStatusActive {
			return ierr.NewError("cannot renew subscription in current status").
				WithHint("Only active subscriptions renew").
				WithReportableDetails(map[string]any{
					"subscription_id":     sub.ID,
					"subscription_status": sub.SubscriptionStatus,
				}).
				Mark(ierr.ErrValidation)
		}

		now := time.Now().UTC()
		if sub.CurrentPeriodEnd.After(now) {
			return ierr.NewError("billing period has not elapsed").
				WithReportableDetails(map[string]any{
					"subscription_id":    sub.ID,
					"current_period_end": sub.CurrentPeriodEnd,
				}).
				Mark(ierr.ErrValidation)
		}

		if sub.CancelAtPeriodEnd {
			sub.SubscriptionStatus = types.SubscriptionStatusCancelled
			sub.CancelledAt = &now
			updated = sub
			return s.SubRepo.Update(ctx, sub)
		}

		// The next period is anchored at the old period end so boundaries
		// stay aligned however late the scheduler runs
		periodStart := sub.CurrentPeriodEnd
		periodEnd, err := types.NextBillingDate(periodStart, sub.BillingPeriodCount, sub.BillingPeriod)
		if err != nil {
			return err
		}
		sub.CurrentPeriodStart = periodStart
		sub.CurrentPeriodEnd = periodEnd

		updated = sub
		return s.SubRepo.Update(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("processed subscription renewal",
		"subscription_id", updated.ID,
		"subscription_status", updated.SubscriptionStatus,
		"current_period_end", updated.CurrentPeriodEnd,
	)
	return &dto.SubscriptionResponse{Subscription: updated}, nil
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, filter *types.SubscriptionFilter) (*dto.ListSubscriptionsResponse, error) {
	if filter == nil {
		filter = types.NewSubscriptionFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	subs, hasMore, err := s.SubRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListSubscriptionsResponse{
		Data:    make([]*dto.SubscriptionResponse, 0, len(subs)),
		HasMore: hasMore,
	}
	for _, sub := range subs {
		resp.Data = append(resp.Data, &dto.SubscriptionResponse{Subscription: sub})
	}
	return resp, nil
}

func (s *subscriptionService) ListTrialsDue(ctx context.Context, asOf time.Time) ([]*subscription.Subscription, error) {
	return s.SubRepo.ListTrialsDue(ctx, asOf)
}
