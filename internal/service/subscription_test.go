package service

import (
	"testing"
	"time"

	"github.com/cyclebill/cyclebill/internal/api/dto"
	"github.com/cyclebill/cyclebill/internal/domain/customer"
	"github.com/cyclebill/cyclebill/internal/domain/plan"
	"github.com/cyclebill/cyclebill/internal/domain/price"
	"github.com/cyclebill/cyclebill/internal/domain/subscription"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/testutil"
	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type SubscriptionServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  SubscriptionService
	testData struct {
		customer *customer.Customer
		plan     *plan.Plan
		prices   struct {
			usd *price.Price
			eur *price.Price
		}
	}
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewSubscriptionService(ServiceParams{
		Logger:       s.GetLogger(),
		Config:       s.GetConfig(),
		DB:           s.GetDB(),
		SubRepo:      s.GetStores().SubscriptionRepo,
		PlanRepo:     s.GetStores().PlanRepo,
		PriceRepo:    s.GetStores().PriceRepo,
		CustomerRepo: s.GetStores().CustomerRepo,
	})
	s.setupTestData()
}

func (s *SubscriptionServiceSuite) setupTestData() {
	ctx := s.GetContext()

	s.testData.customer = &customer.Customer{
		ID:        "cust_123",
		Name:      "Test Customer",
		Email:     "test@example.com",
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().CustomerRepo.Create(ctx, s.testData.customer))

	s.testData.plan = &plan.Plan{
		ID:                 "plan_123",
		Name:               "Pro Plan",
		BillingPeriod:      types.BILLING_PERIOD_MONTH,
		BillingPeriodCount: 1,
		PlanStatus:         types.PlanStatusActive,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PlanRepo.Create(ctx, s.testData.plan))

	s.testData.prices.usd = &price.Price{
		ID:           "price_usd",
		PlanID:       s.testData.plan.ID,
		Currency:     "USD",
		UnitAmount:   2000,
		PricingModel: types.PRICING_MODEL_FLAT,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}
	s.testData.prices.eur = &price.Price{
		ID:           "price_eur",
		PlanID:       s.testData.plan.ID,
		Currency:     "EUR",
		UnitAmount:   1800,
		PricingModel: types.PRICING_MODEL_FLAT,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PriceRepo.CreateBulk(ctx,
		[]*price.Price{s.testData.prices.usd, s.testData.prices.eur}))
}

// createSubscription is a fixture helper writing directly to the store so
// tests can start from any lifecycle state
func (s *SubscriptionServiceSuite) createSubscription(status types.SubscriptionStatus, mutate func(*subscription.Subscription)) *subscription.Subscription {
	ctx := s.GetContext()
	now := s.GetNow()
	periodEnd, err := types.NextBillingDate(now, 1, types.BILLING_PERIOD_MONTH)
	s.NoError(err)

	sub := &subscription.Subscription{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		CustomerID: s.testData.customer.ID,
		Currency:   "USD",
		Items: subscription.JSONBItems{
			{PlanID: s.testData.plan.ID, PriceID: s.testData.prices.usd.ID, Quantity: 1},
		},
		SubscriptionStatus: status,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   periodEnd,
		BillingAnchor:      now,
		BillingPeriod:      types.BILLING_PERIOD_MONTH,
		BillingPeriodCount: 1,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	if mutate != nil {
		mutate(sub)
	}
	s.NoError(s.GetStores().SubscriptionRepo.Create(ctx, sub))
	return sub
}

func (s *SubscriptionServiceSuite) TestCreateSubscription() {
	resp, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: s.testData.customer.ID,
		PlanID:     s.testData.plan.ID,
		Currency:   "usd",
		Quantity:   3,
	})
	s.NoError(err)
	s.NotNil(resp)

	s.Equal(types.SubscriptionStatusActive, resp.SubscriptionStatus)
	s.Equal("USD", resp.Currency)
	s.Equal(s.testData.plan.ID, resp.PlanID())
	s.Equal(s.testData.prices.usd.ID, resp.PriceID())
	s.Equal(int64(3), resp.Quantity())
	s.True(resp.CurrentPeriodEnd.After(resp.CurrentPeriodStart))
	s.Nil(resp.TrialEnd)
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionCalendarPeriod() {
	// One month from Jan 31 lands on the last day of February, not March
	start := time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC)

	resp, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: s.testData.customer.ID,
		PlanID:     s.testData.plan.ID,
		Currency:   "USD",
		StartDate:  start,
	})
	s.NoError(err)
	s.Equal(start, resp.CurrentPeriodStart)
	s.Equal(time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC), resp.CurrentPeriodEnd)
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionWithPlanTrial() {
	ctx := s.GetContext()
	trialPlan := &plan.Plan{
		ID:                 "plan_trial",
		Name:               "Trial Plan",
		BillingPeriod:      types.BILLING_PERIOD_MONTH,
		BillingPeriodCount: 1,
		TrialPeriodDays:    14,
		PlanStatus:         types.PlanStatusActive,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PlanRepo.Create(ctx, trialPlan))
	s.NoError(s.GetStores().PriceRepo.Create(ctx, &price.Price{
		ID:           "price_trial_usd",
		PlanID:       trialPlan.ID,
		Currency:     "USD",
		UnitAmount:   1000,
		PricingModel: types.PRICING_MODEL_FLAT,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}))

	resp, err := s.service.CreateSubscription(ctx, dto.CreateSubscriptionRequest{
		CustomerID: s.testData.customer.ID,
		PlanID:     trialPlan.ID,
		Currency:   "USD",
	})
	s.NoError(err)

	s.Equal(types.SubscriptionStatusTrialing, resp.SubscriptionStatus)
	s.NotNil(resp.TrialStart)
	s.NotNil(resp.TrialEnd)
	s.Equal(resp.TrialStart.AddDate(0, 0, 14), *resp.TrialEnd)
	// During trial the billed period is the trial window
	s.Equal(*resp.TrialEnd, resp.CurrentPeriodEnd)
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionWithExplicitTrialEnd() {
	trialEnd := s.GetNow().Add(72 * time.Hour).Truncate(time.Second)

	resp, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: s.testData.customer.ID,
		PlanID:     s.testData.plan.ID,
		Currency:   "USD",
		TrialEnd:   &trialEnd,
	})
	s.NoError(err)
	s.Equal(types.SubscriptionStatusTrialing, resp.SubscriptionStatus)
	s.Equal(trialEnd, *resp.TrialEnd)
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionTrialEndInPast() {
	past := s.GetNow().Add(-time.Hour)

	resp, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: s.testData.customer.ID,
		PlanID:     s.testData.plan.ID,
		Currency:   "USD",
		TrialEnd:   &past,
	})
	s.Error(err)
	s.Nil(resp)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionTrialEndBeforeStartDate() {
	// A trial end in the future but before a future start date would invert
	// both the trial window and the first billing period
	start := s.GetNow().Add(30 * 24 * time.Hour)
	trialEnd := s.GetNow().Add(24 * time.Hour)

	resp, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: s.testData.customer.ID,
		PlanID:     s.testData.plan.ID,
		Currency:   "USD",
		StartDate:  start,
		TrialEnd:   &trialEnd,
	})
	s.Error(err)
	s.Nil(resp)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionMissingReferences() {
	_, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: "cust_missing",
		PlanID:     s.testData.plan.ID,
		Currency:   "USD",
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))

	_, err = s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: s.testData.customer.ID,
		PlanID:     "plan_missing",
		Currency:   "USD",
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionArchivedPlan() {
	ctx := s.GetContext()
	archived := &plan.Plan{
		ID:                 "plan_archived",
		Name:               "Old Plan",
		BillingPeriod:      types.BILLING_PERIOD_MONTH,
		BillingPeriodCount: 1,
		PlanStatus:         types.PlanStatusArchived,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PlanRepo.Create(ctx, archived))

	_, err := s.service.CreateSubscription(ctx, dto.CreateSubscriptionRequest{
		CustomerID: s.testData.customer.ID,
		PlanID:     archived.ID,
		Currency:   "USD",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionUnsupportedCurrency() {
	_, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: s.testData.customer.ID,
		PlanID:     s.testData.plan.ID,
		Currency:   "GBP",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionDuplicateLookupKey() {
	req := dto.CreateSubscriptionRequest{
		CustomerID: s.testData.customer.ID,
		PlanID:     s.testData.plan.ID,
		Currency:   "USD",
		LookupKey:  "sub-ext-1",
	}

	_, err := s.service.CreateSubscription(s.GetContext(), req)
	s.NoError(err)

	_, err = s.service.CreateSubscription(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *SubscriptionServiceSuite) TestGetSubscriptionByLookupKey() {
	created := s.createSubscription(types.SubscriptionStatusActive, func(sub *subscription.Subscription) {
		sub.LookupKey = "sub-ext-42"
	})

	resp, err := s.service.GetSubscriptionByLookupKey(s.GetContext(), "sub-ext-42")
	s.NoError(err)
	s.Equal(created.ID, resp.ID)

	_, err = s.service.GetSubscriptionByLookupKey(s.GetContext(), "sub-ext-nope")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *SubscriptionServiceSuite) TestUpdateSubscription() {
	created := s.createSubscription(types.SubscriptionStatusActive, nil)

	resp, err := s.service.UpdateSubscription(s.GetContext(), created.ID, dto.UpdateSubscriptionRequest{
		Quantity:  lo.ToPtr(int64(5)),
		LookupKey: lo.ToPtr("sub-ext-new"),
		Metadata:  lo.ToPtr(types.Metadata{"seat_owner": "ops"}),
	})
	s.NoError(err)
	s.Equal(int64(5), resp.Quantity())
	s.Equal("sub-ext-new", resp.LookupKey)
	s.Equal("ops", resp.Metadata["seat_owner"])
	// Only the listed mutable fields change
	s.Equal(created.CurrentPeriodEnd, resp.CurrentPeriodEnd)
	s.Equal(created.SubscriptionStatus, resp.SubscriptionStatus)
}

func (s *SubscriptionServiceSuite) TestUpdateCanceledSubscription() {
	created := s.createSubscription(types.SubscriptionStatusCancelled, nil)

	_, err := s.service.UpdateSubscription(s.GetContext(), created.ID, dto.UpdateSubscriptionRequest{
		Quantity: lo.ToPtr(int64(5)),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestChangePlanDeferred() {
	ctx := s.GetContext()
	newPlan := &plan.Plan{
		ID:                 "plan_year",
		Name:               "Annual Plan",
		BillingPeriod:      types.BILLING_PERIOD_YEAR,
		BillingPeriodCount: 1,
		PlanStatus:         types.PlanStatusActive,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PlanRepo.Create(ctx, newPlan))
	s.NoError(s.GetStores().PriceRepo.Create(ctx, &price.Price{
		ID:           "price_year_usd",
		PlanID:       newPlan.ID,
		Currency:     "USD",
		UnitAmount:   20000,
		PricingModel: types.PRICING_MODEL_FLAT,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}))

	created := s.createSubscription(types.SubscriptionStatusActive, nil)

	resp, err := s.service.ChangePlan(ctx, created.ID, dto.ChangePlanRequest{PlanID: newPlan.ID})
	s.NoError(err)

	s.Equal(newPlan.ID, resp.PlanID())
	s.Equal("price_year_usd", resp.PriceID())
	s.Equal(int64(1), resp.Quantity())
	s.Equal(types.BILLING_PERIOD_YEAR, resp.BillingPeriod)
	// Deferred change keeps the already billed period untouched
	s.Equal(created.CurrentPeriodStart, resp.CurrentPeriodStart)
	s.Equal(created.CurrentPeriodEnd, resp.CurrentPeriodEnd)
	s.Equal(created.SubscriptionStatus, resp.SubscriptionStatus)
}

func (s *SubscriptionServiceSuite) TestChangePlanImmediate() {
	ctx := s.GetContext()
	newPlan := &plan.Plan{
		ID:                 "plan_week",
		Name:               "Weekly Plan",
		BillingPeriod:      types.BILLING_PERIOD_WEEK,
		BillingPeriodCount: 1,
		PlanStatus:         types.PlanStatusActive,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PlanRepo.Create(ctx, newPlan))
	s.NoError(s.GetStores().PriceRepo.Create(ctx, &price.Price{
		ID:           "price_week_usd",
		PlanID:       newPlan.ID,
		Currency:     "USD",
		UnitAmount:   700,
		PricingModel: types.PRICING_MODEL_FLAT,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}))

	created := s.createSubscription(types.SubscriptionStatusActive, nil)

	resp, err := s.service.ChangePlan(ctx, created.ID, dto.ChangePlanRequest{
		PlanID:    newPlan.ID,
		Immediate: true,
	})
	s.NoError(err)

	s.Equal(newPlan.ID, resp.PlanID())
	s.True(resp.CurrentPeriodStart.After(created.CurrentPeriodStart) ||
		resp.CurrentPeriodStart.Equal(created.CurrentPeriodStart))
	s.Equal(resp.CurrentPeriodStart.AddDate(0, 0, 7), resp.CurrentPeriodEnd)
}

func (s *SubscriptionServiceSuite) TestChangePlanCurrencyNotSold() {
	ctx := s.GetContext()
	// EUR-only plan cannot take over a USD-pinned subscription
	eurPlan := &plan.Plan{
		ID:                 "plan_eur_only",
		Name:               "EUR Plan",
		BillingPeriod:      types.BILLING_PERIOD_MONTH,
		BillingPeriodCount: 1,
		PlanStatus:         types.PlanStatusActive,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PlanRepo.Create(ctx, eurPlan))
	s.NoError(s.GetStores().PriceRepo.Create(ctx, &price.Price{
		ID:           "price_eur_only",
		PlanID:       eurPlan.ID,
		Currency:     "EUR",
		UnitAmount:   900,
		PricingModel: types.PRICING_MODEL_FLAT,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}))

	created := s.createSubscription(types.SubscriptionStatusActive, nil)

	_, err := s.service.ChangePlan(ctx, created.ID, dto.ChangePlanRequest{PlanID: eurPlan.ID})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestChangePlanOnPausedSubscription() {
	created := s.createSubscription(types.SubscriptionStatusPaused, nil)

	_, err := s.service.ChangePlan(s.GetContext(), created.ID, dto.ChangePlanRequest{
		PlanID: s.testData.plan.ID,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestCancelAtPeriodEnd() {
	created := s.createSubscription(types.SubscriptionStatusActive, nil)

	resp, err := s.service.CancelSubscription(s.GetContext(), created.ID, &dto.CancelSubscriptionRequest{
		Reason: "too expensive",
	})
	s.NoError(err)

	// Still active until the period runs out
	s.Equal(types.SubscriptionStatusActive, resp.SubscriptionStatus)
	s.True(resp.CancelAtPeriodEnd)
	s.NotNil(resp.CancelAt)
	s.Equal(created.CurrentPeriodEnd, *resp.CancelAt)
	s.Nil(resp.CancelledAt)
	s.Equal("too expensive", resp.CancellationReason)
}

func (s *SubscriptionServiceSuite) TestCancelImmediate() {
	created := s.createSubscription(types.SubscriptionStatusActive, nil)

	resp, err := s.service.CancelSubscription(s.GetContext(), created.ID, &dto.CancelSubscriptionRequest{
		AtPeriodEnd: lo.ToPtr(false),
	})
	s.NoError(err)

	s.Equal(types.SubscriptionStatusCancelled, resp.SubscriptionStatus)
	s.NotNil(resp.CancelledAt)
	s.NotNil(resp.CancelAt)
}

func (s *SubscriptionServiceSuite) TestCancelAlreadyCanceled() {
	created := s.createSubscription(types.SubscriptionStatusCancelled, nil)

	_, err := s.service.CancelSubscription(s.GetContext(), created.ID, nil)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestReactivate() {
	created := s.createSubscription(types.SubscriptionStatusActive, func(sub *subscription.Subscription) {
		sub.CancelAtPeriodEnd = true
		sub.CancelAt = &sub.CurrentPeriodEnd
		sub.CancellationReason = "switching vendors"
	})

	resp, err := s.service.ReactivateSubscription(s.GetContext(), created.ID)
	s.NoError(err)

	s.False(resp.CancelAtPeriodEnd)
	s.Nil(resp.CancelAt)
	s.Empty(resp.CancellationReason)
	s.Equal(types.SubscriptionStatusActive, resp.SubscriptionStatus)
}

func (s *SubscriptionServiceSuite) TestReactivateWithoutPendingCancellation() {
	created := s.createSubscription(types.SubscriptionStatusActive, nil)

	_, err := s.service.ReactivateSubscription(s.GetContext(), created.ID)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestPauseAndResume() {
	created := s.createSubscription(types.SubscriptionStatusActive, nil)

	paused, err := s.service.PauseSubscription(s.GetContext(), created.ID, nil)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusPaused, paused.SubscriptionStatus)
	s.NotNil(paused.PauseStart)

	resumed, err := s.service.ResumeSubscription(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, resumed.SubscriptionStatus)
	s.Nil(resumed.PauseStart)
	s.Nil(resumed.PauseEnd)
	// Resume starts a fresh full period from now
	s.True(resumed.CurrentPeriodStart.After(created.CurrentPeriodStart) ||
		resumed.CurrentPeriodStart.Equal(created.CurrentPeriodStart))
	s.True(resumed.CurrentPeriodEnd.After(resumed.CurrentPeriodStart))
}

func (s *SubscriptionServiceSuite) TestPauseTrialingSubscription() {
	created := s.createSubscription(types.SubscriptionStatusTrialing, nil)

	_, err := s.service.PauseSubscription(s.GetContext(), created.ID, nil)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestPauseEndInPast() {
	created := s.createSubscription(types.SubscriptionStatusActive, nil)
	past := s.GetNow().Add(-time.Hour)

	_, err := s.service.PauseSubscription(s.GetContext(), created.ID, &dto.PauseSubscriptionRequest{
		PauseEnd: &past,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestResumeActiveSubscription() {
	created := s.createSubscription(types.SubscriptionStatusActive, nil)

	_, err := s.service.ResumeSubscription(s.GetContext(), created.ID)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestActivateExpiredTrial() {
	trialEnd := s.GetNow().Add(-2 * time.Hour).Truncate(time.Second)
	trialStart := trialEnd.AddDate(0, 0, -14)
	created := s.createSubscription(types.SubscriptionStatusTrialing, func(sub *subscription.Subscription) {
		sub.TrialStart = &trialStart
		sub.TrialEnd = &trialEnd
		sub.CurrentPeriodStart = trialStart
		sub.CurrentPeriodEnd = trialEnd
	})

	resp, err := s.service.ActivateExpiredTrial(s.GetContext(), created.ID)
	s.NoError(err)

	s.Equal(types.SubscriptionStatusActive, resp.SubscriptionStatus)
	// The paid period starts where the trial ended, not at activation time
	s.Equal(trialEnd, resp.CurrentPeriodStart)
	s.Equal(types.AddClampedDate(trialEnd, 0, 1, 0), resp.CurrentPeriodEnd)
}

func (s *SubscriptionServiceSuite) TestActivateExpiredTrialIdempotent() {
	trialEnd := s.GetNow().Add(-2 * time.Hour).Truncate(time.Second)
	trialStart := trialEnd.AddDate(0, 0, -14)
	created := s.createSubscription(types.SubscriptionStatusTrialing, func(sub *subscription.Subscription) {
		sub.TrialStart = &trialStart
		sub.TrialEnd = &trialEnd
		sub.CurrentPeriodStart = trialStart
		sub.CurrentPeriodEnd = trialEnd
	})

	first, err := s.service.ActivateExpiredTrial(s.GetContext(), created.ID)
	s.NoError(err)

	// A scheduler retry on the already active row is a documented no-op
	second, err := s.service.ActivateExpiredTrial(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(first.SubscriptionStatus, second.SubscriptionStatus)
	s.Equal(first.CurrentPeriodEnd, second.CurrentPeriodEnd)
}

func (s *SubscriptionServiceSuite) TestActivateTrialNotEnded() {
	trialEnd := s.GetNow().Add(48 * time.Hour)
	trialStart := s.GetNow()
	created := s.createSubscription(types.SubscriptionStatusTrialing, func(sub *subscription.Subscription) {
		sub.TrialStart = &trialStart
		sub.TrialEnd = &trialEnd
		sub.CurrentPeriodEnd = trialEnd
	})

	_, err := s.service.ActivateExpiredTrial(s.GetContext(), created.ID)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestProcessRenewal() {
	periodStart := s.GetNow().AddDate(0, -1, 0)
	periodEnd := s.GetNow().Add(-time.Hour).Truncate(time.Second)
	created := s.createSubscription(types.SubscriptionStatusActive, func(sub *subscription.Subscription) {
		sub.CurrentPeriodStart = periodStart
		sub.CurrentPeriodEnd = periodEnd
	})

	resp, err := s.service.ProcessRenewal(s.GetContext(), created.ID)
	s.NoError(err)

	s.Equal(types.SubscriptionStatusActive, resp.SubscriptionStatus)
	// New period is anchored at the old period end
	s.Equal(periodEnd, resp.CurrentPeriodStart)
	s.Equal(types.AddClampedDate(periodEnd, 0, 1, 0), resp.CurrentPeriodEnd)
}

func (s *SubscriptionServiceSuite) TestProcessRenewalHonorsPendingCancellation() {
	periodEnd := s.GetNow().Add(-time.Hour)
	created := s.createSubscription(types.SubscriptionStatusActive, func(sub *subscription.Subscription) {
		sub.CurrentPeriodStart = s.GetNow().AddDate(0, -1, 0)
		sub.CurrentPeriodEnd = periodEnd
		sub.CancelAtPeriodEnd = true
		sub.CancelAt = &periodEnd
	})

	resp, err := s.service.ProcessRenewal(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, resp.SubscriptionStatus)
	s.NotNil(resp.CancelledAt)
}

func (s *SubscriptionServiceSuite) TestProcessRenewalPeriodNotElapsed() {
	created := s.createSubscription(types.SubscriptionStatusActive, nil)

	_, err := s.service.ProcessRenewal(s.GetContext(), created.ID)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestListSubscriptions() {
	for i := 0; i < 3; i++ {
		s.createSubscription(types.SubscriptionStatusActive, nil)
	}
	s.createSubscription(types.SubscriptionStatusCancelled, nil)

	resp, err := s.service.ListSubscriptions(s.GetContext(), &types.SubscriptionFilter{
		QueryFilter: &types.QueryFilter{Limit: lo.ToPtr(10)},
		SubscriptionStatus: []types.SubscriptionStatus{
			types.SubscriptionStatusActive,
		},
	})
	s.NoError(err)
	s.Len(resp.Data, 3)
	s.False(resp.HasMore)
}

func (s *SubscriptionServiceSuite) TestListSubscriptionsPagination() {
	for i := 0; i < 5; i++ {
		s.createSubscription(types.SubscriptionStatusActive, nil)
	}

	page, err := s.service.ListSubscriptions(s.GetContext(), &types.SubscriptionFilter{
		QueryFilter: &types.QueryFilter{Limit: lo.ToPtr(2)},
	})
	s.NoError(err)
	s.Len(page.Data, 2)
	s.True(page.HasMore)

	// Walk the remaining pages through the cursor
	cursor := page.Data[len(page.Data)-1].ID
	seen := len(page.Data)
	for page.HasMore {
		page, err = s.service.ListSubscriptions(s.GetContext(), &types.SubscriptionFilter{
			QueryFilter: &types.QueryFilter{
				Limit:         lo.ToPtr(2),
				StartingAfter: lo.ToPtr(cursor),
			},
		})
		s.NoError(err)
		seen += len(page.Data)
		if len(page.Data) > 0 {
			cursor = page.Data[len(page.Data)-1].ID
		}
	}
	s.Equal(5, seen)
}

func (s *SubscriptionServiceSuite) TestListSubscriptionsUnknownCursor() {
	s.createSubscription(types.SubscriptionStatusActive, nil)

	_, err := s.service.ListSubscriptions(s.GetContext(), &types.SubscriptionFilter{
		QueryFilter: &types.QueryFilter{
			Limit:         lo.ToPtr(2),
			StartingAfter: lo.ToPtr("subs_nonexistent"),
		},
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *SubscriptionServiceSuite) TestListSubscriptionsByCustomer() {
	ctx := s.GetContext()
	other := &customer.Customer{
		ID:        "cust_other",
		Name:      "Other Customer",
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().CustomerRepo.Create(ctx, other))

	s.createSubscription(types.SubscriptionStatusActive, nil)
	s.createSubscription(types.SubscriptionStatusActive, func(sub *subscription.Subscription) {
		sub.CustomerID = other.ID
	})

	resp, err := s.service.ListSubscriptions(ctx, &types.SubscriptionFilter{
		QueryFilter: &types.QueryFilter{Limit: lo.ToPtr(10)},
		CustomerID:  other.ID,
	})
	s.NoError(err)
	s.Len(resp.Data, 1)
	s.Equal(other.ID, resp.Data[0].CustomerID)
}

func (s *SubscriptionServiceSuite) TestListTrialsDue() {
	pastTrialEnd := s.GetNow().Add(-time.Hour)
	futureTrialEnd := s.GetNow().Add(48 * time.Hour)

	due := s.createSubscription(types.SubscriptionStatusTrialing, func(sub *subscription.Subscription) {
		sub.TrialEnd = &pastTrialEnd
		sub.CurrentPeriodEnd = pastTrialEnd
	})
	s.createSubscription(types.SubscriptionStatusTrialing, func(sub *subscription.Subscription) {
		sub.TrialEnd = &futureTrialEnd
		sub.CurrentPeriodEnd = futureTrialEnd
	})

	subs, err := s.service.ListTrialsDue(s.GetContext(), s.GetNow())
	s.NoError(err)
	s.Len(subs, 1)
	s.Equal(due.ID, subs[0].ID)
}
