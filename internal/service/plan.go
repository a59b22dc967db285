package service

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/api/dto"
	"github.com/cyclebill/cyclebill/internal/domain/plan"
	"github.com/cyclebill/cyclebill/internal/domain/price"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/types"
)

type PlanService interface {
	CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error)
	GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error)
	GetPlanByLookupKey(ctx context.Context, lookupKey string) (*dto.PlanResponse, error)
	ListPlans(ctx context.Context, filter *types.PlanFilter) (*dto.ListPlansResponse, error)

	// ArchivePlan stops the plan from accepting new subscriptions. Existing
	// subscriptions keep their back-reference and renew untouched.
	ArchivePlan(ctx context.Context, id string) (*dto.PlanResponse, error)
}

type planService struct {
	ServiceParams
}

func NewPlanService(params ServiceParams) PlanService {
	return &planService{ServiceParams: params}
}

func (s *planService) CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	planObj := req.ToPlan(ctx)

	prices := make([]*price.Price, 0, len(req.Prices))
	for _, pr := range req.Prices {
		priceObj := pr.ToPrice(ctx, planObj.ID)
		if err := priceObj.Validate(); err != nil {
			return nil, err
		}
		prices = append(prices, priceObj)
	}

	// Plan and its price definitions land together or not at all
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.PlanRepo.Create(ctx, planObj); err != nil {
			return err
		}
		return s.PriceRepo.CreateBulk(ctx, prices)
	})
	if err != nil {
		return nil, err
	}
	planObj.Prices = prices

	s.Logger.Infow("created plan",
		"plan_id", planObj.ID,
		"name", planObj.Name,
		"prices", len(prices),
	)
	return &dto.PlanResponse{Plan: planObj}, nil
}

func (s *planService) GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error) {
	planObj, err := s.PlanRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.PlanResponse{Plan: planObj}, nil
}

func (s *planService) GetPlanByLookupKey(ctx context.Context, lookupKey string) (*dto.PlanResponse, error) {
	planObj, err := s.PlanRepo.GetByLookupKey(ctx, lookupKey)
	if err != nil {
		return nil, err
	}
	return &dto.PlanResponse{Plan: planObj}, nil
}

func (s *planService) ListPlans(ctx context.Context, filter *types.PlanFilter) (*dto.ListPlansResponse, error) {
	if filter == nil {
		filter = types.NewPlanFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	plans, hasMore, err := s.PlanRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListPlansResponse{
		Data:    make([]*dto.PlanResponse, 0, len(plans)),
		HasMore: hasMore,
	}
	for _, p := range plans {
		resp.Data = append(resp.Data, &dto.PlanResponse{Plan: p})
	}
	return resp, nil
}

func (s *planService) ArchivePlan(ctx context.Context, id string) (*dto.PlanResponse, error) {
	var archived *plan.Plan
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		planObj, err := s.PlanRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if planObj.PlanStatus == types.PlanStatusArchived {
			return ierr.NewError("plan is already archived").
				WithReportableDetails(map[string]any{
					"plan_id": planObj.ID,
				}).
				Mark(ierr.ErrValidation)
		}

		planObj.PlanStatus = types.PlanStatusArchived
		archived = planObj
		return s.PlanRepo.Update(ctx, planObj)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("archived plan", "plan_id", archived.ID)
	return &dto.PlanResponse{Plan: archived}, nil
}
