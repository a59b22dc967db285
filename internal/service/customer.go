package service

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/api/dto"
	"github.com/cyclebill/cyclebill/internal/types"
)

type CustomerService interface {
	CreateCustomer(ctx context.Context, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error)
	GetCustomer(ctx context.Context, id string) (*dto.CustomerResponse, error)
	GetCustomerByLookupKey(ctx context.Context, lookupKey string) (*dto.CustomerResponse, error)
	ListCustomers(ctx context.Context, filter *types.QueryFilter) (*dto.ListCustomersResponse, error)
}

type customerService struct {
	ServiceParams
}

func NewCustomerService(params ServiceParams) CustomerService {
	return &customerService{ServiceParams: params}
}

func (s *customerService) CreateCustomer(ctx context.Context, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cust := req.ToCustomer(ctx)
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		return s.CustomerRepo.Create(ctx, cust)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("created customer", "customer_id", cust.ID)
	return &dto.CustomerResponse{Customer: cust}, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id string) (*dto.CustomerResponse, error) {
	cust, err := s.CustomerRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.CustomerResponse{Customer: cust}, nil
}

func (s *customerService) GetCustomerByLookupKey(ctx context.Context, lookupKey string) (*dto.CustomerResponse, error) {
	cust, err := s.CustomerRepo.GetByLookupKey(ctx, lookupKey)
	if err != nil {
		return nil, err
	}
	return &dto.CustomerResponse{Customer: cust}, nil
}

func (s *customerService) ListCustomers(ctx context.Context, filter *types.QueryFilter) (*dto.ListCustomersResponse, error) {
	if filter == nil {
		filter = types.NewDefaultQueryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	customers, hasMore, err := s.CustomerRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListCustomersResponse{
		Data:    make([]*dto.CustomerResponse, 0, len(customers)),
		HasMore: hasMore,
	}
	for _, c := range customers {
		resp.Data = append(resp.Data, &dto.CustomerResponse{Customer: c})
	}
	return resp, nil
}
