package dto

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/domain/customer"
	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/cyclebill/cyclebill/internal/validator"
)

type CreateCustomerRequest struct {
	Name      string         `json:"name" validate:"required"`
	Email     string         `json:"email,omitempty" validate:"omitempty,email"`
	LookupKey string         `json:"lookup_key,omitempty"`
	Metadata  types.Metadata `json:"metadata,omitempty"`
}

func (r *CreateCustomerRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *CreateCustomerRequest) ToCustomer(ctx context.Context) *customer.Customer {
	return &customer.Customer{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER),
		Name:      r.Name,
		Email:     r.Email,
		LookupKey: r.LookupKey,
		Metadata:  r.Metadata,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
}

type CustomerResponse struct {
	*customer.Customer
}

// ListCustomersResponse is a cursor-paginated page of customers
type ListCustomersResponse = types.ListResponse[*CustomerResponse]
