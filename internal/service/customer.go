package service

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/domain/customer"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
)

type CustomerService interface {
	CreateCustomer(ctx context.Context, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error)
	GetCustomer(ctx context.Context, id string) (*dto.CustomerResponse, error)
	GetCustomers(ctx context.Context, filter *types.CustomerFilter) (*dto.ListCustomersResponse, error)
	UpdateCustomer(ctx context.Context, id string, req dto.UpdateCustomerRequest) (*dto.CustomerResponse, error)
	DeleteCustomer(ctx context.Context, id string) error
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

	if req.Email != "" {
		filter := types.NewNoLimitCustomerFilter()
		filter.Email = req.Email
		count, err := s.CustomerRepo.Count(ctx, filter)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ierr.NewError("customer with this email already exists").
				WithHint("A customer with this email already exists").
				WithReportableDetails(map[string]any{
					"email": req.Email,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
	}

	c := req.ToCustomer(ctx)
	if err := s.CustomerRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.Logger.Infow("created customer", "customer_id", c.ID)
	return &dto.CustomerResponse{Customer: c}, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id string) (*dto.CustomerResponse, error) {
	if id == "" {
		return nil, ierr.NewError("customer_id is required").
			WithHint("Customer ID is required").
			Mark(ierr.ErrValidation)
	}

	c, err := s.CustomerRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.CustomerResponse{Customer: c}, nil
}

func (s *customerService) GetCustomers(ctx context.Context, filter *types.CustomerFilter) (*dto.ListCustomersResponse, error) {
	if filter == nil {
		filter = types.NewCustomerFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	customers, err := s.CustomerRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.CustomerRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(customers, func(c *customer.Customer, _ int) *dto.CustomerResponse {
		return &dto.CustomerResponse{Customer: c}
	})
	resp := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &resp, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, id string, req dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.CustomerRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Apply(c)
	c.Touch(ctx)

	if err := s.CustomerRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return &dto.CustomerResponse{Customer: c}, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, id string) error {
	return s.CustomerRepo.Delete(ctx, id)
}
