package service

import (
	"context"
	"time"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/domain/usage"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
)

type UsageService interface {
	CreateUsage(ctx context.Context, req dto.CreateUsageRequest) (*dto.UsageResponse, error)
	ListUsage(ctx context.Context, customerID string, filter *types.UsageFilter) (*dto.ListUsageResponse, error)
}

type usageService struct {
	ServiceParams
}

func NewUsageService(params ServiceParams) UsageService {
	return &usageService{ServiceParams: params}
}

func (s *usageService) CreateUsage(ctx context.Context, req dto.CreateUsageRequest) (*dto.UsageResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.CustomerRepo.Get(ctx, req.CustomerID); err != nil {
		return nil, err
	}
	if _, err := lookupPlan(ctx, s.ServiceParams, req.PlanID); err != nil {
		return nil, err
	}

	record := req.ToRecord(ctx, time.Now().UTC())
	if err := s.UsageRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.Logger.Debugw("recorded usage",
		"usage_id", record.ID,
		"customer_id", record.CustomerID,
		"plan_id", record.PlanID,
		"amount", record.Amount.String(),
	)
	return &dto.UsageResponse{Record: record}, nil
}

func (s *usageService) ListUsage(ctx context.Context, customerID string, filter *types.UsageFilter) (*dto.ListUsageResponse, error) {
	if filter == nil {
		filter = types.NewUsageFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.CustomerRepo.Get(ctx, customerID); err != nil {
		return nil, err
	}
	filter.CustomerID = customerID

	records, err := s.UsageRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(records, func(r *usage.Record, _ int) *dto.UsageResponse {
		return &dto.UsageResponse{Record: r}
	})
	resp := types.NewListResponse(items, len(items), filter.GetLimit(), filter.GetOffset())
	return &resp, nil
}
