package service

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/cache"
	"github.com/flexprice/subscription-billing/internal/domain/plan"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
)

type PlanService interface {
	CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error)
	GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error)
	GetPlans(ctx context.Context, filter *types.PlanFilter) (*dto.ListPlansResponse, error)
	UpdatePlan(ctx context.Context, id string, req dto.UpdatePlanRequest) (*dto.PlanResponse, error)
	DeletePlan(ctx context.Context, id string) error
}

type planService struct {
	ServiceParams
}

func NewPlanService(params ServiceParams) PlanService {
	return &planService{
		ServiceParams: params,
	}
}

func (s *planService) CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := req.ToPlan(ctx)
	if err := s.PlanRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.Logger.Infow("created plan", "plan_id", p.ID, "price", p.Price.String())
	return &dto.PlanResponse{Plan: p}, nil
}

func (s *planService) GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error) {
	if id == "" {
		return nil, ierr.NewError("plan_id is required").
			WithHint("Plan ID is required").
			Mark(ierr.ErrValidation)
	}

	p, err := lookupPlan(ctx, s.ServiceParams, id)
	if err != nil {
		return nil, err
	}
	return &dto.PlanResponse{Plan: p}, nil
}

func (s *planService) GetPlans(ctx context.Context, filter *types.PlanFilter) (*dto.ListPlansResponse, error) {
	if filter == nil {
		filter = types.NewPlanFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	plans, err := s.PlanRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.PlanRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(plans, func(p *plan.Plan, _ int) *dto.PlanResponse {
		return &dto.PlanResponse{Plan: p}
	})
	resp := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &resp, nil
}

// UpdatePlan changes the catalog entry. Invoices keep the name and price they were issued with.
func (s *planService) UpdatePlan(ctx context.Context, id string, req dto.UpdatePlanRequest) (*dto.PlanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.PlanRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Apply(p)
	p.Touch(ctx)

	if err := s.PlanRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixPlan, id))

	return &dto.PlanResponse{Plan: p}, nil
}

func (s *planService) DeletePlan(ctx context.Context, id string) error {
	if err := s.PlanRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixPlan, id))
	return nil
}

// lookupPlan reads a plan through the catalog cache. Callers receive their own copy.
func lookupPlan(ctx context.Context, params ServiceParams, id string) (*plan.Plan, error) {
	key := cache.GenerateKey(cache.PrefixPlan, id)
	if cached, ok := params.Cache.Get(ctx, key); ok {
		if p, ok := cached.(plan.Plan); ok {
			return &p, nil
		}
	}

	p, err := params.PlanRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	params.Cache.Set(ctx, key, *p, 0)
	return p, nil
}
