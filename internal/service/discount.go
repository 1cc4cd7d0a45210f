package service

import (
	"context"
	"time"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/domain/discount"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
)

type DiscountService interface {
	// Resolve looks a discount up by code, then by name, among the customer's own
	// discounts and the catalog. The customer's copy wins. A miss returns nil without error.
	Resolve(ctx context.Context, code, customerID string) (*discount.Discount, error)

	CreateDiscount(ctx context.Context, req dto.CreateDiscountRequest) (*dto.DiscountResponse, error)
	GetDiscount(ctx context.Context, id string) (*dto.DiscountResponse, error)
	ListDiscounts(ctx context.Context, filter *types.DiscountFilter) (*dto.ListDiscountsResponse, error)
	ListDiscountsByCustomer(ctx context.Context, customerID string) (*dto.ListDiscountsResponse, error)
	UpdateDiscount(ctx context.Context, id string, req dto.UpdateDiscountRequest) (*dto.DiscountResponse, error)
	DeleteDiscount(ctx context.Context, id string) error
	ApplyDiscountToAllCustomers(ctx context.Context, id string) (*dto.ApplyDiscountResponse, error)
}

type discountService struct {
	ServiceParams
}

func NewDiscountService(params ServiceParams) DiscountService {
	return &discountService{ServiceParams: params}
}

func (s *discountService) Resolve(ctx context.Context, code, customerID string) (*discount.Discount, error) {
	if code == "" {
		return nil, nil
	}

	d, err := s.DiscountRepo.GetByCode(ctx, code, customerID)
	if err == nil {
		return d, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, err
	}

	d, err = s.DiscountRepo.GetByName(ctx, code, customerID)
	if err == nil {
		return d, nil
	}
	if ierr.IsNotFound(err) {
		s.Logger.Debugw("discount code did not match any discount", "code", code, "customer_id", customerID)
		return nil, nil
	}
	return nil, err
}

func (s *discountService) CreateDiscount(ctx context.Context, req dto.CreateDiscountRequest) (*dto.DiscountResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	d := req.ToDiscount(ctx)
	if d.CustomerID != nil {
		if _, err := s.CustomerRepo.Get(ctx, *d.CustomerID); err != nil {
			return nil, err
		}
	}

	if err := s.DiscountRepo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.Logger.Infow("created discount", "discount_id", d.ID, "code", d.Code, "type", d.DiscountType)
	return dto.NewDiscountResponse(d, time.Now().UTC()), nil
}

func (s *discountService) GetDiscount(ctx context.Context, id string) (*dto.DiscountResponse, error) {
	d, err := s.DiscountRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewDiscountResponse(d, time.Now().UTC()), nil
}

func (s *discountService) ListDiscounts(ctx context.Context, filter *types.DiscountFilter) (*dto.ListDiscountsResponse, error) {
	if filter == nil {
		filter = types.NewDiscountFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	discounts, err := s.DiscountRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.DiscountRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	items := lo.Map(discounts, func(d *discount.Discount, _ int) *dto.DiscountResponse {
		return dto.NewDiscountResponse(d, now)
	})
	resp := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &resp, nil
}

func (s *discountService) ListDiscountsByCustomer(ctx context.Context, customerID string) (*dto.ListDiscountsResponse, error) {
	if _, err := s.CustomerRepo.Get(ctx, customerID); err != nil {
		return nil, err
	}

	filter := types.NewNoLimitDiscountFilter()
	filter.CustomerID = customerID
	return s.ListDiscounts(ctx, filter)
}

func (s *discountService) UpdateDiscount(ctx context.Context, id string, req dto.UpdateDiscountRequest) (*dto.DiscountResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	d, err := s.DiscountRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := req.Apply(d); err != nil {
		return nil, err
	}
	d.Touch(ctx)

	if err := s.DiscountRepo.Update(ctx, d); err != nil {
		return nil, err
	}
	return dto.NewDiscountResponse(d, time.Now().UTC()), nil
}

func (s *discountService) DeleteDiscount(ctx context.Context, id string) error {
	return s.DiscountRepo.Delete(ctx, id)
}

// ApplyDiscountToAllCustomers clones a catalog discount into one owned copy per customer
func (s *discountService) ApplyDiscountToAllCustomers(ctx context.Context, id string) (*dto.ApplyDiscountResponse, error) {
	template, err := s.DiscountRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !template.IsTemplate() {
		return nil, ierr.NewError("discount already belongs to a customer").
			WithHint("Only catalog discounts can be applied to all customers").
			WithReportableDetails(map[string]any{
				"discount_id": id,
				"customer_id": lo.FromPtr(template.CustomerID),
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	customers, err := s.CustomerRepo.List(ctx, types.NewNoLimitCustomerFilter())
	if err != nil {
		return nil, err
	}

	clones := make([]*discount.Discount, 0, len(customers))
	for _, c := range customers {
		clones = append(clones, template.CloneForCustomer(c.ID, types.GetDefaultBaseModel(ctx)))
	}

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if len(clones) == 0 {
			return nil
		}
		return s.DiscountRepo.CreateBulk(ctx, clones)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("applied discount to all customers",
		"discount_id", id,
		"customers", len(clones),
	)

	now := time.Now().UTC()
	return &dto.ApplyDiscountResponse{
		TemplateID: id,
		Count:      len(clones),
		Discounts: lo.Map(clones, func(d *discount.Discount, _ int) *dto.DiscountResponse {
			return dto.NewDiscountResponse(d, now)
		}),
	}, nil
}
