package dto

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/domain/customer"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/flexprice/subscription-billing/internal/validator"
)

type CreateCustomerRequest struct {
	Name                string `json:"name" validate:"required"`
	Email               string `json:"email" validate:"omitempty,email"`
	Phone               string `json:"phone" validate:"omitempty,max=20"`
	ActivePaymentMethod string `json:"active_payment_method" validate:"omitempty,payment_method"`
}

type UpdateCustomerRequest struct {
	Name                *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Email               *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone               *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	ActivePaymentMethod *string `json:"active_payment_method,omitempty" validate:"omitempty,payment_method"`
}

type CustomerResponse struct {
	*customer.Customer
}

// ListCustomersResponse represents the response for listing customers
type ListCustomersResponse = types.ListResponse[*CustomerResponse]

func (r *CreateCustomerRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ToCustomer builds a customer without a plan. Plans are attached by subscribing or paying.
func (r *CreateCustomerRequest) ToCustomer(ctx context.Context) *customer.Customer {
	return &customer.Customer{
		ID:                  types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER),
		Name:                r.Name,
		Email:               r.Email,
		Phone:               r.Phone,
		SubscriptionStatus:  types.CustomerSubscriptionStatusInactive,
		ActivePaymentMethod: r.ActivePaymentMethod,
		BaseModel:           types.GetDefaultBaseModel(ctx),
	}
}

func (r *UpdateCustomerRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *UpdateCustomerRequest) Apply(c *customer.Customer) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Email != nil {
		c.Email = *r.Email
	}
	if r.Phone != nil {
		c.Phone = *r.Phone
	}
	if r.ActivePaymentMethod != nil {
		c.ActivePaymentMethod = *r.ActivePaymentMethod
	}
}
