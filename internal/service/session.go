package service

import (
	"context"
	"time"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/domain/customer"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/session"
)

// SessionService limits concurrent logins to the usage limit of the customer's active plan
type SessionService interface {
	// CanLogin reports whether one more session fits within the active plan's usage limit
	CanLogin(ctx context.Context, customerID string) (bool, error)
	// Login checks the limit and registers the session in one step
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	// AddSession registers a session without the limit check, replacing the device's entry if present
	AddSession(ctx context.Context, req dto.LoginRequest) error
	RemoveSession(ctx context.Context, req dto.LogoutRequest) error
	ActiveSessionCount(ctx context.Context, customerID string) (int, error)
	ActiveSessions(ctx context.Context, customerID string) (*dto.ListSessionsResponse, error)
}

type sessionService struct {
	ServiceParams
}

func NewSessionService(params ServiceParams) SessionService {
	return &sessionService{ServiceParams: params}
}

func (s *sessionService) CanLogin(ctx context.Context, customerID string) (bool, error) {
	cust, err := s.CustomerRepo.Get(ctx, customerID)
	if err != nil {
		return false, err
	}

	limit, err := s.usageLimit(ctx, cust)
	if err != nil {
		return false, err
	}
	if limit <= 0 {
		return true, nil
	}

	count, err := s.SessionRegistry.Count(ctx, cust.ID)
	if err != nil {
		return false, err
	}
	return count < limit, nil
}

func (s *sessionService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cust, err := s.CustomerRepo.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	limit, err := s.usageLimit(ctx, cust)
	if err != nil {
		return nil, err
	}

	added, count, err := s.SessionRegistry.TryAdd(ctx, req.ToSession(time.Now().UTC()), limit)
	if err != nil {
		return nil, err
	}

	s.Metrics.RecordLogin(added)
	if !added {
		s.Logger.Infow("login rejected, usage limit reached",
			"customer_id", cust.ID,
			"device_id", req.DeviceID,
			"active_sessions", count,
			"usage_limit", limit,
		)
	} else {
		s.Logger.Debugw("login accepted",
			"customer_id", cust.ID,
			"device_id", req.DeviceID,
			"active_sessions", count,
		)
	}

	return &dto.LoginResponse{
		Allowed:        added,
		ActiveSessions: count,
		UsageLimit:     limit,
	}, nil
}

func (s *sessionService) AddSession(ctx context.Context, req dto.LoginRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if _, err := s.CustomerRepo.Get(ctx, req.CustomerID); err != nil {
		return err
	}
	if err := s.SessionRegistry.Add(ctx, req.ToSession(time.Now().UTC())); err != nil {
		return err
	}

	s.Logger.Debugw("session registered", "customer_id", req.CustomerID, "device_id", req.DeviceID)
	return nil
}

func (s *sessionService) RemoveSession(ctx context.Context, req dto.LogoutRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	removed, err := s.SessionRegistry.Remove(ctx, req.CustomerID, req.DeviceID)
	if err != nil {
		return err
	}
	if !removed {
		return ierr.NewError("session not found").
			WithHint("No active session for this device").
			WithReportableDetails(map[string]any{
				"customer_id": req.CustomerID,
				"device_id":   req.DeviceID,
			}).
			Mark(ierr.ErrNotFound)
	}

	s.Metrics.RecordLogout()
	s.Logger.Debugw("logged out", "customer_id", req.CustomerID, "device_id", req.DeviceID)
	return nil
}

func (s *sessionService) ActiveSessionCount(ctx context.Context, customerID string) (int, error) {
	return s.SessionRegistry.Count(ctx, customerID)
}

func (s *sessionService) ActiveSessions(ctx context.Context, customerID string) (*dto.ListSessionsResponse, error) {
	if _, err := s.CustomerRepo.Get(ctx, customerID); err != nil {
		return nil, err
	}

	sessions, err := s.SessionRegistry.List(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []*session.Session{}
	}
	return dto.NewListSessionsResponse(customerID, sessions), nil
}

// usageLimit returns the session limit of the customer's active plan, 0 for unlimited.
// A plan that no longer exists counts as no plan.
func (s *sessionService) usageLimit(ctx context.Context, cust *customer.Customer) (int, error) {
	if !cust.HasActivePlan() {
		return 0, nil
	}

	p, err := lookupPlan(ctx, s.ServiceParams, cust.GetActivePlanID())
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Warnw("active plan not found, allowing login",
				"customer_id", cust.ID,
				"plan_id", cust.GetActivePlanID(),
			)
			return 0, nil
		}
		return 0, err
	}
	return p.UsageLimit, nil
}
