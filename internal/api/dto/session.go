package dto

import (
	"time"

	"github.com/flexprice/subscription-billing/internal/session"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/flexprice/subscription-billing/internal/validator"
)

type LoginRequest struct {
	CustomerID string          `json:"customer_id" validate:"required"`
	DeviceID   string          `json:"device_id" validate:"required"`
	IPAddress  string          `json:"ip_address" validate:"omitempty,ip"`
	LoginType  types.LoginType `json:"login_type" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.LoginType.Validate()
}

// ToSession builds the session registered for this login at now
func (r *LoginRequest) ToSession(now time.Time) *session.Session {
	return &session.Session{
		CustomerID: r.CustomerID,
		DeviceID:   r.DeviceID,
		IPAddress:  r.IPAddress,
		LoginTime:  now,
		LoginType:  r.LoginType,
	}
}

type LoginResponse struct {
	Allowed        bool `json:"allowed"`
	ActiveSessions int  `json:"active_sessions"`
	// UsageLimit is zero when the customer has no plan and logins are unlimited
	UsageLimit int `json:"usage_limit"`
}

// CanLoginResponse reports whether one more device may log in right now
type CanLoginResponse struct {
	CustomerID string `json:"customer_id"`
	Allowed    bool   `json:"allowed"`
}

type LogoutRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	DeviceID   string `json:"device_id" validate:"required"`
}

func (r *LogoutRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type SessionResponse struct {
	DeviceID  string          `json:"device_id"`
	IPAddress string          `json:"ip_address"`
	LoginTime time.Time       `json:"login_time"`
	LoginType types.LoginType `json:"login_type"`
}

type ListSessionsResponse struct {
	CustomerID string             `json:"customer_id"`
	Count      int                `json:"count"`
	Sessions   []*SessionResponse `json:"sessions"`
}

func NewListSessionsResponse(customerID string, sessions []*session.Session) *ListSessionsResponse {
	resp := &ListSessionsResponse{
		CustomerID: customerID,
		Count:      len(sessions),
		Sessions:   make([]*SessionResponse, 0, len(sessions)),
	}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, &SessionResponse{
			DeviceID:  s.DeviceID,
			IPAddress: s.IPAddress,
			LoginTime: s.LoginTime,
			LoginType: s.LoginType,
		})
	}
	return resp
}
