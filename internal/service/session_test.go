package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type SessionServiceSuite struct {
	billingTestSuite
}

func TestSessionService(t *testing.T) {
	suite.Run(t, new(SessionServiceSuite))
}

func (s *SessionServiceSuite) SetupTest() {
	s.billingTestSuite.SetupTest()
	s.createPlan("plan_duo", 100, 30, 2)

	cust := s.createCustomer("cust_1")
	cust.Activate("plan_duo", string(types.PaymentMethodCard))
	s.Require().NoError(s.GetStores().CustomerRepo.Update(s.GetContext(), cust))
}

func loginRequest(customerID, deviceID string) dto.LoginRequest {
	return dto.LoginRequest{
		CustomerID: customerID,
		DeviceID:   deviceID,
		IPAddress:  "10.0.0.1",
		LoginType:  types.LoginTypeWeb,
	}
}

func (s *SessionServiceSuite) TestCanLoginBoundary() {
	for i, want := range []bool{true, true, false} {
		allowed, err := s.sessions.CanLogin(s.GetContext(), "cust_1")
		s.Require().NoError(err)
		s.Equal(want, allowed, "with %d active sessions", i)

		if allowed {
			resp, err := s.sessions.Login(s.GetContext(), loginRequest("cust_1", fmt.Sprintf("device_%d", i)))
			s.Require().NoError(err)
			s.True(resp.Allowed)
		}
	}

	count, err := s.sessions.ActiveSessionCount(s.GetContext(), "cust_1")
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *SessionServiceSuite) TestAddSessionSkipsLimitAndDedupsDevice() {
	for _, device := range []string{"tv", "phone", "laptop", "phone"} {
		s.Require().NoError(s.sessions.AddSession(s.GetContext(), loginRequest("cust_1", device)))
	}

	count, err := s.sessions.ActiveSessionCount(s.GetContext(), "cust_1")
	s.Require().NoError(err)
	s.Equal(3, count)

	allowed, err := s.sessions.CanLogin(s.GetContext(), "cust_1")
	s.Require().NoError(err)
	s.False(allowed)

	err = s.sessions.AddSession(s.GetContext(), loginRequest("cust_missing", "tv"))
	s.True(ierr.IsNotFound(err))
}

func (s *SessionServiceSuite) TestCanLoginWithoutPlan() {
	s.createCustomer("cust_free")
	allowed, err := s.sessions.CanLogin(s.GetContext(), "cust_free")
	s.Require().NoError(err)
	s.True(allowed)

	dangling := s.createCustomer("cust_dangling")
	dangling.Activate("plan_deleted", "")
	s.Require().NoError(s.GetStores().CustomerRepo.Update(s.GetContext(), dangling))

	allowed, err = s.sessions.CanLogin(s.GetContext(), dangling.ID)
	s.Require().NoError(err)
	s.True(allowed, "a missing plan counts as no plan")

	_, err = s.sessions.CanLogin(s.GetContext(), "cust_missing")
	s.True(ierr.IsNotFound(err))
}

func (s *SessionServiceSuite) TestLogin() {
	resp, err := s.sessions.Login(s.GetContext(), loginRequest("cust_1", "phone"))
	s.Require().NoError(err)
	s.True(resp.Allowed)
	s.Equal(1, resp.ActiveSessions)
	s.Equal(2, resp.UsageLimit)

	resp, err = s.sessions.Login(s.GetContext(), loginRequest("cust_1", "phone"))
	s.Require().NoError(err)
	s.True(resp.Allowed, "same device logs in again")
	s.Equal(1, resp.ActiveSessions)

	resp, err = s.sessions.Login(s.GetContext(), loginRequest("cust_1", "laptop"))
	s.Require().NoError(err)
	s.True(resp.Allowed)
	s.Equal(2, resp.ActiveSessions)

	resp, err = s.sessions.Login(s.GetContext(), loginRequest("cust_1", "tv"))
	s.Require().NoError(err)
	s.False(resp.Allowed)
	s.Equal(2, resp.ActiveSessions)

	resp, err = s.sessions.Login(s.GetContext(), loginRequest("cust_1", "phone"))
	s.Require().NoError(err)
	s.True(resp.Allowed, "a registered device is never locked out")

	bad := loginRequest("cust_1", "tv")
	bad.LoginType = "FAX"
	_, err = s.sessions.Login(s.GetContext(), bad)
	s.True(ierr.IsValidation(err))
}

func (s *SessionServiceSuite) TestConcurrentLoginsRespectLimit() {
	var wg sync.WaitGroup
	results := make([]bool, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := s.sessions.Login(s.GetContext(), loginRequest("cust_1", fmt.Sprintf("device_%d", i)))
			if err == nil {
				results[i] = resp.Allowed
			}
		}(i)
	}
	wg.Wait()

	s.Equal(2, lo.Count(results, true))
}

func (s *SessionServiceSuite) TestLogout() {
	_, err := s.sessions.Login(s.GetContext(), loginRequest("cust_1", "phone"))
	s.Require().NoError(err)
	_, err = s.sessions.Login(s.GetContext(), loginRequest("cust_1", "laptop"))
	s.Require().NoError(err)

	s.Require().NoError(s.sessions.RemoveSession(s.GetContext(), dto.LogoutRequest{CustomerID: "cust_1", DeviceID: "phone"}))

	list, err := s.sessions.ActiveSessions(s.GetContext(), "cust_1")
	s.Require().NoError(err)
	s.Equal(1, list.Count)
	s.Equal("laptop", list.Sessions[0].DeviceID)

	err = s.sessions.RemoveSession(s.GetContext(), dto.LogoutRequest{CustomerID: "cust_1", DeviceID: "phone"})
	s.True(ierr.IsNotFound(err))

	resp, err := s.sessions.Login(s.GetContext(), loginRequest("cust_1", "tv"))
	s.Require().NoError(err)
	s.True(resp.Allowed, "logout frees a slot")
}
