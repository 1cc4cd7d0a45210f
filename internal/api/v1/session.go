package v1

import (
	"net/http"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/service"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	service service.SessionService
	log     *logger.Logger
}

func NewSessionHandler(service service.SessionService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{service: service, log: log}
}

// @Summary Log a device in
// @Description Register a session when the customer's plan allows one more. A denied login is not an error.
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param login body dto.LoginRequest true "Login"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 429 {object} ierr.ErrorResponse
// @Router /sessions/login [post]
func (h *SessionHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	if req.IPAddress == "" {
		req.IPAddress = c.ClientIP()
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Check whether a customer can log in another device
// @Description Read only, no session is registered
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer ID"
// @Success 200 {object} dto.CanLoginResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /customers/{id}/can-login [get]
func (h *SessionHandler) CanLogin(c *gin.Context) {
	customerID, ok := requiredParam(c, "id", "Customer ID is required")
	if !ok {
		return
	}

	allowed, err := h.service.CanLogin(c.Request.Context(), customerID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.CanLoginResponse{CustomerID: customerID, Allowed: allowed})
}

// @Summary Register a device session
// @Description Registers the session without the plan limit check. Pair with can-login, or use /sessions/login for an atomic check.
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param session body dto.LoginRequest true "Session"
// @Success 201 {object} dto.SuccessResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) AddSession(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	if req.IPAddress == "" {
		req.IPAddress = c.ClientIP()
	}

	if err := h.service.AddSession(c.Request.Context(), req); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.SuccessResponse{Message: "session registered"})
}

// @Summary Log a device out
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param logout body dto.LogoutRequest true "Logout"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /sessions/logout [post]
func (h *SessionHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	if err := h.service.RemoveSession(c.Request.Context(), req); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "logged out"})
}

// @Summary List a customer's active sessions
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer ID"
// @Success 200 {object} dto.ListSessionsResponse
// @Router /customers/{id}/sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	customerID, ok := requiredParam(c, "id", "Customer ID is required")
	if !ok {
		return
	}

	resp, err := h.service.ActiveSessions(c.Request.Context(), customerID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
