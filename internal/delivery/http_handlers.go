package delivery

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"adsreporter/internal/domain"
	"adsreporter/internal/usecase"
	"adsreporter/pkg/logger"
)

// handles HTTP requests
type HTTPHandlers struct {
	dashboard *usecase.Dashboard
	scheduler *usecase.Scheduler
	insights  *usecase.InsightsService
	logger    *logger.Logger
	version   string
}

// creates new HTTP handlers
func NewHTTPHandlers(
	dashboard *usecase.Dashboard,
	scheduler *usecase.Scheduler,
	insights *usecase.InsightsService,
	logger *logger.Logger,
	version string,
) *HTTPHandlers {
	return &HTTPHandlers{
		dashboard: dashboard,
		scheduler: scheduler,
		insights:  insights,
		logger:    logger,
		version:   version,
	}
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type scopeRequest struct {
	Scope string `json:"scope" binding:"required"`
}

type realtimeRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type dashboardResponse struct {
	domain.Snapshot
	SchedulerState usecase.SchedulerState `json:"scheduler_state"`
	AutoRefresh    bool                   `json:"auto_refresh"`
}

type accountResponse struct {
	domain.AdAccount
	Status string `json:"status"`
}

// HealthCheck returns the health status of the service
func (h *HTTPHandlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"service":    "adsreporter",
		"version":    h.version,
		"request_id": c.GetString("request_id"),
	})
}

// GetDashboard returns the current dashboard snapshot
func (h *HTTPHandlers) GetDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.dashboardView())
}

// ListAccounts returns loaded ad accounts, filtered by ?q= on name or id
func (h *HTTPHandlers) ListAccounts(c *gin.Context) {
	accounts := h.dashboard.Accounts(c.Query("q"))

	out := make([]accountResponse, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, accountResponse{AdAccount: acc, Status: acc.AccountStatus.Label()})
	}

	c.JSON(http.StatusOK, gin.H{
		"accounts":   out,
		"count":      len(out),
		"request_id": c.GetString("request_id"),
	})
}

// SetToken stores a new access token and loads its accounts
func (h *HTTPHandlers) SetToken(c *gin.Context) {
	var req tokenRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.dashboard.Authenticate(c.Request.Context(), req.Token); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.dashboardView())
}

// DeleteToken forgets the stored access token
func (h *HTTPHandlers) DeleteToken(c *gin.Context) {
	if err := h.dashboard.Logout(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.dashboardView())
}

// SelectScope switches between the aggregate and a single account
func (h *HTTPHandlers) SelectScope(c *gin.Context) {
	var req scopeRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.dashboard.SelectScope(c.Request.Context(), domain.Scope(req.Scope)); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.dashboardView())
}

// SetRealtime pauses or resumes automatic refresh
func (h *HTTPHandlers) SetRealtime(c *gin.Context) {
	var req realtimeRequest
	if !h.bind(c, &req) {
		return
	}

	h.scheduler.SetAutoRefresh(*req.Enabled)

	c.JSON(http.StatusOK, gin.H{
		"auto_refresh":    h.scheduler.AutoRefresh(),
		"scheduler_state": h.scheduler.State(),
		"request_id":      c.GetString("request_id"),
	})
}

// Refresh runs one metrics tick immediately
func (h *HTTPHandlers) Refresh(c *gin.Context) {
	if err := h.dashboard.Refresh(c.Request.Context(), false); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.dashboardView())
}

// GenerateInsights asks the AI model to review the current snapshot
func (h *HTTPHandlers) GenerateInsights(c *gin.Context) {
	snap := h.dashboard.Snapshot()

	text := h.insights.Summarize(c.Request.Context(), snap.Metrics, snap.Campaigns)

	c.JSON(http.StatusOK, gin.H{
		"insight":    text,
		"request_id": c.GetString("request_id"),
	})
}

// DismissError clears the visible error message
func (h *HTTPHandlers) DismissError(c *gin.Context) {
	h.dashboard.DismissError()
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandlers) dashboardView() dashboardResponse {
	return dashboardResponse{
		Snapshot:       h.dashboard.Snapshot(),
		SchedulerState: h.scheduler.State(),
		AutoRefresh:    h.scheduler.AutoRefresh(),
	}
}

func (h *HTTPHandlers) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid request body",
			"message":    err.Error(),
			"request_id": c.GetString("request_id"),
		})
		return false
	}
	return true
}

// writeError maps use case errors onto HTTP statuses.
func (h *HTTPHandlers) writeError(c *gin.Context, err error) {
	requestID := c.GetString("request_id")
	_ = c.Error(err)

	switch {
	case errors.Is(err, domain.ErrUnknownScope):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid scope",
			"message":    err.Error(),
			"request_id": requestID,
		})
	case errors.Is(err, domain.ErrNoCredential):
		c.JSON(http.StatusConflict, gin.H{
			"error":      "Access token required",
			"message":    err.Error(),
			"request_id": requestID,
		})
	case domain.IsAuthError(err):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":           "Access token rejected",
			"message":         err.Error(),
			"reauth_required": true,
			"request_id":      requestID,
		})
	default:
		h.logger.WithContext(c.Request.Context()).WithError(err).Error("Dashboard request failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"error":      "Failed to load ad data",
			"message":    err.Error(),
			"request_id": requestID,
		})
	}
}
