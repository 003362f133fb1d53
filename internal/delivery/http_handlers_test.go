package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsreporter/internal/domain"
	"adsreporter/internal/usecase"
	"adsreporter/pkg/config"
	"adsreporter/pkg/logger"
	"adsreporter/pkg/metrics"
)

type stubAdsAPI struct {
	mu          sync.Mutex
	accounts    []domain.AdAccount
	accountsErr error
	campaignErr error
}

func (s *stubAdsAPI) ListAdAccounts(ctx context.Context, token string) ([]domain.AdAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts, s.accountsErr
}

func (s *stubAdsAPI) ListCampaigns(ctx context.Context, token, accountID string) ([]domain.RawCampaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.campaignErr != nil {
		return nil, s.campaignErr
	}
	c := domain.RawCampaign{ID: accountID + "-c", Name: "Campaign " + accountID, Status: "ACTIVE"}
	c.Insights.Data = []domain.InsightRecord{{
		Spend:   1000,
		Actions: []domain.Action{{ActionType: domain.ActionLead, Value: 2}},
	}}
	return []domain.RawCampaign{c}, nil
}

type nopStore struct{ token string }

func (s *nopStore) Load(ctx context.Context) (string, error) { return s.token, nil }
func (s *nopStore) Save(ctx context.Context, t string) error  { s.token = t; return nil }
func (s *nopStore) Clear(ctx context.Context) error           { s.token = ""; return nil }

type testServer struct {
	api    *stubAdsAPI
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Discard()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	api := &stubAdsAPI{accounts: []domain.AdAccount{
		{ID: "act_1", Name: "Shop A", Currency: "VND", AccountStatus: 1},
		{ID: "act_2", Name: "Shop B", Currency: "VND", AccountStatus: 3},
	}}

	dashboard := usecase.NewDashboard(usecase.NewGateway(api, log, m), &nopStore{}, log, m, usecase.DashboardOptions{})
	scheduler := usecase.NewScheduler(dashboard, usecase.SchedulerConfig{AutoRefresh: true}, log)
	insights := usecase.NewInsightsService(nil, log, m)

	handlers := NewHTTPHandlers(dashboard, scheduler, insights, log, "test")
	router := NewHTTPRouter(handlers, config.Default().Server, log, m, reg).SetupRoutes()
	return &testServer{api: api, router: router}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["request_id"])
}

func TestGetDashboardDemo(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodGet, "/api/v1/dashboard", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["using_real_data"])
	assert.Equal(t, "all", body["scope"])
	assert.Equal(t, string(usecase.StateIdle), body["scheduler_state"])
	assert.Contains(t, body, "cost_per_conversation")
	assert.Len(t, body["chart"], 13)
}

func TestSetTokenAndListAccounts(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/api/v1/token", `{"token":"EAAB"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["using_real_data"])
	assert.Equal(t, 2000.0, body["metrics"].(map[string]any)["spend"])

	w, body = s.do(t, http.MethodGet, "/api/v1/accounts?q=shop%20b", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, body["count"])
	account := body["accounts"].([]any)[0].(map[string]any)
	assert.Equal(t, "act_2", account["id"])
	assert.Equal(t, "pending", account["status"])
}

func TestSetTokenValidation(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/api/v1/token", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", body["error"])
}

func TestSetTokenRejected(t *testing.T) {
	s := newTestServer(t)
	s.api.accountsErr = domain.NewRemoteDataError("Invalid OAuth access token.")

	w, body := s.do(t, http.MethodPost, "/api/v1/token", `{"token":"bad"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, true, body["reauth_required"])
	assert.Contains(t, body["message"], "Invalid OAuth access token.")

	_, dash := s.do(t, http.MethodGet, "/api/v1/dashboard", "")
	assert.Equal(t, true, dash["reauth_required"])
	assert.Equal(t, false, dash["has_credential"])
}

func TestSelectScopeErrors(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPut, "/api/v1/scope", `{"scope":"act_1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	s.do(t, http.MethodPost, "/api/v1/token", `{"token":"EAAB"}`)

	w, _ = s.do(t, http.MethodPut, "/api/v1/scope", `{"scope":"act_404"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := s.do(t, http.MethodPut, "/api/v1/scope", `{"scope":"act_1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "act_1", body["scope"])
	assert.Equal(t, 1000.0, body["metrics"].(map[string]any)["spend"])
}

func TestRefreshRemoteFailure(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/token", `{"token":"EAAB"}`)
	s.api.mu.Lock()
	s.api.campaignErr = errors.New("connection reset by peer")
	s.api.mu.Unlock()

	w, body := s.do(t, http.MethodPost, "/api/v1/refresh", "")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "no accounts returned data", body["message"])

	_, dash := s.do(t, http.MethodGet, "/api/v1/dashboard", "")
	assert.Equal(t, "Lỗi tải dữ liệu: no accounts returned data", dash["error"])

	w, _ = s.do(t, http.MethodDelete, "/api/v1/error", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, dash = s.do(t, http.MethodGet, "/api/v1/dashboard", "")
	assert.NotContains(t, dash, "error")
}

func TestSetRealtime(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPut, "/api/v1/realtime", `{"enabled":false}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["auto_refresh"])

	w, _ = s.do(t, http.MethodPut, "/api/v1/realtime", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateInsightsWithoutKey(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/api/v1/insights", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, usecase.InsightMissingKey, body["insight"])
}

func TestDeleteToken(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/token", `{"token":"EAAB"}`)

	w, body := s.do(t, http.MethodDelete, "/api/v1/token", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["has_credential"])
	assert.Equal(t, false, body["reauth_required"])
}

func TestPrometheusEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/health", "")

	w, _ := s.do(t, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
