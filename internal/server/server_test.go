package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/devrev/bizdir/internal/auth"
	"github.com/devrev/bizdir/internal/config"
	apierrors "github.com/devrev/bizdir/internal/errors"
	"github.com/devrev/bizdir/internal/handler"
	"github.com/devrev/bizdir/internal/health"
	"github.com/devrev/bizdir/internal/mocks"
	"github.com/devrev/bizdir/internal/model"
	"github.com/devrev/bizdir/internal/service"
	"github.com/devrev/bizdir/internal/store"
	"github.com/devrev/bizdir/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	testIssuer = "bizdir"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           0,
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   5 * time.Second,
			IdleTimeout:    time.Minute,
			RequestTimeout: 5 * time.Second,
		},
		Auth: config.AuthConfig{
			JWTSecret:        testSecret,
			Issuer:           testIssuer,
			CookieName:       "bizdir_session",
			LoginRedirectURL: "/login",
		},
		Payments: config.PaymentsConfig{MaxBodyBytes: 64 << 10},
		CORS:     config.CORSConfig{AllowedOrigins: []string{"https://app.example.com"}},
	}
}

func newTestServer(t *testing.T, st *mocks.MockStore) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	n := new(mocks.MockNotifier)
	events := new(mocks.MockEventStore)
	validator := validation.NewValidator()

	cache := store.NewInMemoryCache(10, time.Minute, logger)
	t.Cleanup(cache.Close)

	analytics := service.NewAnalyticsService(st, time.Minute, "salt", nil, logger)
	promotions := service.NewPromotionService(st, 30, n, nil, logger)
	services := handler.Services{
		Businesses:    service.NewBusinessService(st, validator, n, logger),
		Reviews:       service.NewReviewService(st, validator, logger),
		Verifications: service.NewVerificationService(st, n, logger),
		Categories:    service.NewCategoryService(st, cache, time.Minute, validator, n, logger),
		Analytics:     analytics,
		Promotions:    promotions,
		Webhooks:      service.NewWebhookService(service.WebhookConfig{Secret: "whsec", Tolerance: time.Minute, EventTTL: time.Hour}, events, promotions, nil, logger),
		Dashboard:     service.NewDashboardService(st, logger),
		Reports:       service.NewReportService(analytics, logger),
	}

	cfg := testConfig()
	srv := NewServer(cfg, Dependencies{
		Services: services,
		Parser:   auth.NewParser(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.CookieName),
		Profiles: st,
		Checks:   map[string]health.Pinger{"database": st},
	}, logger)
	srv.SetupRoutes()
	return srv.GetHandler()
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.NewIssuer(testSecret, testIssuer, time.Hour).Issue(userID, userID+"@example.com")
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	st := new(mocks.MockStore)
	st.On("Ping", mock.Anything).Return(nil)
	h := newTestServer(t, st)

	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/ready", nil)).Code)
}

func TestServer_PublicListing(t *testing.T) {
	st := new(mocks.MockStore)
	st.On("ListBusinesses", mock.Anything, mock.Anything).Return([]*model.Business{}, nil)
	st.On("CountBusinesses", mock.Anything, mock.Anything).Return(int64(0), nil)
	h := newTestServer(t, st)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/v1/businesses", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"businesses":[],"total":0,"limit":20,"offset":0}`, rec.Body.String())
}

func TestServer_OwnerRoutesRequireAuth(t *testing.T) {
	h := newTestServer(t, new(mocks.MockStore))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/v1/me/businesses", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/me/businesses", nil)
	req.Header.Set("Accept", "text/html")
	rec = serve(h, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodPost, "/v1/businesses/b1/reviews", strings.NewReader(`{"rating":5}`))
	assert.Equal(t, http.StatusUnauthorized, serve(h, req).Code)
}

func TestServer_OwnerRouteWithToken(t *testing.T) {
	st := new(mocks.MockStore)
	st.On("EnsureProfile", mock.Anything, "u1", "u1@example.com").Return(&model.Profile{ID: "u1", Role: model.RoleUser}, nil)
	st.On("ListBusinesses", mock.Anything, model.BusinessFilter{OwnerID: "u1", Limit: service.MaxPageSize}).Return([]*model.Business{{ID: "b1", OwnerID: "u1"}}, nil)
	h := newTestServer(t, st)

	req := httptest.NewRequest(http.MethodGet, "/v1/me/businesses", nil)
	req.Header.Set("Authorization", bearer(t, "u1"))
	rec := serve(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"b1"`)
	st.AssertExpectations(t)
}

func TestServer_FirstWriteCreatesProfile(t *testing.T) {
	st := new(mocks.MockStore)
	st.On("EnsureProfile", mock.Anything, "newcomer", "newcomer@example.com").
		Return(&model.Profile{ID: "newcomer", Email: "newcomer@example.com", Role: model.RoleUser}, nil).Once()
	st.On("CreateCategoryRequest", mock.Anything, mock.MatchedBy(func(r *model.CategoryRequest) bool {
		return r.RequesterID == "newcomer" && r.Name == "Bike Repair"
	})).Return(nil)
	h := newTestServer(t, st)

	req := httptest.NewRequest(http.MethodPost, "/v1/category-requests", strings.NewReader(`{"name":"Bike Repair"}`))
	req.Header.Set("Authorization", bearer(t, "newcomer"))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(h, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	st.AssertExpectations(t)
}

func TestServer_AdminRoutesRequireAdminRole(t *testing.T) {
	st := new(mocks.MockStore)
	st.On("EnsureProfile", mock.Anything, "u1", "u1@example.com").Return(&model.Profile{ID: "u1", Role: model.RoleUser}, nil)
	st.On("EnsureProfile", mock.Anything, "admin-1", "admin-1@example.com").Return(&model.Profile{ID: "admin-1", Role: model.RoleAdmin}, nil)
	st.On("CountBusinesses", mock.Anything, mock.Anything).Return(int64(1), nil)
	st.On("CountReviews", mock.Anything, mock.Anything).Return(int64(2), nil)
	st.On("CountVerificationRequests", mock.Anything, mock.Anything).Return(int64(3), nil)
	st.On("CountCategoryRequests", mock.Anything, mock.Anything).Return(int64(4), nil)
	st.On("CountProfiles", mock.Anything).Return(int64(5), nil)
	st.On("CountClicksSince", mock.Anything, mock.Anything).Return(int64(6), nil)
	h := newTestServer(t, st)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/v1/admin/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/dashboard", nil)
	req.Header.Set("Authorization", bearer(t, "u1"))
	rec = serve(h, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/admin/dashboard", nil)
	req.Header.Set("Authorization", bearer(t, "admin-1"))
	rec = serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var counts model.DashboardCounts
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	assert.Equal(t, int64(5), counts.Profiles)
	assert.Equal(t, int64(6), counts.RecentClicks)
}

func TestServer_NotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, new(mocks.MockStore))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/v1/nothing-here", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apierrors.ErrorCodeNotFound, resp.ErrorCode)

	rec = serve(h, httptest.NewRequest(http.MethodDelete, "/v1/categories", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_CORSPreflight(t *testing.T) {
	h := newTestServer(t, new(mocks.MockStore))

	req := httptest.NewRequest(http.MethodOptions, "/v1/analytics/clicks", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(h, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/v1/analytics/clicks", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = serve(h, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
