package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hanzel-sc/iwp-placement-portal/backend/config"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/api/handler"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/model"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/service"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubResolver struct{ actors map[string]model.Actor }

func (s stubResolver) ResolveActor(_ context.Context, _ model.Role, id string) (model.Actor, error) {
	a, ok := s.actors[id]
	if !ok {
		return nil, service.ErrActorNotFound
	}
	return a, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{BaseURL: "http://localhost:8080"},
		Auth:      config.AuthConfig{JWTSecret: "router-test-secret-value", AccessTokenTTL: time.Hour},
		Storage:   config.StorageConfig{Type: "s3", MaxResumeMB: 1},
		Feature:   config.FeatureConfig{RequireCompanyApproval: true},
		RateLimit: config.RateLimitConfig{AuthLimit: 10, AuthWindow: time.Minute},
	}
}

// 路由测试只覆盖中间件拦截的路径，不会进入具体服务
func setupEngine(t *testing.T, db Pinger, actors ...model.Actor) (*gin.Engine, *jwt.Manager) {
	t.Helper()
	cfg := testConfig()
	mgr := jwt.NewManager(&cfg.Auth)

	byID := make(map[string]model.Actor, len(actors))
	for _, a := range actors {
		byID[a.GetID()] = a
	}

	h := handler.NewHandler(cfg, &service.Service{})
	engine := Setup(cfg, h, mgr, Deps{Resolver: stubResolver{actors: byID}, DB: db}, zap.NewNop())
	return engine, mgr
}

func call(engine *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	engine, _ := setupEngine(t, stubPinger{})
	w := call(engine, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	engine, _ = setupEngine(t, stubPinger{err: errors.New("connection refused")})
	w = call(engine, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	engine, _ := setupEngine(t, nil)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodPost, "/api/v1/auth/logout"},
		{http.MethodGet, "/api/v1/notifications"},
		{http.MethodPut, "/api/v1/notifications/read-all"},
		{http.MethodPost, "/api/v1/jobs"},
		{http.MethodDelete, "/api/v1/jobs/0b7c1f4e-8a55-4a8e-9d2c-3b1f6c2d4e5f/permanent"},
		{http.MethodPut, "/api/v1/applications/0b7c1f4e-8a55-4a8e-9d2c-3b1f6c2d4e5f/status"},
		{http.MethodPost, "/api/v1/students/apply/0b7c1f4e-8a55-4a8e-9d2c-3b1f6c2d4e5f"},
		{http.MethodGet, "/api/v1/faculty/applications/export"},
		{http.MethodGet, "/api/v1/company/dashboard-stats"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := call(engine, rt.method, rt.path, "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRoleSeparation(t *testing.T) {
	stu := &model.Student{ID: "s1", Status: model.StudentStatusActive}
	engine, mgr := setupEngine(t, nil, stu)

	token, err := mgr.GenerateAccessToken("s1", string(model.RoleStudent))
	require.NoError(t, err)

	for _, path := range []string{"/api/v1/faculty/jobs", "/api/v1/company/jobs", "/api/v1/faculty/students"} {
		w := call(engine, http.MethodGet, path, token)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}
	w := call(engine, http.MethodPost, "/api/v1/jobs", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPendingCompanyCannotPost(t *testing.T) {
	pending := &model.Company{ID: "c1", Status: model.CompanyStatusPending}
	engine, mgr := setupEngine(t, nil, pending)

	token, err := mgr.GenerateAccessToken("c1", string(model.RoleCompany))
	require.NoError(t, err)

	w := call(engine, http.MethodPost, "/api/v1/jobs", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "10006")
}

func TestUnknownRoute(t *testing.T) {
	engine, _ := setupEngine(t, nil)
	w := call(engine, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSuspendedCompanyCannotRead(t *testing.T) {
	suspended := &model.Company{ID: "c2", Status: model.CompanyStatusSuspended}
	engine, mgr := setupEngine(t, nil, suspended)

	token, err := mgr.GenerateAccessToken("c2", string(model.RoleCompany))
	require.NoError(t, err)

	for _, path := range []string{"/api/v1/company/jobs", "/api/v1/notifications", "/api/v1/auth/me"} {
		w := call(engine, http.MethodGet, path, token)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
		assert.Contains(t, w.Body.String(), "11003", path)
	}
}
