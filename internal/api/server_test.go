package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/sales-tracker-api/infrastructure/repository"
	"github.com/vfg2006/sales-tracker-api/internal/config"
	"github.com/vfg2006/sales-tracker-api/internal/metrics"
	"github.com/vfg2006/sales-tracker-api/internal/usecases/selling"
	"github.com/vfg2006/sales-tracker-api/pkg/middleware"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:     config.Server{Host: "localhost", Port: "0"},
		Pagination: config.Pagination{DefaultLimit: 10, MaxLimit: 100},
		Security: config.Security{
			APIKeyEnabled:    true,
			APIKey:           "chave-de-teste",
			RateLimitEnabled: true,
			RateLimitMax:     3,
			RateLimitWindow:  time.Minute,
			AllowedOrigins:   []string{"*"},
		},
	}
}

func serve(h http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewHandler_AccessControlChain(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimitEnabled = false

	registry := metrics.NewRegistry()
	service := selling.NewService(repository.NewSaleMemoryRepository(), nil)
	h := NewHandler(cfg, service, nil, registry)

	rec := serve(h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodGet, "/api/sales", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "API_KEY_MISSING")

	rec = serve(h, http.MethodGet, "/api/sales", map[string]string{"x-api-key": "outra"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(h, http.MethodGet, "/api/sales", map[string]string{"x-api-key": "chave-de-teste"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))

	assert.Equal(t, 1.0, testutil.ToFloat64(registry.AccessDenied.WithLabelValues("API_KEY_MISSING")))
	assert.Equal(t, 1.0, testutil.ToFloat64(registry.AccessDenied.WithLabelValues("API_KEY_INVALID")))
	assert.Equal(t, 1.0, testutil.ToFloat64(registry.RequestsTotal.WithLabelValues("/api/sales", http.MethodGet, "200")))

	rec = serve(h, http.MethodGet, "/metrics", map[string]string{"x-api-key": "chave-de-teste"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "sales_access_denied_total"))
}

func TestNewHandler_RateLimitRunsBeforeAuth(t *testing.T) {
	cfg := testConfig()
	limiter := middleware.NewRateLimiter(cfg.Security.RateLimitMax, cfg.Security.RateLimitWindow)
	h := NewHandler(cfg, selling.NewService(repository.NewSaleMemoryRepository(), nil), limiter, nil)

	for i := 0; i < 3; i++ {
		rec := serve(h, http.MethodGet, "/api/sales", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := serve(h, http.MethodGet, "/api/sales", map[string]string{"x-api-key": "chave-de-teste"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestNewHandler_WithoutMetrics(t *testing.T) {
	cfg := testConfig()
	cfg.Security.APIKeyEnabled = false

	h := NewHandler(cfg, selling.NewService(repository.NewSaleMemoryRepository(), nil), nil, nil)

	rec := serve(h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "ROUTE_NOT_FOUND")

	rec = serve(h, http.MethodGet, "/api/sales", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
