package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/sales-tracker-api/internal/config"
	"github.com/vfg2006/sales-tracker-api/pkg/apiErrors"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, jsoniter.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	return body["error"].(string)
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := config.Security{APIKeyEnabled: true, APIKey: "s3cr3t"}

	tests := []struct {
		name       string
		path       string
		headers    map[string]string
		wantStatus int
		wantCode   string
	}{
		{"Health não exige chave", "/health", nil, http.StatusOK, ""},
		{"Chave ausente", "/api/sales", nil, http.StatusUnauthorized, apiErrors.ErrAPIKeyMissing},
		{"Chave inválida", "/api/sales", map[string]string{"x-api-key": "errada"}, http.StatusUnauthorized, apiErrors.ErrAPIKeyInvalid},
		{"Chave no header x-api-key", "/api/sales", map[string]string{"x-api-key": "s3cr3t"}, http.StatusOK, ""},
		{"Chave como Bearer", "/api/sales", map[string]string{"Authorization": "Bearer s3cr3t"}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var denied []string
			h := APIKeyAuth(cfg, func(_ *http.Request, code string) { denied = append(denied, code) })(okHandler)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, rec))
				assert.Equal(t, []string{tt.wantCode}, denied)
			}
		})
	}
}

func TestDisabledChecksPassThrough(t *testing.T) {
	cfg := config.Security{}

	chain := APIKeyAuth(cfg, nil)(IPAllowlist(cfg, nil)(DomainCheck(cfg, nil)(RateLimit(nil, false, nil)(okHandler))))

	req := httptest.NewRequest(http.MethodGet, "/api/sales", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIPAllowlist(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.Security
		remoteAddr string
		forwarded  string
		wantStatus int
	}{
		{
			name:       "IP permitido",
			cfg:        config.Security{IPAllowlistEnabled: true, AllowedIPs: []string{"10.0.0.1"}},
			remoteAddr: "10.0.0.1:1234",
			wantStatus: http.StatusOK,
		},
		{
			name:       "IP fora da lista",
			cfg:        config.Security{IPAllowlistEnabled: true, AllowedIPs: []string{"10.0.0.1"}},
			remoteAddr: "10.0.0.2:1234",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "IPv6 localhost normalizado",
			cfg:        config.Security{IPAllowlistEnabled: true, AllowedIPs: []string{"127.0.0.1"}},
			remoteAddr: "[::1]:1234",
			wantStatus: http.StatusOK,
		},
		{
			name:       "Loopback liberado em desenvolvimento",
			cfg:        config.Security{IPAllowlistEnabled: true, Development: true},
			remoteAddr: "127.0.0.1:1234",
			wantStatus: http.StatusOK,
		},
		{
			name:       "Loopback bloqueado em produção",
			cfg:        config.Security{IPAllowlistEnabled: true},
			remoteAddr: "127.0.0.1:1234",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "X-Forwarded-For com proxy confiável",
			cfg:        config.Security{IPAllowlistEnabled: true, TrustProxy: true, AllowedIPs: []string{"198.51.100.7"}},
			remoteAddr: "10.0.0.9:1234",
			forwarded:  "198.51.100.7, 10.0.0.9",
			wantStatus: http.StatusOK,
		},
		{
			name:       "X-Forwarded-For ignorado sem proxy confiável",
			cfg:        config.Security{IPAllowlistEnabled: true, AllowedIPs: []string{"198.51.100.7"}},
			remoteAddr: "10.0.0.9:1234",
			forwarded:  "198.51.100.7",
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/sales", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			rec := httptest.NewRecorder()
			IPAllowlist(tt.cfg, nil)(okHandler).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusForbidden {
				assert.Equal(t, apiErrors.ErrIPNotAllowed, errorCode(t, rec))
			}
		})
	}
}

func TestDomainCheck(t *testing.T) {
	cfg := config.Security{DomainCheckEnabled: true, AllowedDomains: []string{"sales.example.com"}}

	tests := []struct {
		name       string
		cfg        config.Security
		header     string
		value      string
		wantStatus int
	}{
		{"Sem origem", cfg, "", "", http.StatusOK},
		{"Origem permitida", cfg, "Origin", "https://sales.example.com", http.StatusOK},
		{"Subdomínio contém o domínio", cfg, "Origin", "https://app.sales.example.com", http.StatusOK},
		{"Referer permitido", cfg, "Referer", "https://sales.example.com/dashboard", http.StatusOK},
		{"Origem bloqueada", cfg, "Origin", "https://evil.example", http.StatusForbidden},
		{"Localhost bloqueado em produção", cfg, "Origin", "http://localhost:3000", http.StatusForbidden},
		{"Localhost liberado em desenvolvimento", config.Security{DomainCheckEnabled: true, Development: true}, "Origin", "http://localhost:3000", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/sales", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			DomainCheck(tt.cfg, nil)(okHandler).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusForbidden {
				assert.Equal(t, apiErrors.ErrDomainNotAllowed, errorCode(t, rec))
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(2, 15*time.Minute)
	limiter.now = func() time.Time { return now }

	h := RateLimit(limiter, false, nil)(okHandler)
	call := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/sales", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, call("10.0.0.1:2").Code)

	blocked := call("10.0.0.1:3")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, apiErrors.ErrRateLimited, errorCode(t, blocked))
	assert.Equal(t, "900", blocked.Header().Get("Retry-After"))

	// outro cliente tem a sua própria janela
	assert.Equal(t, http.StatusOK, call("10.0.0.2:1").Code)

	now = now.Add(15 * time.Minute)
	assert.Equal(t, http.StatusOK, call("10.0.0.1:4").Code)
}

func TestRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(5, time.Minute)
	limiter.now = func() time.Time { return now }

	limiter.Allow("a")
	now = now.Add(30 * time.Second)
	limiter.Allow("b")

	now = now.Add(45 * time.Second)
	assert.Equal(t, 1, limiter.Sweep())
	assert.Equal(t, 1, limiter.Size())
}

func TestCors(t *testing.T) {
	h := Cors([]string{"https://sales.example.com"})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/sales", nil)
	req.Header.Set("Origin", "https://sales.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://sales.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/sales", nil)
	req.Header.Set("Origin", "https://other.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	Cors([]string{"*"})(okHandler).ServeHTTP(rec, req)
	assert.Equal(t, "https://other.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
