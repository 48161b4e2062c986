package middleware

import (
	"net/http"

	"github.com/vfg2006/sales-tracker-api/internal/config"
	"github.com/vfg2006/sales-tracker-api/pkg/apiErrors"
)

// IPAllowlist aceita apenas os IPs configurados; em desenvolvimento o loopback é sempre aceito
func IPAllowlist(cfg config.Security, onDenied DeniedFunc) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(cfg.AllowedIPs))
	for _, ip := range cfg.AllowedIPs {
		if ip == "::1" {
			ip = "127.0.0.1"
		}
		allowed[ip] = true
	}

	return func(next http.Handler) http.Handler {
		if !cfg.IPAllowlistEnabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r, cfg.TrustProxy)

			if (cfg.Development && isLoopback(ip)) || allowed[ip] {
				next.ServeHTTP(w, r)
				return
			}

			deny(w, r, onDenied, apiErrors.ErrIPNotAllowed, "IP não autorizado a acessar a API")
		})
	}
}
