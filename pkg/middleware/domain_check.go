package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/vfg2006/sales-tracker-api/internal/config"
	"github.com/vfg2006/sales-tracker-api/pkg/apiErrors"
)

// DomainCheck valida o host do Origin (ou do Referer) contra os domínios permitidos.
// Requisições sem origem passam.
func DomainCheck(cfg config.Security, onDenied DeniedFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.DomainCheckEnabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				origin = r.Header.Get("Referer")
			}

			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if cfg.Development && (strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1")) {
				next.ServeHTTP(w, r)
				return
			}

			if isDomainAllowed(origin, cfg.AllowedDomains) {
				next.ServeHTTP(w, r)
				return
			}

			deny(w, r, onDenied, apiErrors.ErrDomainNotAllowed, "Domínio de origem não autorizado")
		})
	}
}

func isDomainAllowed(origin string, allowedDomains []string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	host := strings.ToLower(parsed.Host)
	for _, domain := range allowedDomains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}
		if host == domain || strings.Contains(host, domain) {
			return true
		}
	}

	return false
}
