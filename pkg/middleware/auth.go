package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/vfg2006/sales-tracker-api/internal/config"
	"github.com/vfg2006/sales-tracker-api/pkg/apiErrors"
)

// APIKeyAuth exige a chave em x-api-key ou Authorization: Bearer. Desabilitado, apenas repassa.
func APIKeyAuth(cfg config.Security, onDenied DeniedFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.APIKeyEnabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := r.Header.Get("x-api-key")
			if apiKey == "" {
				apiKey = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			}

			if apiKey == "" {
				deny(w, r, onDenied, apiErrors.ErrAPIKeyMissing, "API key obrigatória: envie o header x-api-key ou Authorization Bearer")
				return
			}

			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(cfg.APIKey)) != 1 {
				deny(w, r, onDenied, apiErrors.ErrAPIKeyInvalid, "API key inválida")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
