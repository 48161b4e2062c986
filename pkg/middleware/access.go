package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/vfg2006/sales-tracker-api/pkg/apiErrors"
	"github.com/vfg2006/sales-tracker-api/pkg/log"
)

// DeniedFunc é notificado a cada requisição rejeitada pelo controle de acesso
type DeniedFunc func(r *http.Request, code string)

// publicPaths não exigem API key
var publicPaths = map[string]bool{
	"/health": true,
}

// ClientIP devolve o IP do cliente. Com trustProxy, usa o primeiro salto do X-Forwarded-For.
// "::1" é normalizado para "127.0.0.1".
func ClientIP(r *http.Request, trustProxy bool) string {
	ip := ""

	if trustProxy {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			ip = strings.TrimSpace(strings.Split(forwarded, ",")[0])
		}
	}

	if ip == "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip = host
	}

	if ip == "::1" {
		return "127.0.0.1"
	}

	return ip
}

func isLoopback(ip string) bool {
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}

func deny(w http.ResponseWriter, r *http.Request, onDenied DeniedFunc, code, message string) {
	log.ForContext(r.Context()).WithFields(log.Fields{
		"path":  r.URL.Path,
		"error": code,
	}).Warn("🚫 Requisição bloqueada pelo controle de acesso")

	if onDenied != nil {
		onDenied(r, code)
	}

	apiErrors.WriteError(w, code, message, nil)
}
