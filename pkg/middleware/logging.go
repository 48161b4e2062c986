package middleware

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/vfg2006/sales-tracker-api/pkg/apiErrors"
	"github.com/vfg2006/sales-tracker-api/pkg/log"
)

const (
	correlationHeader = "X-Correlation-ID"
	salesPrefix       = "/api/sales/"
	slowRequest       = 500 * time.Millisecond
)

// LoggingMiddleware abre o ID de correlação da requisição e registra uma linha ao
// final com status, duração e, nas rotas de uma venda, o ID dela.
// Deve ser o primeiro da cadeia para que o LogPanicMiddleware já encontre o ID.
func LoggingMiddleware(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, correlationID := log.WithCorrelationID(r.Context())
			r = r.WithContext(ctx)
			w.Header().Set(correlationHeader, correlationID)

			rec := NewResponseRecorder(w)
			start := time.Now()

			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			fields := log.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": rec.Status,
				"duration_ms": elapsed.Milliseconds(),
				"client_ip":   ClientIP(r, trustProxy),
				"bytes":       rec.Bytes,
			}
			if id := saleIDFromPath(r.URL.Path); id != "" {
				fields["sale_id"] = id
			}

			logger := log.ForContext(ctx).WithFields(fields)
			message := fmt.Sprintf("%s %s %d", r.Method, r.URL.Path, rec.Status)

			switch {
			case rec.Status >= http.StatusInternalServerError:
				logger.Error(message)
			case rec.Status >= http.StatusBadRequest:
				logger.Warn(message)
			case elapsed > slowRequest:
				logger.Warnf("%s lenta", message)
			default:
				logger.Info(message)
			}
		})
	}
}

// saleIDFromPath devolve o segmento :id de /api/sales/:id e /api/sales/:id/...
func saleIDFromPath(path string) string {
	rest, ok := strings.CutPrefix(path, salesPrefix)
	if !ok {
		return ""
	}

	id, _, _ := strings.Cut(rest, "/")
	if id == "stats" {
		return ""
	}
	return id
}

// LogPanicMiddleware converte um panic do handler em SRV_001 e registra a pilha
// com o ID de correlação da requisição
func LogPanicMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := NewResponseRecorder(w)

			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				stack := make([]byte, 4096)
				stack = stack[:runtime.Stack(stack, false)]

				log.ForContext(r.Context()).WithFields(log.Fields{
					"method":      r.Method,
					"path":        r.URL.Path,
					"error":       fmt.Sprint(recovered),
					"stack_trace": string(stack),
				}).Error("Panic ao processar requisição")

				if log.IsDevelopment() {
					fmt.Fprintf(os.Stderr, "\n=== STACK TRACE ===\n%s\n", stack)
				}

				if rec.Written() {
					return
				}
				apiErrors.WriteError(rec, apiErrors.ErrInternalServer, "Erro interno no servidor", nil)
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
