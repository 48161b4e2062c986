package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/vfg2006/sales-tracker-api/pkg/apiErrors"
)

type rateWindow struct {
	start time.Time
	count int
}

// RateLimiter conta requisições por cliente em janelas fixas
type RateLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	clients map[string]*rateWindow
	now     func() time.Time
}

func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		max:     max,
		window:  window,
		clients: make(map[string]*rateWindow),
		now:     time.Now,
	}
}

// Allow registra uma requisição do cliente. Quando bloqueada, retryAfter indica quanto falta para a janela reabrir.
func (l *RateLimiter) Allow(key string) (allowed bool, remaining int, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[key]
	if !ok || now.Sub(w.start) >= l.window {
		w = &rateWindow{start: now}
		l.clients[key] = w
	}

	if w.count >= l.max {
		return false, 0, w.start.Add(l.window).Sub(now)
	}

	w.count++
	return true, l.max - w.count, 0
}

// Sweep remove as janelas expiradas e devolve quantas foram removidas
func (l *RateLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, w := range l.clients {
		if now.Sub(w.start) >= l.window {
			delete(l.clients, key)
			removed++
		}
	}

	return removed
}

// Size devolve o número de clientes com janela ativa
func (l *RateLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// RateLimit aplica o limitador por IP. limiter nil desabilita a verificação.
func RateLimit(limiter *RateLimiter, trustProxy bool, onDenied DeniedFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, retryAfter := limiter.Allow(ClientIP(r, trustProxy))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))

				deny(w, r, onDenied, apiErrors.ErrRateLimited, "Muitas requisições. Tente novamente mais tarde.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
