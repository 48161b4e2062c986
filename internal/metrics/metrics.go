// Package metrics expõe as métricas HTTP da API no formato do Prometheus
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vfg2006/sales-tracker-api/pkg/middleware"
)

type Registry struct {
	reg             *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AccessDenied    *prometheus.CounterVec
	EventsFailed    prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_http_requests_total",
		Help: "Requisições HTTP atendidas, por rota, método e status",
	}, []string{"route", "method", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sales_http_request_duration_seconds",
		Help:    "Duração das requisições HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	denied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_access_denied_total",
		Help: "Requisições rejeitadas pelo controle de acesso, por código",
	}, []string{"code"})

	eventsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sales_events_publish_failed_total",
		Help: "Eventos de venda que não puderam ser publicados",
	})

	r.MustRegister(
		requests,
		duration,
		denied,
		eventsFailed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{
		reg:             r,
		RequestsTotal:   requests,
		RequestDuration: duration,
		AccessDenied:    denied,
		EventsFailed:    eventsFailed,
	}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveRequest registra uma requisição concluída
func (r *Registry) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Instrument envolve o handler de uma rota registrando contagem e duração
func (r *Registry) Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := middleware.NewResponseRecorder(w)

		next.ServeHTTP(rec, req)

		r.ObserveRequest(route, req.Method, rec.Status, time.Since(start))
	})
}
