package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justinas/alice"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/sales-tracker-api/internal/api/handler"
	"github.com/vfg2006/sales-tracker-api/internal/api/handler/router"
	"github.com/vfg2006/sales-tracker-api/internal/config"
	"github.com/vfg2006/sales-tracker-api/internal/metrics"
	"github.com/vfg2006/sales-tracker-api/internal/usecases/selling"
	"github.com/vfg2006/sales-tracker-api/pkg/middleware"
)

type Server struct {
	httpServer *http.Server
}

// NewHandler monta o roteador e a cadeia de middlewares. limiter e registry podem ser nil.
func NewHandler(
	config *config.Config,
	salesService selling.SalesService,
	limiter *middleware.RateLimiter,
	registry *metrics.Registry,
) http.Handler {
	opts := handler.SalesOptions{
		Limits: selling.QueryLimits{
			DefaultLimit: config.Pagination.DefaultLimit,
			MaxLimit:     config.Pagination.MaxLimit,
		},
		Development: config.Security.Development,
	}

	routerConfigs := []router.ConfigRouter{
		router.WithNotFound(handler.NotFound()),
		router.WithMethodNotAllowed(handler.MethodNotAllowed()),
	}

	var onDenied middleware.DeniedFunc
	if registry != nil {
		routerConfigs = append(routerConfigs, router.WithInstrumentation(registry.Instrument))
		onDenied = func(_ *http.Request, code string) {
			registry.AccessDenied.WithLabelValues(code).Inc()
		}
	}

	routerConfigs = append(routerConfigs,
		router.WithRoutes(handler.Healthcheck()...),
		router.WithRoutes(handler.Sales(salesService, opts)...),
	)

	if registry != nil {
		routerConfigs = append(routerConfigs, router.WithRoutes(handler.Metrics(registry)...))
	}

	rt := router.New(routerConfigs...)

	middlewares := []alice.Constructor{
		middleware.LoggingMiddleware(config.Security.TrustProxy),
		middleware.LogPanicMiddleware(),
		middleware.RateLimit(limiter, config.Security.TrustProxy, onDenied),
		middleware.Cors(config.Security.AllowedOrigins),
		middleware.IPAllowlist(config.Security, onDenied),
		middleware.DomainCheck(config.Security, onDenied),
		middleware.APIKeyAuth(config.Security, onDenied),
	}

	return alice.New(middlewares...).Then(rt)
}

func New(
	config *config.Config,
	salesService selling.SalesService,
	limiter *middleware.RateLimiter,
	registry *metrics.Registry,
) (*Server, error) {
	srv := &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
			Handler:           NewHandler(config, salesService, limiter, registry),
			ReadHeaderTimeout: 2 * time.Second,
		},
	}

	return srv, nil
}

func (s Server) Run(ctx context.Context) error {
	go func() {
		logrus.WithFields(logrus.Fields{
			"address": s.httpServer.Addr,
		}).Info("Servidor iniciando")

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("Erro durante a execução do servidor")
		}
	}()

	// Canal para aguardar sinais de término
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
		logrus.Info("Sinal de interrupção recebido")
	case <-ctx.Done():
		logrus.Info("Contexto de aplicação cancelado")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logrus.WithFields(logrus.Fields{
		"timeout": "15s",
	}).Info("Iniciando desligamento gracioso do servidor")

	if err := s.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Erro durante o desligamento do servidor")
		return err
	}

	logrus.Info("Servidor desligado com sucesso")
	return nil
}

func (s Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		return err
	}

	logrus.Info("Servidor HTTP desligado com sucesso")
	return nil
}
