package main

import (
	"context"
	"os"
	"path"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/sales-tracker-api/infrastructure/events"
	"github.com/vfg2006/sales-tracker-api/infrastructure/repository"
	"github.com/vfg2006/sales-tracker-api/internal/api"
	"github.com/vfg2006/sales-tracker-api/internal/config"
	"github.com/vfg2006/sales-tracker-api/internal/metrics"
	"github.com/vfg2006/sales-tracker-api/internal/scheduler"
	"github.com/vfg2006/sales-tracker-api/internal/usecases/selling"
	"github.com/vfg2006/sales-tracker-api/pkg/log"
	"github.com/vfg2006/sales-tracker-api/pkg/middleware"
)

func main() {
	changeToSourceDir()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	log.Setup(cfg.App.LogLevel, cfg.App.IsDevelopment())
	logrus.Infof("Nível de log configurado para: %s", logrus.GetLevel())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	saleRepo, closer, err := repository.OpenSaleRepository(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao abrir o armazenamento de vendas")
	}
	defer closer.Close()

	var registry *metrics.Registry
	if cfg.Metrics.Enabled {
		registry = metrics.NewRegistry()
	}

	publisher := newPublisher(cfg.Events)
	defer publisher.Close()

	salesService := selling.NewService(
		saleRepo,
		publisher,
		selling.WithPublishFailureHook(func(event events.SaleEvent, err error) {
			if registry != nil {
				registry.EventsFailed.Inc()
			}
		}),
	)

	var limiter *middleware.RateLimiter
	var sweeper scheduler.Sweeper
	if cfg.Security.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.Security.RateLimitMax, cfg.Security.RateLimitWindow)
		sweeper = limiter
	}

	sweepService := scheduler.NewRateLimitSweepService(sweeper, cfg)
	if err := sweepService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar a limpeza periódica do rate limit")
	}

	warnDisabledChecks(cfg.Security)

	server, err := api.New(cfg, salesService, limiter, registry)
	if err != nil {
		logrus.Fatal(err)
	}

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

// changeToSourceDir permite encontrar o .env ao rodar com go run de qualquer diretório
func changeToSourceDir() {
	_, file, _, _ := runtime.Caller(0)
	dir := path.Dir(file)
	if err := os.Chdir(dir); err != nil {
		logrus.WithError(err).Debug("Não foi possível mudar para o diretório do binário")
	}
}

func newPublisher(cfg config.Events) events.Publisher {
	if !cfg.Enabled {
		return events.NoopPublisher{}
	}

	logrus.WithFields(logrus.Fields{
		"brokers": cfg.Brokers,
		"topic":   cfg.Topic,
	}).Info("Publicação de eventos de venda habilitada")

	return events.NewKafkaPublisher(cfg)
}

func warnDisabledChecks(sec config.Security) {
	checks := map[string]bool{
		"api_key":      sec.APIKeyEnabled,
		"ip_allowlist": sec.IPAllowlistEnabled,
		"domain_check": sec.DomainCheckEnabled,
		"rate_limit":   sec.RateLimitEnabled,
	}

	for name, enabled := range checks {
		if !enabled {
			logrus.WithField("check", name).Warn("Verificação de acesso desabilitada")
		}
	}
}
