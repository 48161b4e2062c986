package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/sales-tracker-api/internal/config"
)

// Sweeper é satisfeito pelo middleware.RateLimiter
type Sweeper interface {
	Sweep() int
}

// RateLimitSweepConfig representa a configuração da limpeza das janelas do rate limit
type RateLimitSweepConfig struct {
	CronSchedule string
	SweepEnabled bool
}

// RateLimitSweepService remove periodicamente as janelas expiradas do rate limit
type RateLimitSweepService struct {
	scheduler     *gocron.Scheduler
	config        RateLimitSweepConfig
	sweeper       Sweeper
	mu            sync.Mutex
	lastSweptAt   time.Time
	lastSweptKeys int
}

func NewRateLimitSweepService(sweeper Sweeper, appConfig *config.Config) *RateLimitSweepService {
	sweepConfig := RateLimitSweepConfig{
		CronSchedule: appConfig.Maintenance.RateLimitSweepCron,
		// sem rate limit não há janelas para limpar
		SweepEnabled: appConfig.Maintenance.RateLimitSweepOn && appConfig.Security.RateLimitEnabled && sweeper != nil,
	}

	logrus.WithFields(logrus.Fields{
		"cron_schedule": sweepConfig.CronSchedule,
		"sweep_enabled": sweepConfig.SweepEnabled,
	}).Info("Configuração da limpeza do rate limit carregada")

	return &RateLimitSweepService{
		scheduler: gocron.NewScheduler(time.UTC),
		config:    sweepConfig,
		sweeper:   sweeper,
	}
}

// Start inicia o agendador
func (s *RateLimitSweepService) Start(ctx context.Context) error {
	if !s.config.SweepEnabled {
		logrus.Info("Limpeza do rate limit desabilitada por configuração")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Iniciando agendador de limpeza do rate limit")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(s.RunSweep)
	if err != nil {
		return fmt.Errorf("erro ao agendar limpeza do rate limit: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de limpeza do rate limit")
		s.scheduler.Stop()
	}()

	return nil
}

// RunSweep executa uma limpeza imediatamente
func (s *RateLimitSweepService) RunSweep() {
	removed := s.sweeper.Sweep()

	s.mu.Lock()
	s.lastSweptAt = time.Now()
	s.lastSweptKeys = removed
	s.mu.Unlock()

	logrus.WithField("removed", removed).Debug("Janelas expiradas do rate limit removidas")
}

// LastSweep devolve quando ocorreu a última limpeza e quantas janelas foram removidas
func (s *RateLimitSweepService) LastSweep() (time.Time, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSweptAt, s.lastSweptKeys
}
