package repository

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/sales-tracker-api/infrastructure/database/postgres"
	"github.com/vfg2006/sales-tracker-api/infrastructure/migration"
	"github.com/vfg2006/sales-tracker-api/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenSaleRepository escolhe o armazenamento de vendas conforme STORE_DRIVER.
// O io.Closer devolvido libera a conexão ou o diretório do Pebble.
func OpenSaleRepository(ctx context.Context, cfg *config.Config) (SaleRepository, io.Closer, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		logrus.Warn("Usando armazenamento em memória: os dados são perdidos ao reiniciar")
		return NewSaleMemoryRepository(), nopCloser{}, nil

	case config.StoreDriverPebble:
		repo, err := NewSalePebbleRepository(cfg.Store.PebbleDir)
		if err != nil {
			return nil, nil, fmt.Errorf("abrir pebble em %s: %w", cfg.Store.PebbleDir, err)
		}
		logrus.WithField("dir", cfg.Store.PebbleDir).Info("Armazenamento Pebble aberto com sucesso")
		return repo, repo, nil

	case config.StoreDriverPostgres:
		conn, err := postgres.NewConnection(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("conectar ao postgres: %w", err)
		}
		logrus.Info("Conexão com PostgreSQL estabelecida com sucesso")

		if cfg.Database.AutoMigrate {
			if err := migration.Migrate(ctx, conn); err != nil {
				_ = conn.Close()
				return nil, nil, fmt.Errorf("aplicar schema de vendas: %w", err)
			}
			logrus.Info("Schema de vendas aplicado com sucesso")
		}

		return NewSalePostgresRepository(conn), conn, nil

	default:
		return nil, nil, fmt.Errorf("driver de armazenamento desconhecido: %q", cfg.Store.Driver)
	}
}
