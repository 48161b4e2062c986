// Package migration aplica o schema do Postgres na inicialização
package migration

import (
	"context"
	_ "embed"
	"strings"

	"github.com/pkg/errors"
	"github.com/vfg2006/sales-tracker-api/infrastructure/database/postgres"
	"github.com/vfg2006/sales-tracker-api/pkg/log"
)

//go:embed schema.sql
var schema string

// Statements devolve os comandos do schema na ordem em que devem ser executados
func Statements() []string {
	parts := strings.Split(schema, ";")

	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		if stmt := strings.TrimSpace(part); stmt != "" {
			statements = append(statements, stmt)
		}
	}

	return statements
}

// Migrate executa o schema; todos os comandos são idempotentes
func Migrate(ctx context.Context, conn postgres.Queryer) error {
	statements := Statements()

	for i, stmt := range statements {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "erro ao executar o comando %d do schema", i+1)
		}
	}

	log.ForContext(ctx).Infof("Schema aplicado com sucesso (%d comandos)", len(statements))
	return nil
}
