// Package migration cria o schema do banco e carrega dados de exemplo para desenvolvimento
package migration

import (
	"context"
	"database/sql"
	_ "embed"
	"strings"

	"github.com/pkg/errors"

	"github.com/vfg2006/revenue-forecasting-api/infrastructure/database/postgres"
	"github.com/vfg2006/revenue-forecasting-api/pkg/log"
)

//go:embed schema.sql
var schema string

// Statements retorna os comandos do schema, na ordem em que devem ser executados
func Statements() []string {
	statements := make([]string, 0)
	for _, statement := range strings.Split(schema, ";") {
		if trimmed := strings.TrimSpace(statement); trimmed != "" {
			statements = append(statements, trimmed)
		}
	}
	return statements
}

// Apply cria as tabelas que ainda não existem. Pode ser executado a cada inicialização.
func Apply(ctx context.Context, conn postgres.Conn) error {
	statements := Statements()

	err := conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		for _, statement := range statements {
			if _, err := tx.ExecContext(ctx, statement); err != nil {
				return errors.Wrapf(err, "erro ao executar migração: %s", firstLine(statement))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.L.WithField("statements", len(statements)).Info("Schema do banco de dados atualizado")
	return nil
}

func firstLine(statement string) string {
	line, _, _ := strings.Cut(statement, "\n")
	return line
}
