// Ferramenta de banco de dados para desenvolvimento: cria o schema, carrega dados de exemplo e o administrador
package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vfg2006/revenue-forecasting-api/infrastructure/database/postgres"
	"github.com/vfg2006/revenue-forecasting-api/infrastructure/migration"
	"github.com/vfg2006/revenue-forecasting-api/internal/config"
	"github.com/vfg2006/revenue-forecasting-api/pkg/log"
)

var (
	flagSeed     uint64
	flagMonths   int
	flagStart    string
	flagName     string
	flagEmail    string
	flagPassword string
)

var rootCmd = &cobra.Command{
	Use:           "dbtool",
	Short:         "Schema e dados de exemplo do banco de previsões",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Cria as tabelas que ainda não existem",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withConnection(cmd.Context(), func(ctx context.Context, conn *postgres.Connection) error {
			return migration.Apply(ctx, conn)
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Grava séries mensais de exemplo com tendência, sazonalidade e ruído",
	RunE: func(cmd *cobra.Command, _ []string) error {
		start, err := time.Parse("2006-01", flagStart)
		if err != nil {
			return err
		}

		opts := migration.DefaultSampleOptions()
		opts.Seed = flagSeed
		opts.Months = flagMonths
		opts.Start = start

		return withConnection(cmd.Context(), func(ctx context.Context, conn *postgres.Connection) error {
			if err := migration.Apply(ctx, conn); err != nil {
				return err
			}
			return migration.Seed(ctx, conn, migration.GenerateSampleData(opts))
		})
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Cria ou atualiza o usuário administrador",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withConnection(cmd.Context(), func(ctx context.Context, conn *postgres.Connection) error {
			if err := migration.SeedAdmin(ctx, conn, flagName, flagEmail, flagPassword); err != nil {
				return err
			}
			log.L.WithField("email", flagEmail).Info("Administrador gravado")
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().Uint64Var(&flagSeed, "seed", 42, "Semente do gerador aleatório")
	seedCmd.Flags().IntVar(&flagMonths, "months", 36, "Quantidade de meses por unidade")
	seedCmd.Flags().StringVar(&flagStart, "start", "2021-01", "Primeiro mês (yyyy-mm)")

	adminCmd.Flags().StringVar(&flagName, "name", "Admin", "Nome do administrador")
	adminCmd.Flags().StringVar(&flagEmail, "email", "", "Email do administrador")
	adminCmd.Flags().StringVar(&flagPassword, "password", "", "Senha do administrador")
	_ = adminCmd.MarkFlagRequired("email")
	_ = adminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(migrateCmd, seedCmd, adminCmd)
}

func withConnection(ctx context.Context, fn func(context.Context, *postgres.Connection) error) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	log.Setup(cfg.App.LogLevel)

	conn, err := postgres.NewConnection(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close()

	return fn(ctx, conn)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.L.WithError(err).Error("Erro ao executar dbtool")
		os.Exit(1)
	}
}
