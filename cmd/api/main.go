package main

import (
	"context"

	"github.com/vfg2006/revenue-forecasting-api/infrastructure/database/postgres"
	"github.com/vfg2006/revenue-forecasting-api/infrastructure/messaging/kafka"
	"github.com/vfg2006/revenue-forecasting-api/infrastructure/migration"
	"github.com/vfg2006/revenue-forecasting-api/infrastructure/repository"
	"github.com/vfg2006/revenue-forecasting-api/internal/api"
	"github.com/vfg2006/revenue-forecasting-api/internal/config"
	"github.com/vfg2006/revenue-forecasting-api/internal/scheduler"
	"github.com/vfg2006/revenue-forecasting-api/internal/usecases/analyzing"
	"github.com/vfg2006/revenue-forecasting-api/internal/usecases/authenticating"
	"github.com/vfg2006/revenue-forecasting-api/pkg/log"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.L.WithError(err).Fatal("Configuração inválida")
	}

	log.Setup(cfg.App.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgConn := pgconn(ctx, cfg.Database)
	defer pgConn.Close()

	if cfg.Database.AutoMigrate {
		if err := migration.Apply(ctx, pgConn); err != nil {
			log.L.WithError(err).Fatal("Erro ao aplicar migrações")
		}
	}

	revenueRepo := repository.NewRevenueRepository(pgConn)
	forecastRepo := repository.NewForecastRepository(pgConn)
	alertRepo := repository.NewAlertRepository(pgConn)
	userRepo := repository.NewUserRepository(pgConn)

	authenticator := authenticating.NewService(userRepo, cfg.SecretKey)

	alertPublisher := kafka.NewAlertPublisher(cfg.Kafka)
	defer func() {
		if err := alertPublisher.Close(); err != nil {
			log.L.WithError(err).Warn("Erro ao fechar publicador de alertas")
		}
	}()

	analyzer := analyzing.NewService(revenueRepo, forecastRepo, alertRepo, alertPublisher, cfg)

	analysisSyncService := scheduler.NewAnalysisSyncService(analyzer, cfg)
	if err := analysisSyncService.Start(ctx); err != nil {
		log.L.WithError(err).Error("Erro ao iniciar o agendador de análise")
	} else {
		log.L.Info("Agendador de análise iniciado com sucesso")
	}

	server, err := api.New(
		cfg,
		pgConn,
		authenticator,
		forecastRepo,
		alertRepo,
		analysisSyncService,
	)
	if err != nil {
		log.L.WithError(err).Fatal("Erro ao criar servidor")
	}

	if err := server.Run(ctx); err != nil {
		log.L.Error(err)
	}
}

// pgconn cria uma conexão com o banco de dados
func pgconn(ctx context.Context, dbConfig config.Database) *postgres.Connection {
	conn, err := postgres.NewConnection(ctx, dbConfig)
	if err != nil {
		log.L.WithError(err).Fatal("Erro ao conectar ao PostgreSQL")
	}

	log.L.Info("Conexão com PostgreSQL estabelecida com sucesso")
	return conn
}
