package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/vfg2006/revenue-forecasting-api/internal/config"
	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
	"github.com/vfg2006/revenue-forecasting-api/internal/usecases/analyzing"
	"github.com/vfg2006/revenue-forecasting-api/pkg/apiErrors"
	"github.com/vfg2006/revenue-forecasting-api/pkg/log"
)

// AnalysisSyncService agenda a análise mensal e garante uma única execução por vez
type AnalysisSyncService struct {
	scheduler           *gocron.Scheduler
	config              config.AnalysisSync
	analyzer            analyzing.Analyzer
	syncRunning         bool
	syncMutex           sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
	lastRunID           string
	lastError           string
}

func NewAnalysisSyncService(analyzer analyzing.Analyzer, appConfig *config.Config) *AnalysisSyncService {
	log.L.WithFields(log.Fields{
		"cron_schedule":       appConfig.AnalysisSync.CronSchedule,
		"max_concurrent_jobs": appConfig.AnalysisSync.MaxConcurrentJobs,
		"sync_enabled":        appConfig.AnalysisSync.Enabled,
	}).Info("Configuração do agendador de análise carregada")

	return &AnalysisSyncService{
		scheduler: gocron.NewScheduler(time.Local),
		config:    appConfig.AnalysisSync,
		analyzer:  analyzer,
	}
}

// Start inicia o agendador
func (s *AnalysisSyncService) Start(ctx context.Context) error {
	if !s.config.Enabled {
		log.L.Info("Análise agendada desabilitada por configuração")
		return nil
	}

	log.L.WithField("cron", s.config.CronSchedule).Info("Iniciando agendador de análise")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		s.runInBackground(ctx)
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar análise: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		log.L.Info("Parando agendador de análise")
		s.scheduler.Stop()
	}()

	return nil
}

// RunAnalysis executa a análise de forma síncrona. Retorna erro FCT_003 se outra execução estiver em andamento.
func (s *AnalysisSyncService) RunAnalysis(ctx context.Context) (*domain.AnalysisReport, error) {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		return nil, analyzing.NewAnalysisError(analyzing.ErrAnalysisBusy, apiErrors.ErrAnalysisRunning, "")
	}
	s.syncRunning = true
	s.lastSyncStartedAt = time.Now()
	s.syncMutex.Unlock()

	report, err := s.analyzer.Run(ctx)

	s.syncMutex.Lock()
	defer s.syncMutex.Unlock()

	s.syncRunning = false
	s.lastSyncCompletedAt = time.Now()
	if err != nil {
		s.lastError = err.Error()
		return nil, err
	}

	s.lastError = ""
	s.lastRunID = report.RunID
	return report, nil
}

func (s *AnalysisSyncService) runInBackground(parent context.Context) {
	ctx, _ := log.WithCorrelationID(parent)
	logger := log.ForContext(ctx)

	report, err := s.RunAnalysis(ctx)
	if err != nil {
		logger.WithError(err).Error("Erro na análise agendada")
		return
	}

	logger.WithFields(log.Fields{
		"run_id": report.RunID,
		"alerts": len(report.Alerts),
	}).Info("Análise agendada concluída")
}

// TriggerManualSync dispara a análise em segundo plano
func (s *AnalysisSyncService) TriggerManualSync() {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		log.L.Info("Análise já em andamento, ignorando solicitação manual")
		return
	}
	s.syncMutex.Unlock()

	log.L.Info("Iniciando análise manual")
	go s.runInBackground(context.Background())
}

// GetStatus retorna o status atual do agendador
func (s *AnalysisSyncService) GetStatus() map[string]any {
	s.syncMutex.Lock()
	defer s.syncMutex.Unlock()

	return map[string]any{
		"sync_running":           s.syncRunning,
		"sync_cron":              s.config.CronSchedule,
		"sync_enabled":           s.config.Enabled,
		"last_sync_started_at":   s.lastSyncStartedAt,
		"last_sync_completed_at": s.lastSyncCompletedAt,
		"last_run_id":            s.lastRunID,
		"last_error":             s.lastError,
	}
}
