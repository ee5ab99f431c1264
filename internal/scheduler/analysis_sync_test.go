package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vfg2006/revenue-forecasting-api/internal/config"
	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
	"github.com/vfg2006/revenue-forecasting-api/internal/usecases/analyzing"
	"github.com/vfg2006/revenue-forecasting-api/internal/usecases/analyzing/mocks"
	"github.com/vfg2006/revenue-forecasting-api/pkg/apiErrors"
	"github.com/vfg2006/revenue-forecasting-api/pkg/log"
)

func newTestConfig(enabled bool, cron string) *config.Config {
	return &config.Config{
		AnalysisSync: config.AnalysisSync{
			CronSchedule:      cron,
			Enabled:           enabled,
			MaxConcurrentJobs: 2,
		},
	}
}

func TestAnalysisSyncService_RunAnalysis(t *testing.T) {
	log.SetupTestLogger()

	t.Run("Execução com sucesso atualiza o status", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockAnalyzer := mocks.NewMockAnalyzer(ctrl)
		service := NewAnalysisSyncService(mockAnalyzer, newTestConfig(false, "0 6 1 * *"))

		mockAnalyzer.EXPECT().Run(gomock.Any()).Return(&domain.AnalysisReport{RunID: "abc123def456"}, nil)

		report, err := service.RunAnalysis(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "abc123def456", report.RunID)

		status := service.GetStatus()
		assert.Equal(t, false, status["sync_running"])
		assert.Equal(t, "abc123def456", status["last_run_id"])
		assert.Equal(t, "", status["last_error"])
		assert.False(t, status["last_sync_completed_at"].(time.Time).IsZero())
	})

	t.Run("Erro da análise é registrado no status", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockAnalyzer := mocks.NewMockAnalyzer(ctrl)
		service := NewAnalysisSyncService(mockAnalyzer, newTestConfig(false, "0 6 1 * *"))

		mockAnalyzer.EXPECT().Run(gomock.Any()).Return(nil, errors.New("falhou"))

		_, err := service.RunAnalysis(context.Background())
		require.Error(t, err)
		assert.Equal(t, "falhou", service.GetStatus()["last_error"])
	})

	t.Run("Segunda execução simultânea é rejeitada", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockAnalyzer := mocks.NewMockAnalyzer(ctrl)
		service := NewAnalysisSyncService(mockAnalyzer, newTestConfig(false, "0 6 1 * *"))

		started := make(chan struct{})
		release := make(chan struct{})

		mockAnalyzer.EXPECT().Run(gomock.Any()).
			DoAndReturn(func(ctx context.Context) (*domain.AnalysisReport, error) {
				close(started)
				<-release
				return &domain.AnalysisReport{RunID: "first"}, nil
			}).
			Times(1)

		done := make(chan error, 1)
		go func() {
			_, err := service.RunAnalysis(context.Background())
			done <- err
		}()

		<-started
		assert.Equal(t, true, service.GetStatus()["sync_running"])

		_, err := service.RunAnalysis(context.Background())
		require.ErrorIs(t, err, analyzing.ErrAnalysisBusy)

		var analysisErr *analyzing.AnalysisError
		require.ErrorAs(t, err, &analysisErr)
		assert.Equal(t, apiErrors.ErrAnalysisRunning, analysisErr.Code)

		close(release)
		require.NoError(t, <-done)
	})
}

func TestAnalysisSyncService_TriggerManualSync(t *testing.T) {
	log.SetupTestLogger()

	ctrl := gomock.NewController(t)
	mockAnalyzer := mocks.NewMockAnalyzer(ctrl)
	service := NewAnalysisSyncService(mockAnalyzer, newTestConfig(false, "0 6 1 * *"))

	done := make(chan struct{})
	mockAnalyzer.EXPECT().Run(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (*domain.AnalysisReport, error) {
			defer close(done)
			assert.NotEmpty(t, log.GetCorrelationID(ctx))
			return &domain.AnalysisReport{RunID: "manual"}, nil
		})

	service.TriggerManualSync()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("análise manual não foi executada")
	}

	assert.Eventually(t, func() bool {
		return service.GetStatus()["last_run_id"] == "manual"
	}, time.Second, 10*time.Millisecond)
}

func TestAnalysisSyncService_Start(t *testing.T) {
	log.SetupTestLogger()

	t.Run("Desabilitado não agenda", func(t *testing.T) {
		service := NewAnalysisSyncService(nil, newTestConfig(false, "invalido"))
		assert.NoError(t, service.Start(context.Background()))
	})

	t.Run("Expressão cron inválida", func(t *testing.T) {
		service := NewAnalysisSyncService(nil, newTestConfig(true, "invalido"))
		assert.Error(t, service.Start(context.Background()))
	})

	t.Run("Agenda e para com o contexto", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		service := NewAnalysisSyncService(nil, newTestConfig(true, "0 6 1 * *"))

		require.NoError(t, service.Start(ctx))
		assert.Len(t, service.scheduler.Jobs(), 1)

		cancel()
		assert.Eventually(t, func() bool {
			return !service.scheduler.IsRunning()
		}, time.Second, 10*time.Millisecond)
	})
}
