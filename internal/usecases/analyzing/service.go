package analyzing

import (
	"context"
	"sync"
	"time"

	"github.com/vfg2006/revenue-forecasting-api/infrastructure/messaging"
	"github.com/vfg2006/revenue-forecasting-api/infrastructure/repository"
	"github.com/vfg2006/revenue-forecasting-api/internal/config"
	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
	"github.com/vfg2006/revenue-forecasting-api/internal/usecases/alerting"
	"github.com/vfg2006/revenue-forecasting-api/internal/usecases/forecasting"
	"github.com/vfg2006/revenue-forecasting-api/internal/usecases/kpi"
	"github.com/vfg2006/revenue-forecasting-api/internal/usecases/ranking"
	"github.com/vfg2006/revenue-forecasting-api/pkg/apiErrors"
	"github.com/vfg2006/revenue-forecasting-api/pkg/log"
	"github.com/vfg2006/revenue-forecasting-api/pkg/utils"
)

// Analyzer executa uma análise completa: previsões, KPIs, ranking e alertas
type Analyzer interface {
	Run(ctx context.Context) (*domain.AnalysisReport, error)
}

type Service struct {
	revenueRepo       repository.RevenueRepository
	forecastRepo      repository.ForecastRepository
	alertRepo         repository.AlertRepository
	publisher         messaging.AlertPublisher
	forecaster        forecasting.Forecaster
	deriver           kpi.Deriver
	evaluator         alerting.Evaluator
	rankingService    ranking.RankingService
	maxConcurrentJobs int
	now               func() time.Time
}

func NewService(
	revenueRepo repository.RevenueRepository,
	forecastRepo repository.ForecastRepository,
	alertRepo repository.AlertRepository,
	publisher messaging.AlertPublisher,
	cfg *config.Config,
) Analyzer {
	return &Service{
		revenueRepo:       revenueRepo,
		forecastRepo:      forecastRepo,
		alertRepo:         alertRepo,
		publisher:         publisher,
		forecaster:        forecasting.NewEnsembler(cfg.Analytics),
		deriver:           kpi.NewDeriver(cfg.Analytics),
		evaluator:         alerting.NewEngine(cfg.Analytics),
		rankingService:    ranking.NewUnitRankingService(),
		maxConcurrentJobs: max(1, cfg.AnalysisSync.MaxConcurrentJobs),
		now:               time.Now,
	}
}

// series é uma série mensal a ser prevista
type series struct {
	businessUnit string
	history      []domain.MonthlyObservation
}

// forecastResult guarda o resultado de uma série. Cada goroutine escreve apenas no seu índice.
type forecastResult struct {
	forecast *domain.SeriesForecast
	err      error
}

func (s *Service) Run(ctx context.Context) (*domain.AnalysisReport, error) {
	logger := log.ForContext(ctx)
	startTime := s.now()

	observations, err := s.revenueRepo.ListMonthlyObservations(ctx)
	if err != nil {
		return nil, NewAnalysisError(ErrLoadData, apiErrors.ErrDatabaseOperation, err.Error())
	}

	if len(observations) == 0 {
		return nil, NewAnalysisError(ErrNoObservations, apiErrors.ErrNoObservations, "")
	}

	kpiInputs, err := s.revenueRepo.ListKPIObservations(ctx)
	if err != nil {
		return nil, NewAnalysisError(ErrLoadData, apiErrors.ErrDatabaseOperation, err.Error())
	}

	runID, err := utils.GenerateID()
	if err != nil {
		return nil, NewAnalysisError(err, apiErrors.ErrInternalServer, "erro ao gerar id da execução")
	}

	latestPeriod := latestPeriodOf(observations)

	logger.WithFields(log.Fields{
		"run_id":        runID,
		"observations":  len(observations),
		"kpi_inputs":    len(kpiInputs),
		"latest_period": domain.PeriodKey(latestPeriod),
	}).Info("Iniciando análise de previsão e alertas")

	var (
		wg          sync.WaitGroup
		points      []domain.ForecastPoint
		fits        []domain.ModelFit
		failures    []domain.ForecastFailure
		kpis        *domain.KPISet
		unitRanking []domain.UnitRankingItem
		prior       []domain.ForecastPoint
	)

	wg.Add(3)

	go func() {
		defer wg.Done()
		points, fits, failures = s.forecastAll(ctx, observations)
	}()

	go func() {
		defer wg.Done()
		kpis = s.deriver.Derive(observations, kpiInputs)
		unitRanking = s.rankingService.RankUnits(kpis.Units)
	}()

	// A regra de divergência é ignorada se a previsão anterior não puder ser carregada
	go func() {
		defer wg.Done()
		loaded, err := s.forecastRepo.GetByPeriod(ctx, latestPeriod)
		if err != nil {
			logger.WithError(err).Warn("Erro ao carregar previsão anterior, regra de divergência ignorada")
			return
		}
		prior = loaded
	}()

	wg.Wait()

	alerts := s.evaluator.Evaluate(kpis, prior)

	run := &domain.ForecastRun{
		ID:                   runID,
		GeneratedAt:          s.now().UTC(),
		LastHistoricalPeriod: latestPeriod,
		Points:               points,
		ModelFits:            fits,
	}

	if len(points) > 0 {
		if err := s.forecastRepo.SaveRun(ctx, run); err != nil {
			return nil, NewAnalysisError(ErrPersistence, apiErrors.ErrDatabaseOperation, err.Error())
		}
	}

	if err := s.alertRepo.ReplaceAlerts(ctx, runID, latestPeriod, alerts); err != nil {
		return nil, NewAnalysisError(ErrPersistence, apiErrors.ErrDatabaseOperation, err.Error())
	}

	if err := s.publisher.Publish(ctx, runID, alerts); err != nil {
		logger.WithError(err).Error("Erro ao publicar alertas")
	}

	logger.WithFields(log.Fields{
		"run_id":            runID,
		"forecast_points":   len(points),
		"forecast_failures": len(failures),
		"alerts":            len(alerts),
		"duration_ms":       time.Since(startTime).Milliseconds(),
	}).Info("Análise concluída")

	return &domain.AnalysisReport{
		RunID:            runID,
		GeneratedAt:      run.GeneratedAt,
		Forecast:         run,
		ForecastFailures: failures,
		KPIs:             kpis,
		UnitRanking:      unitRanking,
		Alerts:           alerts,
	}, nil
}

// forecastAll prevê cada unidade e a série consolidada. Uma falha em uma série
// é registrada e não interrompe as demais.
func (s *Service) forecastAll(ctx context.Context, observations []domain.MonthlyObservation) ([]domain.ForecastPoint, []domain.ModelFit, []domain.ForecastFailure) {
	logger := log.ForContext(ctx)

	grouped, units := domain.GroupByBusinessUnit(observations)

	allSeries := make([]series, 0, len(units)+1)
	for _, unit := range units {
		allSeries = append(allSeries, series{businessUnit: unit, history: grouped[unit]})
	}
	allSeries = append(allSeries, series{businessUnit: domain.AllUnits, history: domain.AggregateByPeriod(observations)})

	results := make([]forecastResult, len(allSeries))

	semaphore := make(chan struct{}, s.maxConcurrentJobs)
	var wg sync.WaitGroup

	for i, current := range allSeries {
		wg.Add(1)
		semaphore <- struct{}{} // Adquirir semáforo

		go func(index int, item series) {
			defer func() {
				<-semaphore // Liberar semáforo
				wg.Done()
			}()

			forecast, err := s.forecaster.Forecast(item.businessUnit, item.history)
			results[index] = forecastResult{forecast: forecast, err: err}
		}(i, current)
	}

	wg.Wait()

	points := make([]domain.ForecastPoint, 0)
	fits := make([]domain.ModelFit, 0)
	failures := make([]domain.ForecastFailure, 0)

	for i, result := range results {
		if result.err != nil {
			logger.WithError(result.err).WithField("business_unit", allSeries[i].businessUnit).
				Warn("Previsão não gerada para a série")

			failures = append(failures, domain.ForecastFailure{
				BusinessUnit: allSeries[i].businessUnit,
				Reason:       result.err.Error(),
			})
			continue
		}
		points = append(points, result.forecast.Points...)
		fits = append(fits, result.forecast.Fits...)
	}

	return points, fits, failures
}

func latestPeriodOf(observations []domain.MonthlyObservation) time.Time {
	latest := observations[0].Period
	for _, obs := range observations[1:] {
		if obs.Period.After(latest) {
			latest = obs.Period
		}
	}
	return domain.MonthEnd(latest)
}
