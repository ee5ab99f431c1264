package forecasting

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfg2006/revenue-forecasting-api/internal/config"
	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
)

var january2022 = time.Date(2022, 1, 31, 0, 0, 0, 0, time.UTC)

func monthlySeries(start time.Time, revenues []float64) []domain.MonthlyObservation {
	history := make([]domain.MonthlyObservation, len(revenues))
	for i, revenue := range revenues {
		history[i] = domain.MonthlyObservation{
			Period:       domain.AddMonths(start, i),
			BusinessUnit: "Norte",
			Revenue:      revenue,
		}
	}
	return history
}

func linearRevenues(n int, intercept, slope float64) []float64 {
	revenues := make([]float64, n)
	for i := range revenues {
		revenues[i] = intercept + slope*float64(i)
	}
	return revenues
}

// 100 mil crescendo 1% ao mês, com dezembro 5% acima
func decemberBumpRevenues(n int) []float64 {
	revenues := make([]float64, n)
	for i := range revenues {
		revenues[i] = 100000 * math.Pow(1.01, float64(i))
		if domain.AddMonths(january2022, i).Month() == time.December {
			revenues[i] *= 1.05
		}
	}
	return revenues
}

func band(t *testing.T, point domain.ForecastPoint, level float64) domain.ConfidenceInterval {
	t.Helper()
	interval, ok := point.Band(level)
	require.True(t, ok, "intervalo de %.2f ausente", level)
	return interval
}

func TestTrendModel_Fit(t *testing.T) {
	cfg := config.DefaultAnalytics()
	history := monthlySeries(january2022, linearRevenues(24, 1000, 50))

	fitted, err := NewTrendModel(cfg).Fit(history)
	require.NoError(t, err)

	projections := fitted.Project(3)
	require.Len(t, projections, 3)

	assert.Equal(t, domain.LinearTrendModel, fitted.Name())
	assert.InDelta(t, 0, fitted.ResidualStdDev(), 1e-6)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), projections[0].Period)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), projections[1].Period)
	assert.InDelta(t, 1000+50*24, projections[0].Value, 1e-6)
	assert.InDelta(t, 1000+50*26, projections[2].Value, 1e-6)
}

func TestModels_InsufficientHistory(t *testing.T) {
	cfg := config.DefaultAnalytics()

	tests := []struct {
		name     string
		model    Model
		points   int
		required int
	}{
		{
			name:     "Tendência linear com 10 meses",
			model:    NewTrendModel(cfg),
			points:   10,
			required: 24,
		},
		{
			name:     "Sazonal com 23 meses",
			model:    NewSeasonalModel(cfg),
			points:   23,
			required: 24,
		},
		{
			name: "Sazonal respeita o mínimo configurado quando maior que 24",
			model: NewSeasonalModel(config.Analytics{
				MinHistoricalPeriods: 36,
			}),
			points:   30,
			required: 36,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := monthlySeries(january2022, linearRevenues(tt.points, 1000, 10))

			fitted, err := tt.model.Fit(history)

			assert.Nil(t, fitted)
			assert.ErrorIs(t, err, ErrInsufficientHistory)

			var histErr *InsufficientHistoryError
			require.True(t, errors.As(err, &histErr))
			assert.Equal(t, tt.model.Name(), histErr.Model)
			assert.Equal(t, tt.required, histErr.Required)
			assert.Equal(t, tt.points, histErr.Got)
		})
	}
}

func TestModels_NonContiguousHistory(t *testing.T) {
	cfg := config.DefaultAnalytics()
	history := monthlySeries(january2022, linearRevenues(26, 1000, 10))

	// Remove março de 2022
	history = append(history[:2], history[3:]...)

	for _, model := range []Model{NewTrendModel(cfg), NewSeasonalModel(cfg)} {
		_, err := model.Fit(history)
		assert.ErrorIs(t, err, ErrNonContiguousHistory, model.Name())
	}
}

func TestSeasonalModel_FactorsSumToZero(t *testing.T) {
	cfg := config.DefaultAnalytics()
	history := monthlySeries(january2022, decemberBumpRevenues(36))

	fitted, err := NewSeasonalModel(cfg).Fit(history)
	require.NoError(t, err)

	seasonal, ok := fitted.(*fittedSeasonal)
	require.True(t, ok)

	sum := 0.0
	for month := time.January; month <= time.December; month++ {
		sum += seasonal.Factor(month)
	}
	assert.InDelta(t, 0, sum, 1e-6)
	assert.Greater(t, seasonal.Factor(time.December), 0.0)
}

func TestEnsembler_Forecast(t *testing.T) {
	cfg := config.DefaultAnalytics()
	history := monthlySeries(january2022, decemberBumpRevenues(24))

	forecast, err := NewEnsembler(cfg).Forecast("Norte", history)
	require.NoError(t, err)
	points := forecast.Points
	require.Len(t, points, cfg.ForecastHorizonMonths)

	last := history[len(history)-1].Period
	for i, point := range points {
		assert.Equal(t, domain.AddMonths(last, i+1), point.Period, "meses consecutivos após o histórico")
		assert.Equal(t, "Norte", point.BusinessUnit)
		assert.Len(t, point.Components, 2)
		assert.Equal(t, point.Components[domain.LinearTrendModel], point.LinearForecast)
		assert.Equal(t, point.Components[domain.SeasonalModel], point.SeasonalForecast)
		assert.InDelta(t, (point.LinearForecast+point.SeasonalForecast)/2, point.EnsembleForecast, 1e-6)

		band80, band95 := band(t, point, 0.80), band(t, point, 0.95)
		assert.LessOrEqual(t, band95.Lower, band80.Lower)
		assert.LessOrEqual(t, band80.Lower, point.EnsembleForecast)
		assert.LessOrEqual(t, point.EnsembleForecast, band80.Upper)
		assert.LessOrEqual(t, band80.Upper, band95.Upper)

		require.Len(t, point.Intervals, 2)
		assert.Equal(t, 0.80, point.Intervals[0].Level)
		assert.Equal(t, 0.95, point.Intervals[1].Level)

		width80 := band80.Upper - point.EnsembleForecast
		width95 := band95.Upper - point.EnsembleForecast
		require.Greater(t, width80, 0.0)
		assert.InDelta(t, 1.9600/1.2816, width95/width80, 1e-3)
	}

	require.Len(t, forecast.Fits, 2)
	for _, fit := range forecast.Fits {
		assert.Equal(t, "Norte", fit.BusinessUnit)
		assert.True(t, fit.MAE.Valid)
		assert.True(t, fit.MSE.Valid)
	}
}

func TestEnsembler_DecemberBump(t *testing.T) {
	cfg := config.DefaultAnalytics()
	sul := monthlySeries(january2022, decemberBumpRevenues(24))
	for i := range sul {
		sul[i].BusinessUnit = "Sul"
	}

	tests := []struct {
		name    string
		history []domain.MonthlyObservation
	}{
		{
			name:    "Uma unidade",
			history: monthlySeries(january2022, decemberBumpRevenues(24)),
		},
		{
			name:    "Duas unidades consolidadas",
			history: domain.AggregateByPeriod(append(monthlySeries(january2022, decemberBumpRevenues(24)), sul...)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Len(t, tt.history, 24)

			forecast, err := NewEnsembler(cfg).Forecast(tt.history[0].BusinessUnit, tt.history)
			require.NoError(t, err)

			var decemberDiff, bump, maxOtherDiff float64
			for _, point := range forecast.Points {
				diff := point.SeasonalForecast - point.LinearForecast
				if point.Period.Month() == time.December {
					decemberDiff = diff
					bump = 0.05 * point.LinearForecast
					continue
				}
				maxOtherDiff = max(maxOtherDiff, math.Abs(diff))
			}

			require.Greater(t, bump, 0.0)
			assert.Greater(t, decemberDiff, 0.5*bump, "dezembro deve refletir o pico sazonal")
			assert.Less(t, maxOtherDiff, 0.3*bump, "demais meses próximos da tendência")
			assert.Greater(t, decemberDiff, 2*maxOtherDiff)
		})
	}
}

func TestEnsembler_WeightsAndPolicy(t *testing.T) {
	history := monthlySeries(january2022, decemberBumpRevenues(24))

	t.Run("Peso zero para o sazonal usa apenas a tendência", func(t *testing.T) {
		cfg := config.DefaultAnalytics()
		cfg.ModelWeights = map[string]float64{domain.SeasonalModel: 0}

		forecast, err := NewEnsembler(cfg).Forecast("Norte", history)
		require.NoError(t, err)

		for _, point := range forecast.Points {
			assert.InDelta(t, point.LinearForecast, point.EnsembleForecast, 1e-6)
		}
	})

	t.Run("Todos os pesos zero", func(t *testing.T) {
		cfg := config.DefaultAnalytics()
		cfg.ModelWeights = map[string]float64{domain.SeasonalModel: 0, domain.LinearTrendModel: 0}

		_, err := NewEnsembler(cfg).Forecast("Norte", history)
		assert.ErrorIs(t, err, ErrInvalidModelWeights)
	})

	t.Run("Política mean gera intervalos mais estreitos que max", func(t *testing.T) {
		cfgMax := config.DefaultAnalytics()
		cfgMean := config.DefaultAnalytics()
		cfgMean.IntervalPolicy = config.IntervalPolicyMean

		forecastMax, err := NewEnsembler(cfgMax).Forecast("Norte", history)
		require.NoError(t, err)
		forecastMean, err := NewEnsembler(cfgMean).Forecast("Norte", history)
		require.NoError(t, err)

		bandMax := band(t, forecastMax.Points[0], 0.95)
		bandMean := band(t, forecastMean.Points[0], 0.95)
		widthMax := bandMax.Upper - bandMax.Lower
		widthMean := bandMean.Upper - bandMean.Lower
		assert.Less(t, widthMean, widthMax)
	})

	t.Run("Histórico insuficiente interrompe a previsão", func(t *testing.T) {
		cfg := config.DefaultAnalytics()

		_, err := NewEnsembler(cfg).Forecast("Norte", history[:12])
		assert.ErrorIs(t, err, ErrInsufficientHistory)
	})
}

func TestModels_Evaluation(t *testing.T) {
	cfg := config.DefaultAnalytics()

	t.Run("Tendência exata tem erro zero e R² 1", func(t *testing.T) {
		history := monthlySeries(january2022, linearRevenues(30, 1000, 50))

		fitted, err := NewTrendModel(cfg).Fit(history)
		require.NoError(t, err)

		evaluation := fitted.Evaluation()
		require.True(t, evaluation.MAE.Valid)
		assert.InDelta(t, 0, evaluation.MAE.Value, 1e-6)
		assert.InDelta(t, 0, evaluation.MSE.Value, 1e-6)
		require.True(t, evaluation.R2.Valid)
		assert.InDelta(t, 1, evaluation.R2.Value, 1e-6)
	})

	t.Run("Erro medido nos meses finais", func(t *testing.T) {
		revenues := linearRevenues(30, 1000, 50)
		// Os 6 últimos meses (20%) ficam 100 acima da tendência
		for i := 24; i < 30; i++ {
			revenues[i] += 100
		}

		fitted, err := NewTrendModel(cfg).Fit(monthlySeries(january2022, revenues))
		require.NoError(t, err)

		evaluation := fitted.Evaluation()
		assert.InDelta(t, 100, evaluation.MAE.Value, 1e-6)
		assert.InDelta(t, 10000, evaluation.MSE.Value, 1e-6)
	})

	t.Run("Realizado constante não tem R²", func(t *testing.T) {
		fitted, err := NewTrendModel(cfg).Fit(monthlySeries(january2022, linearRevenues(30, 1000, 0)))
		require.NoError(t, err)

		evaluation := fitted.Evaluation()
		assert.InDelta(t, 0, evaluation.MAE.Value, 1e-6)
		assert.False(t, evaluation.R2.Valid)
	})

	t.Run("Sazonal avaliado com pico de dezembro", func(t *testing.T) {
		fitted, err := NewSeasonalModel(cfg).Fit(monthlySeries(january2022, decemberBumpRevenues(36)))
		require.NoError(t, err)

		evaluation := fitted.Evaluation()
		require.True(t, evaluation.MAE.Valid)
		assert.Less(t, evaluation.MAE.Value, 0.05*100000)
	})
}
