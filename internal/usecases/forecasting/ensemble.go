package forecasting

import (
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/vfg2006/revenue-forecasting-api/internal/config"
	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
)

// Forecaster gera a previsão combinada de uma série mensal
type Forecaster interface {
	Forecast(businessUnit string, history []domain.MonthlyObservation) (*domain.SeriesForecast, error)
}

// Ensembler combina as projeções de vários modelos em uma média ponderada
// com intervalos de confiança baseados no desvio padrão dos resíduos.
type Ensembler struct {
	models  []Model
	weights map[string]float64
	levels  []float64
	policy  string
	horizon int
}

// NewEnsembler cria o combinador. Sem modelos informados, usa tendência linear e sazonal.
func NewEnsembler(cfg config.Analytics, models ...Model) Forecaster {
	if len(models) == 0 {
		models = []Model{NewTrendModel(cfg), NewSeasonalModel(cfg)}
	}

	levels := append([]float64(nil), cfg.ConfidenceIntervals...)
	sort.Float64s(levels)

	return &Ensembler{
		models:  models,
		weights: cfg.ModelWeights,
		levels:  levels,
		policy:  cfg.IntervalPolicy,
		horizon: cfg.ForecastHorizonMonths,
	}
}

func (e *Ensembler) Forecast(businessUnit string, history []domain.MonthlyObservation) (*domain.SeriesForecast, error) {
	if len(e.models) == 0 {
		return nil, ErrNoModels
	}

	fitted := make([]FittedModel, 0, len(e.models))
	for _, model := range e.models {
		fit, err := model.Fit(history)
		if err != nil {
			return nil, err
		}
		fitted = append(fitted, fit)
	}

	weights := make([]float64, len(fitted))
	totalWeight := 0.0
	for i, fit := range fitted {
		weights[i] = e.weightOf(fit.Name())
		totalWeight += weights[i]
	}
	if totalWeight == 0 {
		return nil, ErrInvalidModelWeights
	}

	sigma := e.sigma(fitted)

	zScores := make([]float64, len(e.levels))
	for i, level := range e.levels {
		zScores[i] = distuv.UnitNormal.Quantile(0.5 + level/2)
	}

	projections := make([][]Projection, len(fitted))
	for i, fit := range fitted {
		projections[i] = fit.Project(e.horizon)
	}

	points := make([]domain.ForecastPoint, 0, e.horizon)
	for step := 0; step < e.horizon; step++ {
		point := domain.ForecastPoint{
			Period:       projections[0][step].Period,
			BusinessUnit: businessUnit,
			Components:   make(map[string]float64, len(fitted)),
			Intervals:    make([]domain.ConfidenceInterval, 0, len(e.levels)),
		}

		weighted := 0.0
		for i, fit := range fitted {
			value := projections[i][step].Value
			point.Components[fit.Name()] = value
			weighted += weights[i] * value
		}

		point.LinearForecast = point.Components[domain.LinearTrendModel]
		point.SeasonalForecast = point.Components[domain.SeasonalModel]
		point.EnsembleForecast = weighted / totalWeight

		for i, level := range e.levels {
			margin := zScores[i] * sigma
			point.Intervals = append(point.Intervals, domain.ConfidenceInterval{
				Level: level,
				Lower: point.EnsembleForecast - margin,
				Upper: point.EnsembleForecast + margin,
			})
		}

		points = append(points, point)
	}

	fits := make([]domain.ModelFit, 0, len(fitted))
	for _, fit := range fitted {
		evaluation := fit.Evaluation()
		fits = append(fits, domain.ModelFit{
			BusinessUnit: businessUnit,
			Model:        fit.Name(),
			MAE:          evaluation.MAE,
			MSE:          evaluation.MSE,
			R2:           evaluation.R2,
		})
	}

	return &domain.SeriesForecast{Points: points, Fits: fits}, nil
}

// weightOf retorna o peso configurado para o modelo. Modelos sem peso recebem 1.
func (e *Ensembler) weightOf(name string) float64 {
	if weight, ok := e.weights[name]; ok {
		return weight
	}
	return 1
}

// sigma escolhe o desvio padrão dos intervalos conforme a política configurada
func (e *Ensembler) sigma(fitted []FittedModel) float64 {
	stdDevs := make([]float64, len(fitted))
	for i, fit := range fitted {
		stdDevs[i] = fit.ResidualStdDev()
	}

	if e.policy == config.IntervalPolicyMean {
		return stat.Mean(stdDevs, nil)
	}

	sigma := stdDevs[0]
	for _, stdDev := range stdDevs[1:] {
		sigma = max(sigma, stdDev)
	}
	return sigma
}
