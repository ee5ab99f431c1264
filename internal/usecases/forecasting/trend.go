package forecasting

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/vfg2006/revenue-forecasting-api/internal/config"
	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
)

// TrendModel ajusta uma tendência linear (mínimos quadrados) da receita sobre o índice do mês
type TrendModel struct {
	minPeriods int
}

func NewTrendModel(cfg config.Analytics) Model {
	return &TrendModel{minPeriods: cfg.MinHistoricalPeriods}
}

func (m *TrendModel) Name() string {
	return domain.LinearTrendModel
}

func (m *TrendModel) Fit(history []domain.MonthlyObservation) (FittedModel, error) {
	if err := validateHistory(m.Name(), history, m.minPeriods); err != nil {
		return nil, err
	}

	fitted := fitTrend(history)
	fitted.evaluation = evaluateHoldout(history, func(train []domain.MonthlyObservation) FittedModel {
		return fitTrend(train)
	})

	return fitted, nil
}

func fitTrend(history []domain.MonthlyObservation) *fittedTrend {
	x, y := series(history)
	alpha, beta := stat.LinearRegression(x, y, nil, false)

	residuals := make([]float64, len(y))
	for i := range y {
		residuals[i] = y[i] - (alpha + beta*x[i])
	}

	return &fittedTrend{
		alpha:      alpha,
		beta:       beta,
		n:          len(history),
		lastPeriod: domain.MonthEnd(history[len(history)-1].Period),
		stdDev:     stat.StdDev(residuals, nil),
	}
}

type fittedTrend struct {
	alpha, beta float64
	n           int
	lastPeriod  time.Time
	stdDev      float64
	evaluation  Evaluation
}

func (f *fittedTrend) Name() string {
	return domain.LinearTrendModel
}

func (f *fittedTrend) Project(horizon int) []Projection {
	projections := make([]Projection, 0, horizon)
	for step := 1; step <= horizon; step++ {
		index := float64(f.n - 1 + step)
		projections = append(projections, Projection{
			Period: domain.AddMonths(f.lastPeriod, step),
			Value:  f.alpha + f.beta*index,
		})
	}
	return projections
}

func (f *fittedTrend) ResidualStdDev() float64 {
	return f.stdDev
}

func (f *fittedTrend) Evaluation() Evaluation {
	return f.evaluation
}
