package forecasting

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/vfg2006/revenue-forecasting-api/internal/config"
	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
)

// Duas temporadas completas de 12 meses
const minSeasonalPeriods = 24

// SeasonalModel faz uma decomposição aditiva com período de 12 meses:
// tendência linear mais um fator por mês do calendário.
type SeasonalModel struct {
	minPeriods int
}

func NewSeasonalModel(cfg config.Analytics) Model {
	return &SeasonalModel{minPeriods: max(minSeasonalPeriods, cfg.MinHistoricalPeriods)}
}

func (m *SeasonalModel) Name() string {
	return domain.SeasonalModel
}

func (m *SeasonalModel) Fit(history []domain.MonthlyObservation) (FittedModel, error) {
	if err := validateHistory(m.Name(), history, m.minPeriods); err != nil {
		return nil, err
	}

	fitted := fitSeasonal(history)
	fitted.evaluation = evaluateHoldout(history, func(train []domain.MonthlyObservation) FittedModel {
		return fitSeasonal(train)
	})

	return fitted, nil
}

// fitSeasonal estima os fatores com os meses disponíveis. Mês sem observação fica com fator zero.
func fitSeasonal(history []domain.MonthlyObservation) *fittedSeasonal {
	x, y := series(history)

	// Tendência provisória, apenas para isolar a sazonalidade
	alpha, beta := stat.LinearRegression(x, y, nil, false)

	var sums [12]float64
	var counts [12]int
	for i, obs := range history {
		month := int(obs.Period.Month()) - 1
		sums[month] += y[i] - (alpha + beta*x[i])
		counts[month]++
	}

	var factors [12]float64
	for month := range factors {
		if counts[month] > 0 {
			factors[month] = sums[month] / float64(counts[month])
		}
	}

	// Fatores centralizados para somarem zero
	centre := stat.Mean(factors[:], nil)
	for month := range factors {
		factors[month] -= centre
	}

	deseasonalized := make([]float64, len(y))
	for i, obs := range history {
		deseasonalized[i] = y[i] - factors[int(obs.Period.Month())-1]
	}

	alpha, beta = stat.LinearRegression(x, deseasonalized, nil, false)

	residuals := make([]float64, len(y))
	for i := range deseasonalized {
		residuals[i] = deseasonalized[i] - (alpha + beta*x[i])
	}

	return &fittedSeasonal{
		alpha:      alpha,
		beta:       beta,
		factors:    factors,
		n:          len(history),
		lastPeriod: domain.MonthEnd(history[len(history)-1].Period),
		stdDev:     stat.StdDev(residuals, nil),
	}
}

type fittedSeasonal struct {
	alpha, beta float64
	factors     [12]float64
	n           int
	lastPeriod  time.Time
	stdDev      float64
	evaluation  Evaluation
}

func (f *fittedSeasonal) Name() string {
	return domain.SeasonalModel
}

func (f *fittedSeasonal) Project(horizon int) []Projection {
	projections := make([]Projection, 0, horizon)
	for step := 1; step <= horizon; step++ {
		period := domain.AddMonths(f.lastPeriod, step)
		trend := f.alpha + f.beta*float64(f.n-1+step)
		projections = append(projections, Projection{
			Period: period,
			Value:  trend + f.factors[int(period.Month())-1],
		})
	}
	return projections
}

func (f *fittedSeasonal) ResidualStdDev() float64 {
	return f.stdDev
}

func (f *fittedSeasonal) Evaluation() Evaluation {
	return f.evaluation
}

// Factor retorna o fator sazonal estimado para o mês do calendário
func (f *fittedSeasonal) Factor(month time.Month) float64 {
	return f.factors[int(month)-1]
}
