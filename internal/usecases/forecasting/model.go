package forecasting

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
)

// Fração inicial do histórico usada no ajuste da avaliação. O restante mede o erro.
const trainShare = 0.8

// Projection é o valor projetado por um modelo para um mês futuro
type Projection struct {
	Period time.Time
	Value  float64
}

// Model é um modelo de previsão capaz de se ajustar a uma série histórica mensal
type Model interface {
	Name() string
	Fit(history []domain.MonthlyObservation) (FittedModel, error)
}

// FittedModel é um modelo já ajustado, pronto para projetar meses futuros
type FittedModel interface {
	Name() string
	Project(horizon int) []Projection
	ResidualStdDev() float64
	Evaluation() Evaluation
}

// Evaluation é o erro de previsão do modelo nos meses finais do histórico
type Evaluation struct {
	MAE domain.Metric
	MSE domain.Metric
	R2  domain.Metric
}

func notEvaluated() Evaluation {
	return Evaluation{MAE: domain.NotApplicable(), MSE: domain.NotApplicable(), R2: domain.NotApplicable()}
}

// evaluateHoldout ajusta o modelo com os primeiros 80% do histórico e compara a projeção
// com os meses restantes
func evaluateHoldout(history []domain.MonthlyObservation, fit func([]domain.MonthlyObservation) FittedModel) Evaluation {
	split := int(float64(len(history)) * trainShare)
	if split < 2 || split >= len(history) {
		return notEvaluated()
	}

	projections := fit(history[:split]).Project(len(history) - split)

	actual := make([]float64, len(projections))
	estimates := make([]float64, len(projections))
	var absErrors, squaredErrors float64
	for i, projection := range projections {
		actual[i] = history[split+i].Revenue
		estimates[i] = projection.Value

		diff := actual[i] - estimates[i]
		absErrors += math.Abs(diff)
		squaredErrors += diff * diff
	}

	n := float64(len(actual))
	evaluation := Evaluation{
		MAE: domain.MetricOf(absErrors / n),
		MSE: domain.MetricOf(squaredErrors / n),
		R2:  domain.NotApplicable(),
	}

	if len(actual) > 1 && stat.Variance(actual, nil) > 0 {
		evaluation.R2 = domain.MetricOf(stat.RSquaredFrom(estimates, actual, nil))
	}

	return evaluation
}

// validateHistory garante tamanho mínimo e meses consecutivos em ordem crescente
func validateHistory(model string, history []domain.MonthlyObservation, required int) error {
	if len(history) < required {
		return &InsufficientHistoryError{Model: model, Required: required, Got: len(history)}
	}

	for i := 1; i < len(history); i++ {
		if domain.MonthIndex(history[i].Period) != domain.MonthIndex(history[i-1].Period)+1 {
			return fmt.Errorf("%w: %s seguido de %s",
				ErrNonContiguousHistory,
				domain.PeriodKey(history[i-1].Period),
				domain.PeriodKey(history[i].Period),
			)
		}
	}

	return nil
}

// series extrai o índice de meses (base zero) e a receita da série
func series(history []domain.MonthlyObservation) (x, y []float64) {
	x = make([]float64, len(history))
	y = make([]float64, len(history))
	for i, obs := range history {
		x[i] = float64(i)
		y[i] = obs.Revenue
	}
	return x, y
}
