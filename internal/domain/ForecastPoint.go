package domain

import (
	"math"
	"time"
)

// AllUnits identifica a série consolidada de todas as unidades de negócio
const AllUnits = "TOTAL"

// Nomes dos modelos de previsão conhecidos
const (
	LinearTrendModel = "linear_trend"
	SeasonalModel    = "seasonal"
)

// ConfidenceInterval representa um intervalo de confiança de uma previsão
type ConfidenceInterval struct {
	Level float64 `json:"level"` // Ex: 0.80, 0.95
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ForecastPoint representa a previsão de receita para um mês futuro
type ForecastPoint struct {
	Period           time.Time            `json:"period"`
	BusinessUnit     string               `json:"business_unit"`
	Components       map[string]float64   `json:"components"` // Previsão de cada modelo, pelo nome
	LinearForecast   float64              `json:"linear_forecast"`
	SeasonalForecast float64              `json:"seasonal_forecast"`
	EnsembleForecast float64              `json:"ensemble_forecast"`
	Intervals        []ConfidenceInterval `json:"intervals"` // Ordenados por nível crescente
}

// Band retorna o intervalo de confiança do nível informado
func (p ForecastPoint) Band(level float64) (ConfidenceInterval, bool) {
	for _, interval := range p.Intervals {
		if math.Abs(interval.Level-level) < 1e-9 {
			return interval, true
		}
	}
	return ConfidenceInterval{}, false
}

// ForecastRun agrupa os pontos de previsão gerados em uma execução
type ForecastRun struct {
	ID                   string          `json:"id"`
	GeneratedAt          time.Time       `json:"generated_at"`
	LastHistoricalPeriod time.Time       `json:"last_historical_period"`
	Points               []ForecastPoint `json:"points"`
	ModelFits            []ModelFit      `json:"model_fits"`
}

// ModelFit guarda o erro de um modelo em uma série, medido nos meses finais do histórico
// depois de ajustar o modelo apenas com os meses anteriores
type ModelFit struct {
	BusinessUnit string `json:"business_unit"`
	Model        string `json:"model"`
	MAE          Metric `json:"mae"`
	MSE          Metric `json:"mse"`
	R2           Metric `json:"r2"` // Não aplicável quando o realizado não varia
}

// SeriesForecast é o resultado da previsão de uma série
type SeriesForecast struct {
	Points []ForecastPoint
	Fits   []ModelFit
}

// ForecastFailure registra uma série que não pôde ser prevista na execução
type ForecastFailure struct {
	BusinessUnit string `json:"business_unit"`
	Reason       string `json:"reason"`
}
