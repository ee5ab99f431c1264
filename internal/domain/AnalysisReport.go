package domain

import "time"

// AnalysisReport é o resultado completo de uma execução do motor de previsão e alertas
type AnalysisReport struct {
	RunID            string            `json:"run_id"`
	GeneratedAt      time.Time         `json:"generated_at"`
	Forecast         *ForecastRun      `json:"forecast"`
	ForecastFailures []ForecastFailure `json:"forecast_failures"`
	KPIs             *KPISet           `json:"kpis"`
	UnitRanking      []UnitRankingItem `json:"unit_ranking"`
	Alerts           []Alert           `json:"alerts"`
}
