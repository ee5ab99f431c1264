package domain

import "time"

// UnitRankingItem representa a posição de uma unidade de negócio no ranking de desempenho
type UnitRankingItem struct {
	BusinessUnit     string    `json:"business_unit"`
	Period           time.Time `json:"period"`
	PerformanceScore Metric    `json:"performance_score"`
	UnitRevenue      float64   `json:"unit_revenue"`
	Position         int       `json:"position"`
	PositionChange   int       `json:"position_change"` // Valor positivo = subiu, negativo = desceu, 0 = manteve
	PreviousPosition int       `json:"previous_position"`
}
