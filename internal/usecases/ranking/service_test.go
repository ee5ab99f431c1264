package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
)

func TestUnitRankingService_RankUnits(t *testing.T) {
	may := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	june := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	service := NewUnitRankingService()

	tests := []struct {
		name     string
		units    []domain.UnitKPI
		validate func(t *testing.T, result []domain.UnitRankingItem)
	}{
		{
			name:  "Sem KPIs retorna ranking vazio",
			units: nil,
			validate: func(t *testing.T, result []domain.UnitRankingItem) {
				assert.Empty(t, result)
			},
		},
		{
			name: "Unidade sem ranking anterior mantém posição anterior zerada",
			units: []domain.UnitKPI{
				{Period: june, BusinessUnit: "Norte", UnitRevenue: 1000, PerformanceScore: domain.MetricOf(40)},
			},
			validate: func(t *testing.T, result []domain.UnitRankingItem) {
				require.Len(t, result, 1)
				assert.Equal(t, 1, result[0].Position)
				assert.Equal(t, 0, result[0].PositionChange)
				assert.Equal(t, 0, result[0].PreviousPosition)
			},
		},
		{
			name: "Compara posições com o mês anterior",
			units: []domain.UnitKPI{
				{Period: may, BusinessUnit: "Norte", UnitRevenue: 1000, PerformanceScore: domain.MetricOf(80)},
				{Period: may, BusinessUnit: "Sul", UnitRevenue: 900, PerformanceScore: domain.MetricOf(60)},
				{Period: may, BusinessUnit: "Leste", UnitRevenue: 800, PerformanceScore: domain.MetricOf(20)},
				{Period: june, BusinessUnit: "Norte", UnitRevenue: 1000, PerformanceScore: domain.MetricOf(30)},
				{Period: june, BusinessUnit: "Sul", UnitRevenue: 1100, PerformanceScore: domain.MetricOf(70)},
				{Period: june, BusinessUnit: "Leste", UnitRevenue: 950, PerformanceScore: domain.MetricOf(90)},
			},
			validate: func(t *testing.T, result []domain.UnitRankingItem) {
				require.Len(t, result, 3)

				assert.Equal(t, "Leste", result[0].BusinessUnit)
				assert.Equal(t, 1, result[0].Position)
				assert.Equal(t, 2, result[0].PositionChange)
				assert.Equal(t, 3, result[0].PreviousPosition)

				assert.Equal(t, "Sul", result[1].BusinessUnit)
				assert.Equal(t, 0, result[1].PositionChange)

				assert.Equal(t, "Norte", result[2].BusinessUnit)
				assert.Equal(t, -2, result[2].PositionChange)
				assert.Equal(t, june, result[2].Period)
			},
		},
		{
			name: "Score não aplicável fica por último e empates usam a receita",
			units: []domain.UnitKPI{
				{Period: june, BusinessUnit: "Norte", UnitRevenue: 5000, PerformanceScore: domain.NotApplicable()},
				{Period: june, BusinessUnit: "Sul", UnitRevenue: 900, PerformanceScore: domain.MetricOf(50)},
				{Period: june, BusinessUnit: "Leste", UnitRevenue: 1200, PerformanceScore: domain.MetricOf(50)},
			},
			validate: func(t *testing.T, result []domain.UnitRankingItem) {
				require.Len(t, result, 3)
				assert.Equal(t, "Leste", result[0].BusinessUnit)
				assert.Equal(t, "Sul", result[1].BusinessUnit)
				assert.Equal(t, "Norte", result[2].BusinessUnit)
				assert.Equal(t, 3, result[2].Position)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, service.RankUnits(tt.units))
		})
	}
}
