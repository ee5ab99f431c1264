package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfg2006/revenue-forecasting-api/internal/config"
	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
)

var january2023 = time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)

func observation(unit string, month int, revenue float64, customers int, spend float64, team int) domain.MonthlyObservation {
	return domain.MonthlyObservation{
		Period:         domain.AddMonths(january2023, month),
		BusinessUnit:   unit,
		Revenue:        revenue,
		CustomerCount:  customers,
		MarketingSpend: spend,
		SalesTeamSize:  team,
	}
}

func findUnit(t *testing.T, records []domain.UnitKPI, unit string, month int) domain.UnitKPI {
	t.Helper()
	period := domain.AddMonths(january2023, month)
	for _, record := range records {
		if record.BusinessUnit == unit && record.Period.Equal(period) {
			return record
		}
	}
	t.Fatalf("unidade %s sem KPI para %s", unit, domain.PeriodKey(period))
	return domain.UnitKPI{}
}

func TestKPIDeriver_Derive_UnitKPIs(t *testing.T) {
	deriver := NewDeriver(config.DefaultAnalytics())

	observations := []domain.MonthlyObservation{
		observation("Norte", 0, 1000, 200, 100, 2),
		observation("Sul", 0, 1000, 100, 100, 2),
		observation("Norte", 1, 1100, 205, 100, 2),
		observation("Sul", 1, 900, 100, 100, 2),
	}

	set := deriver.Derive(observations, nil)

	require.Len(t, set.Monthly, 2)
	require.Len(t, set.Units, 4)
	require.Len(t, set.Advanced, 4)

	tests := []struct {
		name          string
		unit          string
		month         int
		expectedScore domain.Metric
		expectedShare float64
	}{
		{
			name:          "Primeiro mês sem crescimento aplicável",
			unit:          "Norte",
			month:         0,
			expectedScore: domain.NotApplicable(),
			expectedShare: 0.5,
		},
		{
			name:          "Crescimento acima da meta e clientes pela metade da meta",
			unit:          "Norte",
			month:         1,
			expectedScore: domain.MetricOf(76.5),
			expectedShare: 0.55,
		},
		{
			name:          "Queda de receita pontua apenas a participação",
			unit:          "Sul",
			month:         1,
			expectedScore: domain.MetricOf(13.5),
			expectedShare: 0.45,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := findUnit(t, set.Units, tt.unit, tt.month)

			assert.Equal(t, tt.expectedScore.Valid, record.PerformanceScore.Valid)
			assert.InDelta(t, tt.expectedScore.Value, record.PerformanceScore.Value, 1e-9)
			assert.InDelta(t, tt.expectedShare, record.MarketShare.Value, 1e-9)
		})
	}

	february := set.Monthly[1]
	assert.Equal(t, 2000.0, february.TotalRevenue)
	assert.True(t, february.RevenueGrowthMoM.Valid)
	assert.InDelta(t, 0, february.RevenueGrowthMoM.Value, 1e-9)
	assert.Equal(t, domain.MetricOf(1000), february.AvgRevenuePerUnit)
	assert.Equal(t, 305, february.TotalCustomers)
}

func TestKPIDeriver_Derive_GrowthNotApplicable(t *testing.T) {
	deriver := NewDeriver(config.DefaultAnalytics())

	observations := make([]domain.MonthlyObservation, 0, 13)
	for month := 0; month < 13; month++ {
		observations = append(observations, observation("Norte", month, 1000+float64(month)*10, 100, 50, 5))
	}

	t.Run("YoY não aplicável sem 12 meses de defasagem", func(t *testing.T) {
		set := deriver.Derive(observations[:12], nil)

		for _, record := range set.Monthly {
			assert.False(t, record.RevenueGrowthYoY.Valid, domain.PeriodKey(record.Period))
			assert.False(t, record.TargetAchievement.Valid)
		}
		assert.False(t, set.Monthly[0].RevenueGrowthMoM.Valid)
		assert.False(t, set.Monthly[10].Revenue12MAvg.Valid)
		assert.True(t, set.Monthly[11].Revenue12MAvg.Valid)
	})

	t.Run("YoY aplicável no décimo terceiro mês", func(t *testing.T) {
		set := deriver.Derive(observations, nil)

		last := set.Monthly[12]
		assert.True(t, last.RevenueGrowthYoY.Valid)
		assert.InDelta(t, 1120.0/1000.0-1, last.RevenueGrowthYoY.Value, 1e-9)
		assert.InDelta(t, (1120.0/1000.0-1)/0.15, last.TargetAchievement.Value, 1e-9)
	})

	t.Run("Mês ausente torna o MoM seguinte não aplicável", func(t *testing.T) {
		withGap := append(append([]domain.MonthlyObservation{}, observations[:3]...), observations[4:6]...)

		set := deriver.Derive(withGap, nil)

		require.Len(t, set.Monthly, 5)
		assert.True(t, set.Monthly[2].RevenueGrowthMoM.Valid)
		assert.False(t, set.Monthly[3].RevenueGrowthMoM.Valid)
		assert.False(t, set.Monthly[3].Revenue3MAvg.Valid)
		assert.True(t, set.Monthly[4].RevenueGrowthMoM.Valid)
	})
}

func TestKPIDeriver_Derive_AdvancedKPIs(t *testing.T) {
	deriver := NewDeriver(config.DefaultAnalytics())

	observations := []domain.MonthlyObservation{
		observation("Norte", 0, 1000, 100, 3000, 0),
		observation("Norte", 1, 0, 100, 100, 4),
		observation("Norte", 2, 2000, 100, 200, 4),
	}
	kpiInputs := []domain.KPIObservation{
		{Period: domain.AddMonths(january2023, 0), CustomerAcquisitionCost: 0, CustomerLifetimeValue: 900, ChurnRate: 0.04, RetentionRate: 0.92, NetPromoterScore: 60},
		{Period: domain.AddMonths(january2023, 1), CustomerAcquisitionCost: 100, CustomerLifetimeValue: 450, ChurnRate: 0.10, RetentionRate: 0.80, NetPromoterScore: 40},
	}

	var set *domain.KPISet
	require.NotPanics(t, func() {
		set = deriver.Derive(observations, kpiInputs)
	})
	require.Len(t, set.Advanced, 3)

	t.Run("CAC zero torna a razão CLV/CAC não aplicável", func(t *testing.T) {
		record := set.Advanced[0]
		assert.False(t, record.CLVCACRatio.Valid)
		assert.False(t, record.RevenuePerEmployee.Valid)
		assert.Equal(t, domain.MetricOf(-1), record.MarginEstimate, "margem limitada em -1")
		assert.InDelta(t, 0.5*0.92+0.5*0.96, record.RevenueQualityScore.Value, 1e-9)
	})

	t.Run("Receita zero torna a margem não aplicável", func(t *testing.T) {
		record := set.Advanced[1]
		assert.Equal(t, domain.MetricOf(4.5), record.CLVCACRatio)
		assert.False(t, record.MarginEstimate.Valid)
		assert.Equal(t, domain.MetricOf(0), record.RevenuePerEmployee)
	})

	t.Run("Sem indicadores de clientes no período", func(t *testing.T) {
		record := set.Advanced[2]
		assert.False(t, record.CLVCACRatio.Valid)
		assert.False(t, record.ChurnRate.Valid)
		assert.False(t, record.NetPromoterScore.Valid)
		assert.Equal(t, domain.MetricOf(500), record.RevenuePerEmployee)
		assert.InDelta(t, 0.9, record.MarginEstimate.Value, 1e-9)
	})

	t.Run("Crescimento a partir de receita zero não é aplicável", func(t *testing.T) {
		record := findUnit(t, set.Units, "Norte", 2)
		assert.False(t, record.UnitGrowthRate.Valid)
		assert.False(t, record.PerformanceScore.Valid)
	})
}

func TestKPIDeriver_Derive_Idempotent(t *testing.T) {
	deriver := NewDeriver(config.DefaultAnalytics())

	observations := []domain.MonthlyObservation{
		observation("Sul", 0, 800, 80, 40, 3),
		observation("Norte", 0, 1000, 100, 50, 4),
		observation("Sul", 1, 850, 82, 40, 3),
		observation("Norte", 1, 950, 98, 55, 4),
	}
	kpiInputs := []domain.KPIObservation{
		{Period: domain.AddMonths(january2023, 1), CustomerAcquisitionCost: 120, CustomerLifetimeValue: 600, ChurnRate: 0.03, RetentionRate: 0.95, NetPromoterScore: 55},
	}

	first := deriver.Derive(observations, kpiInputs)
	second := deriver.Derive(observations, kpiInputs)

	assert.Equal(t, first, second)
	assert.Equal(t, "Norte", first.Units[0].BusinessUnit, "ordenado por período e unidade")
	assert.Equal(t, "Sul", first.Units[1].BusinessUnit)
}

func TestKPIDeriver_Derive_UnitRevenueStats(t *testing.T) {
	deriver := NewDeriver(config.DefaultAnalytics())

	// Fora de ordem e atravessando a virada de 2023 para 2024
	observations := []domain.MonthlyObservation{
		observation("Norte", 12, 300, 10, 0, 1),
		observation("Norte", 10, 100, 10, 0, 1),
		observation("Norte", 13, 500, 10, 0, 1),
		observation("Norte", 11, 200, 10, 0, 1),
	}

	set := deriver.Derive(observations, nil)

	tests := []struct {
		name               string
		month              int
		expectedYTD        float64
		expectedAvg        float64
		expectedVolatility domain.Metric
	}{
		{
			name:               "Primeiro mês sem volatilidade",
			month:              10,
			expectedYTD:        100,
			expectedAvg:        100,
			expectedVolatility: domain.NotApplicable(),
		},
		{
			name:               "Dezembro acumula o ano",
			month:              11,
			expectedYTD:        300,
			expectedAvg:        150,
			expectedVolatility: domain.MetricOf(0.4714),
		},
		{
			name:               "Janeiro reinicia o acumulado do ano",
			month:              12,
			expectedYTD:        300,
			expectedAvg:        200,
			expectedVolatility: domain.MetricOf(0.5),
		},
		{
			name:               "Fevereiro usa todo o histórico até o mês",
			month:              13,
			expectedYTD:        800,
			expectedAvg:        275,
			expectedVolatility: domain.MetricOf(0.6210),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := findUnit(t, set.Units, "Norte", tt.month)

			assert.InDelta(t, tt.expectedYTD, record.YTDRevenue, 1e-9)
			require.True(t, record.AvgMonthlyRevenue.Valid)
			assert.InDelta(t, tt.expectedAvg, record.AvgMonthlyRevenue.Value, 1e-9)
			assert.Equal(t, tt.expectedVolatility.Valid, record.RevenueVolatility.Valid)
			assert.InDelta(t, tt.expectedVolatility.Value, record.RevenueVolatility.Value, 1e-4)
		})
	}
}

func TestKPIDeriver_Derive_NormalizesPeriods(t *testing.T) {
	deriver := NewDeriver(config.DefaultAnalytics())
	brt := time.FixedZone("BRT", -3*60*60)

	observations := []domain.MonthlyObservation{
		{Period: time.Date(2024, 5, 31, 0, 0, 0, 0, brt), BusinessUnit: "Norte", Revenue: 1000, CustomerCount: 10, SalesTeamSize: 1},
		{Period: time.Date(2024, 6, 15, 21, 0, 0, 0, brt), BusinessUnit: "Norte", Revenue: 500, CustomerCount: 10, SalesTeamSize: 1},
	}

	set := deriver.Derive(observations, nil)

	june := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	require.Len(t, set.Units, 2)
	require.Len(t, set.Advanced, 2)
	assert.Equal(t, june, set.Monthly[1].Period)
	assert.Equal(t, june, set.Units[1].Period)
	assert.Equal(t, june, set.Advanced[1].Period)
	assert.InDelta(t, -0.5, set.Units[1].UnitGrowthRate.Value, 1e-9)
}
