package kpi

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/vfg2006/revenue-forecasting-api/internal/config"
	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
	"github.com/vfg2006/revenue-forecasting-api/pkg/utils"
)

// Deriver calcula as três famílias de KPIs a partir das observações mensais
type Deriver interface {
	Derive(observations []domain.MonthlyObservation, kpiInputs []domain.KPIObservation) *domain.KPISet
}

// KPIDeriver recalcula todos os KPIs a cada chamada. Não guarda estado entre execuções.
type KPIDeriver struct {
	revenueGrowthTarget     float64
	performanceGrowthTarget float64
}

func NewDeriver(cfg config.Analytics) Deriver {
	return &KPIDeriver{
		revenueGrowthTarget:     cfg.RevenueGrowthTarget,
		performanceGrowthTarget: cfg.PerformanceGrowthTarget,
	}
}

func (d *KPIDeriver) Derive(observations []domain.MonthlyObservation, kpiInputs []domain.KPIObservation) *domain.KPISet {
	totals := domain.AggregateByPeriod(observations)

	totalsByMonth := make(map[int]domain.MonthlyObservation, len(totals))
	for _, total := range totals {
		totalsByMonth[domain.MonthIndex(total.Period)] = total
	}

	kpiByMonth := make(map[int]domain.KPIObservation, len(kpiInputs))
	for _, input := range kpiInputs {
		kpiByMonth[domain.MonthIndex(input.Period)] = input
	}

	unitsByMonth := make(map[int]map[string]struct{})
	for _, obs := range observations {
		month := domain.MonthIndex(obs.Period)
		if unitsByMonth[month] == nil {
			unitsByMonth[month] = make(map[string]struct{})
		}
		unitsByMonth[month][obs.BusinessUnit] = struct{}{}
	}

	set := &domain.KPISet{
		Monthly:  make([]domain.MonthlyKPI, 0, len(totals)),
		Units:    make([]domain.UnitKPI, 0, len(observations)),
		Advanced: make([]domain.AdvancedKPI, 0, len(observations)),
	}

	for _, total := range totals {
		month := domain.MonthIndex(total.Period)
		set.Monthly = append(set.Monthly, d.monthlyKPI(total, totalsByMonth, len(unitsByMonth[month])))
	}

	grouped, units := domain.GroupByBusinessUnit(observations)
	sort.Strings(units)

	for _, unit := range units {
		history := append([]domain.MonthlyObservation(nil), grouped[unit]...)
		sort.SliceStable(history, func(i, j int) bool {
			return domain.MonthIndex(history[i].Period) < domain.MonthIndex(history[j].Period)
		})

		unitByMonth := make(map[int]domain.MonthlyObservation, len(history))
		for _, obs := range history {
			unitByMonth[domain.MonthIndex(obs.Period)] = obs
		}

		revenues := make([]float64, 0, len(history))
		ytd, year := 0.0, 0
		for _, obs := range history {
			month := domain.MonthIndex(obs.Period)

			if obs.Period.Year() != year {
				ytd, year = 0, obs.Period.Year()
			}
			ytd += obs.Revenue
			revenues = append(revenues, obs.Revenue)

			record := d.unitKPI(obs, unitByMonth, totalsByMonth[month])
			record.YTDRevenue = ytd
			record.AvgMonthlyRevenue, record.RevenueVolatility = revenueDispersion(revenues)
			set.Units = append(set.Units, record)

			input, hasInput := kpiByMonth[month]
			set.Advanced = append(set.Advanced, advancedKPI(obs, input, hasInput))
		}
	}

	sort.SliceStable(set.Units, func(i, j int) bool {
		return lessByPeriodAndUnit(set.Units[i].Period, set.Units[i].BusinessUnit, set.Units[j].Period, set.Units[j].BusinessUnit)
	})
	sort.SliceStable(set.Advanced, func(i, j int) bool {
		return lessByPeriodAndUnit(set.Advanced[i].Period, set.Advanced[i].BusinessUnit, set.Advanced[j].Period, set.Advanced[j].BusinessUnit)
	})

	return set
}

func (d *KPIDeriver) monthlyKPI(total domain.MonthlyObservation, totalsByMonth map[int]domain.MonthlyObservation, unitCount int) domain.MonthlyKPI {
	month := domain.MonthIndex(total.Period)

	record := domain.MonthlyKPI{
		Period:                  total.Period,
		TotalRevenue:            total.Revenue,
		RevenueGrowthMoM:        domain.NotApplicable(),
		RevenueGrowthYoY:        domain.NotApplicable(),
		AvgRevenuePerUnit:       domain.Ratio(total.Revenue, float64(unitCount)),
		TotalCustomers:          total.CustomerCount,
		CustomerGrowthMoM:       domain.NotApplicable(),
		RevenuePerCustomer:      domain.Ratio(total.Revenue, float64(total.CustomerCount)),
		CustomersPerSalesperson: domain.Ratio(float64(total.CustomerCount), float64(total.SalesTeamSize)),
		MarketingROI:            domain.Ratio(total.Revenue, total.MarketingSpend),
		MarketingSpendRatio:     domain.Ratio(total.MarketingSpend, total.Revenue),
		Revenue3MAvg:            rollingAverage(totalsByMonth, month, 3),
		Revenue12MAvg:           rollingAverage(totalsByMonth, month, 12),
		TargetAchievement:       domain.NotApplicable(),
	}

	if previous, ok := totalsByMonth[month-1]; ok {
		record.RevenueGrowthMoM = domain.Growth(total.Revenue, previous.Revenue)
		record.CustomerGrowthMoM = domain.Growth(float64(total.CustomerCount), float64(previous.CustomerCount))
	}

	if lastYear, ok := totalsByMonth[month-12]; ok {
		record.RevenueGrowthYoY = domain.Growth(total.Revenue, lastYear.Revenue)
	}

	if record.RevenueGrowthYoY.Valid {
		record.TargetAchievement = domain.Ratio(record.RevenueGrowthYoY.Value, d.revenueGrowthTarget)
	}

	return record
}

func (d *KPIDeriver) unitKPI(obs domain.MonthlyObservation, unitByMonth map[int]domain.MonthlyObservation, total domain.MonthlyObservation) domain.UnitKPI {
	month := domain.MonthIndex(obs.Period)

	record := domain.UnitKPI{
		Period:             domain.MonthEnd(obs.Period),
		BusinessUnit:       obs.BusinessUnit,
		UnitRevenue:        obs.Revenue,
		UnitGrowthRate:     domain.NotApplicable(),
		MarketShare:        domain.Ratio(obs.Revenue, total.Revenue),
		PerformanceScore:   domain.NotApplicable(),
		CustomerGrowthRate: domain.NotApplicable(),
		RevenuePerCustomer: domain.Ratio(obs.Revenue, float64(obs.CustomerCount)),
	}

	if previous, ok := unitByMonth[month-1]; ok {
		record.UnitGrowthRate = domain.Growth(obs.Revenue, previous.Revenue)
		record.CustomerGrowthRate = domain.Growth(float64(obs.CustomerCount), float64(previous.CustomerCount))
	}

	record.PerformanceScore = d.performanceScore(record)

	return record
}

// performanceScore compõe 50% crescimento, 30% participação e 20% crescimento de clientes (0-100).
// Sem crescimento de clientes aplicável, essa parcela contribui zero.
func (d *KPIDeriver) performanceScore(record domain.UnitKPI) domain.Metric {
	if !record.UnitGrowthRate.Valid || !record.MarketShare.Valid || d.performanceGrowthTarget == 0 {
		return domain.NotApplicable()
	}

	growth := utils.Clamp(record.UnitGrowthRate.Value/d.performanceGrowthTarget, 0, 1)
	customers := 0.0
	if record.CustomerGrowthRate.Valid {
		customers = utils.Clamp(record.CustomerGrowthRate.Value/d.performanceGrowthTarget, 0, 1)
	}

	score := 100 * (0.5*growth + 0.3*record.MarketShare.Value + 0.2*customers)
	return domain.MetricOf(utils.RoundWithTwoDecimalPlace(score))
}

func advancedKPI(obs domain.MonthlyObservation, input domain.KPIObservation, hasInput bool) domain.AdvancedKPI {
	record := domain.AdvancedKPI{
		Period:              domain.MonthEnd(obs.Period),
		BusinessUnit:        obs.BusinessUnit,
		CLVCACRatio:         domain.NotApplicable(),
		RevenuePerEmployee:  domain.Ratio(obs.Revenue, float64(obs.SalesTeamSize)),
		MarginEstimate:      domain.NotApplicable(),
		RevenueQualityScore: domain.NotApplicable(),
		ChurnRate:           domain.NotApplicable(),
		RetentionRate:       domain.NotApplicable(),
		NetPromoterScore:    domain.NotApplicable(),
	}

	// Gasto acima da receita gera margens absurdas, por isso o limite em [-1, 1]
	if obs.Revenue != 0 {
		record.MarginEstimate = domain.MetricOf(utils.Clamp(1-obs.MarketingSpend/obs.Revenue, -1, 1))
	}

	if hasInput {
		record.CLVCACRatio = domain.Ratio(input.CustomerLifetimeValue, input.CustomerAcquisitionCost)
		record.RevenueQualityScore = domain.MetricOf(0.5*input.RetentionRate + 0.5*(1-input.ChurnRate))
		record.ChurnRate = domain.MetricOf(input.ChurnRate)
		record.RetentionRate = domain.MetricOf(input.RetentionRate)
		record.NetPromoterScore = domain.MetricOf(input.NetPromoterScore)
	}

	return record
}

// revenueDispersion retorna a média da receita e a volatilidade (desvio padrão amostral / média)
// dos meses informados. A volatilidade exige ao menos dois meses.
func revenueDispersion(revenues []float64) (domain.Metric, domain.Metric) {
	if len(revenues) == 0 {
		return domain.NotApplicable(), domain.NotApplicable()
	}
	if len(revenues) == 1 {
		return domain.MetricOf(revenues[0]), domain.NotApplicable()
	}

	mean, stdDev := stat.MeanStdDev(revenues, nil)
	return domain.MetricOf(mean), domain.Ratio(stdDev, mean)
}

// rollingAverage calcula a média da receita total dos últimos "window" meses,
// não aplicável enquanto a janela não estiver completa
func rollingAverage(totalsByMonth map[int]domain.MonthlyObservation, month, window int) domain.Metric {
	sum := 0.0
	for offset := 0; offset < window; offset++ {
		total, ok := totalsByMonth[month-offset]
		if !ok {
			return domain.NotApplicable()
		}
		sum += total.Revenue
	}
	return domain.MetricOf(sum / float64(window))
}

func lessByPeriodAndUnit(periodA time.Time, unitA string, periodB time.Time, unitB string) bool {
	if !periodA.Equal(periodB) {
		return periodA.Before(periodB)
	}
	return unitA < unitB
}
