package alerting

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/vfg2006/revenue-forecasting-api/internal/config"
	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
)

// Nível do intervalo usado para comparar previsão e realizado
const divergenceLevel = 0.95

// minAnomalyChanges é o mínimo de variações na janela para calcular o z-score
const minAnomalyChanges = 3

// Evaluator avalia os KPIs do último período e emite alertas
type Evaluator interface {
	Evaluate(kpis *domain.KPISet, priorForecast []domain.ForecastPoint) []domain.Alert
}

// Engine aplica regras independentes sobre os KPIs do período mais recente.
// Nenhuma regra altera os KPIs recebidos.
type Engine struct {
	cfg config.Analytics
}

func NewEngine(cfg config.Analytics) Evaluator {
	return &Engine{cfg: cfg}
}

// Evaluate retorna os alertas ordenados por severidade, período, tipo e unidade.
// priorForecast pode ser nulo, e nesse caso a regra de divergência é ignorada.
func (e *Engine) Evaluate(kpis *domain.KPISet, priorForecast []domain.ForecastPoint) []domain.Alert {
	alerts := make([]domain.Alert, 0)

	latest, ok := kpis.LatestPeriod()
	if !ok {
		return alerts
	}

	monthly := kpis.Monthly[len(kpis.Monthly)-1]
	units := unitsAt(kpis.Units, latest)
	advanced := advancedAt(kpis.Advanced, latest)

	alerts = append(alerts, e.revenueDecline(monthly, units)...)
	alerts = append(alerts, e.customerHealth(latest, advanced)...)
	alerts = append(alerts, e.growthBelowTarget(monthly)...)
	alerts = append(alerts, e.marginBelowTarget(advanced)...)
	alerts = append(alerts, e.statisticalAnomalies(kpis, units, latest)...)
	alerts = append(alerts, e.forecastDivergence(monthly, units, priorForecast)...)

	SortAlerts(alerts)

	return alerts
}

func (e *Engine) revenueDecline(monthly domain.MonthlyKPI, units []domain.UnitKPI) []domain.Alert {
	alerts := make([]domain.Alert, 0)

	if growth := monthly.RevenueGrowthMoM; growth.Valid && growth.Value < 0 {
		alerts = append(alerts, domain.Alert{
			Period:      monthly.Period,
			Type:        domain.AlertRevenueDecline,
			Severity:    declineSeverity(growth.Value),
			Description: fmt.Sprintf("Receita total caiu %.2f%% em relação ao mês anterior", -growth.Value*100),
			MetricValue: growth.Value,
		})
	}

	for _, unit := range units {
		if growth := unit.UnitGrowthRate; growth.Valid && growth.Value < 0 {
			alerts = append(alerts, domain.Alert{
				Period:       unit.Period,
				Type:         domain.AlertRevenueDecline,
				Severity:     declineSeverity(growth.Value),
				BusinessUnit: unitRef(unit.BusinessUnit),
				Description:  fmt.Sprintf("Receita da unidade %s caiu %.2f%% em relação ao mês anterior", unit.BusinessUnit, -growth.Value*100),
				MetricValue:  growth.Value,
			})
		}
	}

	return alerts
}

func declineSeverity(growth float64) domain.Severity {
	if growth < -0.10 {
		return domain.SeverityHigh
	}
	return domain.SeverityMedium
}

// customerHealth avalia churn, retenção e CLV/CAC, que são indicadores da empresa toda
func (e *Engine) customerHealth(period time.Time, advanced []domain.AdvancedKPI) []domain.Alert {
	alerts := make([]domain.Alert, 0)
	if len(advanced) == 0 {
		return alerts
	}
	record := advanced[0]

	if churn := record.ChurnRate; churn.Valid && churn.Value > e.cfg.ChurnRateThreshold {
		alerts = append(alerts, domain.Alert{
			Period:      period,
			Type:        domain.AlertHighChurn,
			Severity:    domain.SeverityHigh,
			Description: fmt.Sprintf("Taxa de churn de %.2f%% acima do limite de %.2f%%", churn.Value*100, e.cfg.ChurnRateThreshold*100),
			MetricValue: churn.Value,
		})
	}

	if retention := record.RetentionRate; retention.Valid && 1-retention.Value > 1-e.cfg.CustomerRetentionTarget {
		alerts = append(alerts, domain.Alert{
			Period:      period,
			Type:        domain.AlertLowRetention,
			Severity:    domain.SeverityHigh,
			Description: fmt.Sprintf("Retenção de clientes de %.2f%% abaixo da meta de %.2f%%", retention.Value*100, e.cfg.CustomerRetentionTarget*100),
			MetricValue: retention.Value,
		})
	}

	if ratio := record.CLVCACRatio; ratio.Valid && ratio.Value < e.cfg.MinCLVCACRatio {
		alerts = append(alerts, domain.Alert{
			Period:      period,
			Type:        domain.AlertLowCLVCACRatio,
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("Razão CLV/CAC de %.2f abaixo do mínimo de %.2f", ratio.Value, e.cfg.MinCLVCACRatio),
			MetricValue: ratio.Value,
		})
	}

	return alerts
}

func (e *Engine) growthBelowTarget(monthly domain.MonthlyKPI) []domain.Alert {
	growth := monthly.RevenueGrowthYoY
	if !growth.Valid || growth.Value >= e.cfg.RevenueGrowthTarget {
		return nil
	}

	return []domain.Alert{{
		Period:      monthly.Period,
		Type:        domain.AlertGrowthBelowTarget,
		Severity:    domain.SeverityMedium,
		Description: fmt.Sprintf("Crescimento anual de %.2f%% abaixo da meta de %.2f%%", growth.Value*100, e.cfg.RevenueGrowthTarget*100),
		MetricValue: growth.Value,
	}}
}

func (e *Engine) marginBelowTarget(advanced []domain.AdvancedKPI) []domain.Alert {
	alerts := make([]domain.Alert, 0)

	for _, record := range advanced {
		if margin := record.MarginEstimate; margin.Valid && margin.Value < e.cfg.ProfitMarginTarget {
			alerts = append(alerts, domain.Alert{
				Period:       record.Period,
				Type:         domain.AlertMarginBelowTarget,
				Severity:     domain.SeverityMedium,
				BusinessUnit: unitRef(record.BusinessUnit),
				Description:  fmt.Sprintf("Margem estimada da unidade %s de %.2f%% abaixo da meta de %.2f%%", record.BusinessUnit, margin.Value*100, e.cfg.ProfitMarginTarget*100),
				MetricValue:  margin.Value,
			})
		}
	}

	return alerts
}

// statisticalAnomalies compara a variação mensal mais recente com a janela anterior de variações
func (e *Engine) statisticalAnomalies(kpis *domain.KPISet, units []domain.UnitKPI, latest time.Time) []domain.Alert {
	alerts := make([]domain.Alert, 0)

	companyChanges := make(map[int]domain.Metric, len(kpis.Monthly))
	for _, record := range kpis.Monthly {
		companyChanges[domain.MonthIndex(record.Period)] = record.RevenueGrowthMoM
	}
	if alert, ok := e.anomaly(companyChanges, latest, nil); ok {
		alerts = append(alerts, alert)
	}

	for _, unit := range units {
		changes := make(map[int]domain.Metric)
		for _, record := range kpis.Units {
			if record.BusinessUnit == unit.BusinessUnit {
				changes[domain.MonthIndex(record.Period)] = record.UnitGrowthRate
			}
		}
		if alert, ok := e.anomaly(changes, latest, unitRef(unit.BusinessUnit)); ok {
			alerts = append(alerts, alert)
		}
	}

	return alerts
}

func (e *Engine) anomaly(changes map[int]domain.Metric, latest time.Time, businessUnit *string) (domain.Alert, bool) {
	month := domain.MonthIndex(latest)

	current, ok := changes[month]
	if !ok || !current.Valid {
		return domain.Alert{}, false
	}

	window := make([]float64, 0, e.cfg.AnomalyWindowMonths)
	for offset := 1; offset <= e.cfg.AnomalyWindowMonths; offset++ {
		if change, ok := changes[month-offset]; ok && change.Valid {
			window = append(window, change.Value)
		}
	}
	if len(window) < minAnomalyChanges {
		return domain.Alert{}, false
	}

	mean, stdDev := stat.MeanStdDev(window, nil)
	if stdDev == 0 || math.IsNaN(stdDev) {
		return domain.Alert{}, false
	}

	zScore := (current.Value - mean) / stdDev
	if math.Abs(zScore) <= e.cfg.AnomalyZScoreThreshold {
		return domain.Alert{}, false
	}

	severity := domain.SeverityLow
	if math.Abs(zScore) >= e.cfg.AnomalyMediumZScore {
		severity = domain.SeverityMedium
	}

	scope := "da empresa"
	if businessUnit != nil {
		scope = "da unidade " + *businessUnit
	}

	return domain.Alert{
		Period:       latest,
		Type:         domain.AlertStatisticalAnomaly,
		Severity:     severity,
		BusinessUnit: businessUnit,
		Description:  fmt.Sprintf("Variação mensal da receita %s de %.2f%% está a %.1f desvios padrão da média recente", scope, current.Value*100, zScore),
		MetricValue:  zScore,
	}, true
}

// forecastDivergence compara o realizado com o intervalo de 95% de uma previsão anterior.
// Gera no máximo um alerta por período e unidade.
func (e *Engine) forecastDivergence(monthly domain.MonthlyKPI, units []domain.UnitKPI, priorForecast []domain.ForecastPoint) []domain.Alert {
	alerts := make([]domain.Alert, 0)
	if len(priorForecast) == 0 {
		return alerts
	}

	actuals := map[string]float64{domain.AllUnits: monthly.TotalRevenue}
	for _, unit := range units {
		actuals[unit.BusinessUnit] = unit.UnitRevenue
	}

	latest := domain.MonthIndex(monthly.Period)
	seen := make(map[string]bool)

	for _, point := range priorForecast {
		if domain.MonthIndex(point.Period) != latest || seen[point.BusinessUnit] {
			continue
		}

		actual, ok := actuals[point.BusinessUnit]
		if !ok {
			continue
		}

		band, ok := point.Band(divergenceLevel)
		if !ok || (actual >= band.Lower && actual <= band.Upper) {
			continue
		}
		seen[point.BusinessUnit] = true

		var businessUnit *string
		if point.BusinessUnit != domain.AllUnits {
			businessUnit = unitRef(point.BusinessUnit)
		}

		alerts = append(alerts, domain.Alert{
			Period:       monthly.Period,
			Type:         domain.AlertForecastDivergence,
			Severity:     domain.SeverityMedium,
			BusinessUnit: businessUnit,
			Description: fmt.Sprintf("Receita realizada de %s (%.2f) fora do intervalo de 95%% previsto [%.2f, %.2f]",
				point.BusinessUnit, actual, band.Lower, band.Upper),
			MetricValue: actual,
		})
	}

	return alerts
}

// SortAlerts ordena por severidade decrescente, depois período, tipo e unidade
func SortAlerts(alerts []domain.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if !a.Period.Equal(b.Period) {
			return a.Period.Before(b.Period)
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Unit() < b.Unit()
	})
}

// unitsAt e advancedAt comparam pelo mês do calendário, independente de hora e fuso
func unitsAt(records []domain.UnitKPI, period time.Time) []domain.UnitKPI {
	month := domain.MonthIndex(period)
	units := make([]domain.UnitKPI, 0)
	for _, record := range records {
		if domain.MonthIndex(record.Period) == month {
			units = append(units, record)
		}
	}
	return units
}

func advancedAt(records []domain.AdvancedKPI, period time.Time) []domain.AdvancedKPI {
	month := domain.MonthIndex(period)
	advanced := make([]domain.AdvancedKPI, 0)
	for _, record := range records {
		if domain.MonthIndex(record.Period) == month {
			advanced = append(advanced, record)
		}
	}
	return advanced
}

func unitRef(name string) *string {
	return &name
}
