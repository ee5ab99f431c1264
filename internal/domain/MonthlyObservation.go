package domain

import (
	"sort"
	"time"
)

// MonthlyObservation representa os dados mensais já validados de uma unidade de negócio
type MonthlyObservation struct {
	Period         time.Time `json:"period"` // Último dia do mês
	BusinessUnit   string    `json:"business_unit"`
	Revenue        float64   `json:"revenue"`
	CustomerCount  int       `json:"customer_count"`
	MarketingSpend float64   `json:"marketing_spend"`
	SalesTeamSize  int       `json:"sales_team_size"`
}

// KPIObservation representa os indicadores de clientes da empresa em um mês
type KPIObservation struct {
	Period                  time.Time `json:"period"`
	CustomerAcquisitionCost float64   `json:"customer_acquisition_cost"`
	CustomerLifetimeValue   float64   `json:"customer_lifetime_value"`
	ChurnRate               float64   `json:"churn_rate"`
	RetentionRate           float64   `json:"retention_rate"`
	NetPromoterScore        float64   `json:"net_promoter_score"`
}

// GroupByBusinessUnit separa as observações por unidade de negócio, mantendo a ordem de entrada
func GroupByBusinessUnit(observations []MonthlyObservation) (map[string][]MonthlyObservation, []string) {
	grouped := make(map[string][]MonthlyObservation)
	units := make([]string, 0)

	for _, obs := range observations {
		if _, exists := grouped[obs.BusinessUnit]; !exists {
			units = append(units, obs.BusinessUnit)
		}
		grouped[obs.BusinessUnit] = append(grouped[obs.BusinessUnit], obs)
	}

	return grouped, units
}

// AggregateByPeriod soma as observações de todas as unidades por período,
// gerando a série consolidada da empresa (BusinessUnit = AllUnits)
func AggregateByPeriod(observations []MonthlyObservation) []MonthlyObservation {
	totals := make(map[int]*MonthlyObservation)
	keys := make([]int, 0)

	for _, obs := range observations {
		key := MonthIndex(obs.Period)
		total, exists := totals[key]
		if !exists {
			total = &MonthlyObservation{Period: MonthEnd(obs.Period), BusinessUnit: AllUnits}
			totals[key] = total
			keys = append(keys, key)
		}
		total.Revenue += obs.Revenue
		total.CustomerCount += obs.CustomerCount
		total.MarketingSpend += obs.MarketingSpend
		total.SalesTeamSize += obs.SalesTeamSize
	}

	sort.Ints(keys)

	aggregated := make([]MonthlyObservation, 0, len(keys))
	for _, key := range keys {
		aggregated = append(aggregated, *totals[key])
	}
	return aggregated
}
