package domain

import "time"

// MonthlyKPI representa os indicadores de receita consolidados de um mês
type MonthlyKPI struct {
	Period                  time.Time `json:"period"`
	TotalRevenue            float64   `json:"total_revenue"`
	RevenueGrowthMoM        Metric    `json:"revenue_growth_mom"`
	RevenueGrowthYoY        Metric    `json:"revenue_growth_yoy"`
	AvgRevenuePerUnit       Metric    `json:"avg_revenue_per_unit"`
	TotalCustomers          int       `json:"total_customers"`
	CustomerGrowthMoM       Metric    `json:"customer_growth_mom"`
	RevenuePerCustomer      Metric    `json:"revenue_per_customer"`
	CustomersPerSalesperson Metric    `json:"customers_per_salesperson"`
	MarketingROI            Metric    `json:"marketing_roi"`
	MarketingSpendRatio     Metric    `json:"marketing_spend_ratio"`
	Revenue3MAvg            Metric    `json:"revenue_3m_avg"`
	Revenue12MAvg           Metric    `json:"revenue_12m_avg"`
	TargetAchievement       Metric    `json:"target_achievement"` // Crescimento anual / meta
}

// UnitKPI representa os indicadores de uma unidade de negócio em um mês
type UnitKPI struct {
	Period             time.Time `json:"period"`
	BusinessUnit       string    `json:"business_unit"`
	UnitRevenue        float64   `json:"unit_revenue"`
	UnitGrowthRate     Metric    `json:"unit_growth_rate"`
	MarketShare        Metric    `json:"market_share"`
	PerformanceScore   Metric    `json:"performance_score"` // 0-100
	CustomerGrowthRate Metric    `json:"customer_growth_rate"`
	RevenuePerCustomer Metric    `json:"revenue_per_customer"`
	YTDRevenue         float64   `json:"ytd_revenue"`         // Receita do ano até o período
	AvgMonthlyRevenue  Metric    `json:"avg_monthly_revenue"` // Média mensal até o período
	RevenueVolatility  Metric    `json:"revenue_volatility"`  // Desvio padrão / média até o período
}

// AdvancedKPI combina dados de receita da unidade com os indicadores de clientes da empresa
type AdvancedKPI struct {
	Period              time.Time `json:"period"`
	BusinessUnit        string    `json:"business_unit"`
	CLVCACRatio         Metric    `json:"clv_cac_ratio"`
	RevenuePerEmployee  Metric    `json:"revenue_per_employee"`
	MarginEstimate      Metric    `json:"margin_estimate"`
	RevenueQualityScore Metric    `json:"revenue_quality_score"`
	ChurnRate           Metric    `json:"churn_rate"`
	RetentionRate       Metric    `json:"retention_rate"`
	NetPromoterScore    Metric    `json:"net_promoter_score"`
}

// KPISet agrupa as três famílias de KPIs de uma execução
type KPISet struct {
	Monthly  []MonthlyKPI  `json:"monthly"`
	Units    []UnitKPI     `json:"units"`
	Advanced []AdvancedKPI `json:"advanced"`
}

// LatestPeriod retorna o último período com KPIs mensais
func (k *KPISet) LatestPeriod() (time.Time, bool) {
	if k == nil || len(k.Monthly) == 0 {
		return time.Time{}, false
	}
	return k.Monthly[len(k.Monthly)-1].Period, true
}
