package domain

import "time"

type AlertType string

const (
	AlertRevenueDecline     AlertType = "revenue_decline"
	AlertHighChurn          AlertType = "high_churn"
	AlertLowRetention       AlertType = "low_retention"
	AlertGrowthBelowTarget  AlertType = "growth_below_target"
	AlertMarginBelowTarget  AlertType = "margin_below_target"
	AlertStatisticalAnomaly AlertType = "statistical_anomaly"
	AlertForecastDivergence AlertType = "forecast_divergence"
	AlertLowCLVCACRatio     AlertType = "low_clv_cac_ratio"
)

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rank retorna o peso da severidade para ordenação (maior = mais grave)
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Alert representa um alerta de desempenho. BusinessUnit nulo indica alerta da empresa toda.
type Alert struct {
	Period       time.Time `json:"period"`
	Type         AlertType `json:"alert_type"`
	Severity     Severity  `json:"severity"`
	BusinessUnit *string   `json:"business_unit,omitempty"`
	Description  string    `json:"description"`
	MetricValue  float64   `json:"metric_value"`
}

// Unit retorna o nome da unidade do alerta, ou AllUnits quando é da empresa toda
func (a Alert) Unit() string {
	if a.BusinessUnit == nil {
		return AllUnits
	}
	return *a.BusinessUnit
}
