package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration é o erro base de toda configuração inválida
var ErrInvalidConfiguration = errors.New("configuração inválida")

// ConfigurationError indica um parâmetro inválido. É fatal na inicialização.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfiguration.Error(), e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}

func NewConfigurationError(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}

// Validate verifica toda a configuração carregada
func (c *Config) Validate() error {
	if err := c.Analytics.Validate(); err != nil {
		return err
	}

	if c.AnalysisSync.MaxConcurrentJobs <= 0 {
		return NewConfigurationError("analysis_max_concurrent_jobs", "deve ser maior que zero")
	}

	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.AlertsTopic == "") {
		return NewConfigurationError("kafka", "brokers e tópico são obrigatórios quando o Kafka está habilitado")
	}

	return nil
}

// Validate verifica os parâmetros do motor de análise
func (a Analytics) Validate() error {
	if a.ForecastHorizonMonths <= 0 {
		return NewConfigurationError("forecast_horizon_months", "deve ser maior que zero")
	}

	// Duas temporadas completas são necessárias para estimar a sazonalidade
	if a.MinHistoricalPeriods < 24 {
		return NewConfigurationError("min_historical_periods", "deve ser no mínimo 24")
	}

	if len(a.ConfidenceIntervals) == 0 {
		return NewConfigurationError("confidence_intervals", "informe ao menos um nível")
	}
	for _, level := range a.ConfidenceIntervals {
		if level <= 0 || level >= 1 {
			return NewConfigurationError("confidence_intervals", fmt.Sprintf("nível %.4f fora do intervalo (0, 1)", level))
		}
	}

	if a.IntervalPolicy != IntervalPolicyMax && a.IntervalPolicy != IntervalPolicyMean {
		return NewConfigurationError("forecast_interval_policy", fmt.Sprintf("política desconhecida %q", a.IntervalPolicy))
	}

	for name, weight := range a.ModelWeights {
		if weight < 0 {
			return NewConfigurationError("forecast_model_weights", fmt.Sprintf("peso negativo para %s", name))
		}
	}

	if a.CustomerRetentionTarget < 0 || a.CustomerRetentionTarget > 1 {
		return NewConfigurationError("customer_retention_target", "deve estar entre 0 e 1")
	}

	if a.ChurnRateThreshold < 0 || a.ChurnRateThreshold > 1 {
		return NewConfigurationError("churn_rate_threshold", "deve estar entre 0 e 1")
	}

	if a.MinCLVCACRatio < 0 {
		return NewConfigurationError("min_clv_cac_ratio", "não pode ser negativo")
	}

	if a.PerformanceGrowthTarget <= 0 {
		return NewConfigurationError("performance_growth_target", "deve ser maior que zero")
	}

	if a.AnomalyZScoreThreshold <= 0 {
		return NewConfigurationError("anomaly_zscore_threshold", "deve ser maior que zero")
	}

	if a.AnomalyMediumZScore < a.AnomalyZScoreThreshold {
		return NewConfigurationError("anomaly_medium_zscore", "deve ser maior ou igual ao limite de anomalia")
	}

	if a.AnomalyWindowMonths < 3 {
		return NewConfigurationError("anomaly_window_months", "deve ser no mínimo 3")
	}

	return nil
}
