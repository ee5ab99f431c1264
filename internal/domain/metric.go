package domain

import (
	"math"

	jsoniter "github.com/json-iterator/go"
)

// Metric representa um valor de KPI que pode não ser aplicável (denominador zero ou
// período anterior ausente). Um Metric inválido nunca deve ser tratado como zero.
type Metric struct {
	Value float64
	Valid bool
}

// MetricOf cria um Metric válido. Valores NaN ou infinitos viram "não aplicável".
func MetricOf(value float64) Metric {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NotApplicable()
	}
	return Metric{Value: value, Valid: true}
}

// NotApplicable cria um Metric marcado como não aplicável
func NotApplicable() Metric {
	return Metric{}
}

// Ratio divide num por den, retornando não aplicável quando den é zero
func Ratio(num, den float64) Metric {
	if den == 0 {
		return NotApplicable()
	}
	return MetricOf(num / den)
}

// Growth calcula (current / previous) - 1, não aplicável quando previous é zero
func Growth(current, previous float64) Metric {
	if previous == 0 {
		return NotApplicable()
	}
	return MetricOf(current/previous - 1)
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return jsoniter.Marshal(m.Value)
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = NotApplicable()
		return nil
	}

	var value float64
	if err := jsoniter.Unmarshal(data, &value); err != nil {
		return err
	}

	*m = MetricOf(value)
	return nil
}
