package domain

import (
	"fmt"
	"time"
)

// PeriodLayout é o formato textual de período usado na API e no banco (mm-yyyy)
const PeriodLayout = "01-2006"

// MonthEnd retorna o último dia do mês da data informada, à meia-noite UTC
func MonthEnd(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month()+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

// AddMonths desloca um período de fim de mês em n meses, preservando o fim de mês
func AddMonths(period time.Time, n int) time.Time {
	firstDay := time.Date(period.Year(), period.Month(), 1, 0, 0, 0, 0, time.UTC)
	return MonthEnd(firstDay.AddDate(0, n, 0))
}

// MonthIndex retorna um índice absoluto de meses (ano*12 + mês-1), útil para calcular defasagens
func MonthIndex(period time.Time) int {
	return period.Year()*12 + int(period.Month()) - 1
}

// PeriodKey formata o período no padrão mm-yyyy
func PeriodKey(period time.Time) string {
	return period.Format(PeriodLayout)
}

// ParsePeriod converte um período mm-yyyy para a data de fim de mês correspondente
func ParsePeriod(value string) (time.Time, error) {
	date, err := time.Parse(PeriodLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("período inválido %q, use o formato mm-yyyy: %w", value, err)
	}
	return MonthEnd(date), nil
}
