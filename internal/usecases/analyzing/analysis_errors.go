package analyzing

import (
	"errors"
	"fmt"
)

var (
	ErrNoObservations = errors.New("nenhuma observação mensal disponível")
	ErrLoadData       = errors.New("erro ao carregar séries históricas")
	ErrPersistence    = errors.New("erro ao gravar resultados da análise")
	ErrAnalysisBusy   = errors.New("análise já em execução")
)

// AnalysisError é um erro de execução da análise com o código da API
type AnalysisError struct {
	Err     error  // Erro base
	Code    string // Código de erro para API
	Details string // Detalhes adicionais
}

func (e *AnalysisError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

func NewAnalysisError(baseErr error, code string, details string) *AnalysisError {
	return &AnalysisError{
		Err:     baseErr,
		Code:    code,
		Details: details,
	}
}
