package forecasting

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientHistory  = errors.New("histórico insuficiente")
	ErrNonContiguousHistory = errors.New("histórico com meses faltantes ou fora de ordem")
	ErrInvalidModelWeights  = errors.New("pesos dos modelos somam zero")
	ErrNoModels             = errors.New("nenhum modelo de previsão configurado")
)

// InsufficientHistoryError indica que a série tem menos pontos do que o modelo exige
type InsufficientHistoryError struct {
	Model    string
	Required int
	Got      int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("%s: modelo %s exige %d meses, recebeu %d", ErrInsufficientHistory.Error(), e.Model, e.Required, e.Got)
}

func (e *InsufficientHistoryError) Unwrap() error {
	return ErrInsufficientHistory
}
