package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
	"github.com/vfg2006/revenue-forecasting-api/internal/usecases/analyzing"
	"github.com/vfg2006/revenue-forecasting-api/internal/usecases/forecasting"
	"github.com/vfg2006/revenue-forecasting-api/pkg/apiErrors"
	"github.com/vfg2006/revenue-forecasting-api/pkg/log"
)

// AnalysisRunner executa a análise respeitando a trava de execução única
type AnalysisRunner interface {
	RunAnalysis(ctx context.Context) (*domain.AnalysisReport, error)
}

// RunAnalysis executa a análise de forma síncrona e retorna o relatório completo
func RunAnalysis(runner AnalysisRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())
		logger.Info("INIT - RunAnalysis")

		report, err := runner.RunAnalysis(r.Context())
		if err != nil {
			handleAnalysisError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusOK, report)
	}
}

func handleAnalysisError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.ForContext(r.Context())

	var analysisErr *analyzing.AnalysisError
	switch {
	case errors.As(err, &analysisErr):
		if apiErrors.StatusFor(analysisErr.Code) >= http.StatusInternalServerError {
			logger.WithError(err).Error("Erro ao executar análise")
		}
		apiErrors.WriteError(w, analysisErr.Code, analysisErr.Error(), nil)

	case errors.Is(err, forecasting.ErrInsufficientHistory):
		apiErrors.WriteError(w, apiErrors.ErrInsufficientHistory, err.Error(), nil)

	default:
		logger.WithError(err).Error("Erro inesperado ao executar análise")
		apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro interno ao executar análise", nil)
	}
}
