package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/vfg2006/revenue-forecasting-api/internal/scheduler"
	"github.com/vfg2006/revenue-forecasting-api/pkg/apiErrors"
	"github.com/vfg2006/revenue-forecasting-api/pkg/log"
)

// Tipos de cron job que podem ser executados manualmente
const (
	CronJobTypeAnalysis = "analysis"
	CronJobTypeAll      = "all"
)

// CronJobServices contém os serviços de cron disponíveis para execução manual
type CronJobServices struct {
	AnalysisSyncService *scheduler.AnalysisSyncService
}

// RunCronJob dispara uma cron job em segundo plano
func RunCronJob(services CronJobServices) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.ForContext(r.Context()).Info("INIT - RunCronJob")

		cronType := httprouter.ParamsFromContext(r.Context()).ByName("type")
		if cronType == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "Tipo de cron job não especificado", nil)
			return
		}

		switch cronType {
		case CronJobTypeAnalysis, CronJobTypeAll:
			if services.AnalysisSyncService == nil {
				apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Serviço de análise agendada não disponível", nil)
				return
			}
			services.AnalysisSyncService.TriggerManualSync()

		default:
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Tipo de cron job inválido. Valores aceitos: analysis, all", nil)
			return
		}

		writeJSON(w, r, http.StatusAccepted, map[string]any{
			"message": "Cron job iniciada com sucesso",
			"type":    cronType,
		})
	}
}

// GetCronStatus retorna o status das cron jobs
func GetCronStatus(services CronJobServices) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]any{}

		if services.AnalysisSyncService != nil {
			status[CronJobTypeAnalysis] = services.AnalysisSyncService.GetStatus()
		}

		writeJSON(w, r, http.StatusOK, status)
	}
}
