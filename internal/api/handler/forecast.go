package handler

import (
	"net/http"

	"github.com/vfg2006/revenue-forecasting-api/infrastructure/repository"
	"github.com/vfg2006/revenue-forecasting-api/pkg/apiErrors"
	"github.com/vfg2006/revenue-forecasting-api/pkg/log"
)

// GetLatestForecast retorna a execução de previsão mais recente, opcionalmente filtrada por unidade
func GetLatestForecast(repo repository.ForecastRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessUnit := r.URL.Query().Get("business_unit")

		run, err := repo.GetLatestRun(r.Context(), businessUnit)
		if err != nil {
			log.ForContext(r.Context()).WithError(err).Error("Erro ao buscar última previsão")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao buscar previsão", nil)
			return
		}

		if run == nil {
			apiErrors.WriteError(w, apiErrors.ErrForecastNotFound, "Nenhuma previsão gerada até o momento", nil)
			return
		}

		writeJSON(w, r, http.StatusOK, run)
	}
}
