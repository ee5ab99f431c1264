package handler

import (
	"net/http"

	"github.com/vfg2006/revenue-forecasting-api/infrastructure/repository"
	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
	"github.com/vfg2006/revenue-forecasting-api/pkg/apiErrors"
	"github.com/vfg2006/revenue-forecasting-api/pkg/log"
)

// ListAlerts retorna os alertas gravados para o período (mm-yyyy)
func ListAlerts(repo repository.AlertRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		periodParam := r.URL.Query().Get("period")
		if periodParam == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "Parâmetro period é obrigatório (mm-yyyy)", nil)
			return
		}

		period, err := domain.ParsePeriod(periodParam)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		alerts, err := repo.ListByPeriod(r.Context(), period)
		if err != nil {
			log.ForContext(r.Context()).WithError(err).Error("Erro ao buscar alertas")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao buscar alertas", nil)
			return
		}

		writeJSON(w, r, http.StatusOK, map[string]any{
			"period": domain.PeriodKey(period),
			"alerts": alerts,
		})
	}
}
