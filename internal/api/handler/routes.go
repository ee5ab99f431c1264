package handler

import (
	"net/http"

	"github.com/vfg2006/revenue-forecasting-api/infrastructure/repository"
	"github.com/vfg2006/revenue-forecasting-api/internal/api/handler/router"
	"github.com/vfg2006/revenue-forecasting-api/internal/usecases/authenticating"
	"github.com/vfg2006/revenue-forecasting-api/pkg/middleware"
)

func Healthcheck(db Pinger) []router.Route {
	return []router.Route{
		{
			Path:    "/healthcheck",
			Method:  http.MethodGet,
			Handler: HealthcheckHandler(db),
		},
	}
}

func Authentication(service authenticating.Authenticator) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/login",
			Method:  http.MethodPost,
			Handler: Login(service),
		},
		{
			Path:        "/v1/me",
			Method:      http.MethodGet,
			Handler:     GetMe(service),
			Middlewares: []func(http.Handler) http.Handler{middleware.AllRoles()},
		},
	}
}

func Analysis(runner AnalysisRunner) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/analysis/run",
			Method:      http.MethodPost,
			Handler:     RunAnalysis(runner),
			Middlewares: []func(http.Handler) http.Handler{middleware.AdminOrSupervisor()},
		},
	}
}

func Forecasts(repo repository.ForecastRepository) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/forecasts/latest",
			Method:      http.MethodGet,
			Handler:     GetLatestForecast(repo),
			Middlewares: []func(http.Handler) http.Handler{middleware.AllRoles()},
		},
	}
}

func Alerts(repo repository.AlertRepository) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/alerts",
			Method:      http.MethodGet,
			Handler:     ListAlerts(repo),
			Middlewares: []func(http.Handler) http.Handler{middleware.AllRoles()},
		},
	}
}

func CronJobs(services CronJobServices) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/cron/:type/run",
			Method:      http.MethodPost,
			Handler:     RunCronJob(services),
			Middlewares: []func(http.Handler) http.Handler{middleware.AdminOnly()},
		},
		{
			Path:        "/v1/cron/status",
			Method:      http.MethodGet,
			Handler:     GetCronStatus(services),
			Middlewares: []func(http.Handler) http.Handler{middleware.AdminOrSupervisor()},
		},
	}
}
