package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vfg2006/revenue-forecasting-api/infrastructure/database/postgres"
	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
)

const (
	forecastRunsTable   = "forecast_runs"
	forecastPointsTable = "forecast_points"
)

type ForecastRepository interface {
	SaveRun(ctx context.Context, run *domain.ForecastRun) error
	GetLatestRun(ctx context.Context, businessUnit string) (*domain.ForecastRun, error)
	GetByPeriod(ctx context.Context, period time.Time) ([]domain.ForecastPoint, error)
}

type forecastRepository struct {
	conn postgres.Conn
}

func NewForecastRepository(conn postgres.Conn) ForecastRepository {
	return &forecastRepository{
		conn: conn,
	}
}

// SaveRun grava a execução e seus pontos na mesma transação
func (r *forecastRepository) SaveRun(ctx context.Context, run *domain.ForecastRun) error {
	fits := run.ModelFits
	if fits == nil {
		fits = []domain.ModelFit{}
	}

	modelFits, err := jsoniter.MarshalToString(fits)
	if err != nil {
		return errors.Wrap(err, "erro ao serializar métricas dos modelos")
	}

	runQuery, runArgs, err := squirrel.
		Insert(forecastRunsTable).
		Columns("id", "generated_at", "last_historical_period", "model_fits").
		Values(run.ID, run.GeneratedAt, run.LastHistoricalPeriod, modelFits).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "erro ao construir query de execução de previsão")
	}

	var pointsQuery string
	var pointsArgs []any
	if len(run.Points) > 0 {
		builder := squirrel.
			Insert(forecastPointsTable).
			Columns(
				"run_id",
				"period",
				"business_unit",
				"components",
				"linear_forecast",
				"seasonal_forecast",
				"ensemble_forecast",
				"intervals",
			).
			PlaceholderFormat(squirrel.Dollar)

		for _, point := range run.Points {
			components, err := jsoniter.MarshalToString(point.Components)
			if err != nil {
				return errors.Wrap(err, "erro ao serializar componentes da previsão")
			}

			intervals, err := jsoniter.MarshalToString(point.Intervals)
			if err != nil {
				return errors.Wrap(err, "erro ao serializar intervalos da previsão")
			}

			builder = builder.Values(
				run.ID,
				point.Period,
				point.BusinessUnit,
				components,
				decimal.NewFromFloat(point.LinearForecast),
				decimal.NewFromFloat(point.SeasonalForecast),
				decimal.NewFromFloat(point.EnsembleForecast),
				intervals,
			)
		}

		pointsQuery, pointsArgs, err = builder.ToSql()
		if err != nil {
			return errors.Wrap(err, "erro ao construir query de pontos de previsão")
		}
	}

	return r.conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, runQuery, runArgs...); err != nil {
			return errors.Wrap(err, "erro ao inserir execução de previsão")
		}

		if pointsQuery == "" {
			return nil
		}

		if _, err := tx.ExecContext(ctx, pointsQuery, pointsArgs...); err != nil {
			return errors.Wrap(err, "erro ao inserir pontos de previsão")
		}

		return nil
	})
}

// GetLatestRun retorna a execução mais recente. Com businessUnit vazio, traz todas as unidades.
func (r *forecastRepository) GetLatestRun(ctx context.Context, businessUnit string) (*domain.ForecastRun, error) {
	query, args, err := squirrel.
		Select("id", "generated_at", "last_historical_period", "model_fits").
		From(forecastRunsTable).
		OrderBy("generated_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "erro ao construir query de execução de previsão")
	}

	run := &domain.ForecastRun{}
	var modelFits []byte
	err = r.conn.QueryRowContext(ctx, query, args...).Scan(&run.ID, &run.GeneratedAt, &run.LastHistoricalPeriod, &modelFits)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "erro ao buscar última execução de previsão")
	}
	run.LastHistoricalPeriod = domain.MonthEnd(run.LastHistoricalPeriod)

	if err := jsoniter.Unmarshal(modelFits, &run.ModelFits); err != nil {
		return nil, errors.Wrap(err, "erro ao deserializar métricas dos modelos")
	}

	filter := squirrel.Eq{"fp.run_id": run.ID}
	if businessUnit != "" {
		filter["fp.business_unit"] = businessUnit

		fits := make([]domain.ModelFit, 0, len(run.ModelFits))
		for _, fit := range run.ModelFits {
			if fit.BusinessUnit == businessUnit {
				fits = append(fits, fit)
			}
		}
		run.ModelFits = fits
	}

	points, err := r.listPoints(ctx, filter)
	if err != nil {
		return nil, err
	}
	run.Points = points

	return run, nil
}

// GetByPeriod retorna os pontos previstos para o período pela execução mais recente
// gerada antes dele, ou seja, quando o período ainda era futuro
func (r *forecastRepository) GetByPeriod(ctx context.Context, period time.Time) ([]domain.ForecastPoint, error) {
	query, args, err := squirrel.
		Select("fr.id").
		From(forecastRunsTable + " fr").
		Join(forecastPointsTable + " fp ON fp.run_id = fr.id").
		Where(squirrel.Eq{"fp.period": domain.MonthEnd(period)}).
		Where(squirrel.Lt{"fr.last_historical_period": domain.MonthEnd(period)}).
		OrderBy("fr.generated_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "erro ao construir query de previsão por período")
	}

	var runID string
	if err := r.conn.QueryRowContext(ctx, query, args...).Scan(&runID); err != nil {
		if err == sql.ErrNoRows {
			return []domain.ForecastPoint{}, nil
		}
		return nil, errors.Wrap(err, "erro ao buscar previsão por período")
	}

	return r.listPoints(ctx, squirrel.Eq{"fp.run_id": runID, "fp.period": domain.MonthEnd(period)})
}

func (r *forecastRepository) listPoints(ctx context.Context, filter squirrel.Eq) ([]domain.ForecastPoint, error) {
	query, args, err := squirrel.
		Select(
			"fp.period",
			"fp.business_unit",
			"fp.components",
			"fp.linear_forecast",
			"fp.seasonal_forecast",
			"fp.ensemble_forecast",
			"fp.intervals",
		).
		From(forecastPointsTable + " fp").
		Where(filter).
		OrderBy("fp.business_unit ASC", "fp.period ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "erro ao construir query de pontos de previsão")
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "erro ao buscar pontos de previsão")
	}
	defer rows.Close()

	points := make([]domain.ForecastPoint, 0)
	for rows.Next() {
		var (
			point                      domain.ForecastPoint
			components, intervals      []byte
			linear, seasonal, ensemble decimal.Decimal
		)

		if err := rows.Scan(
			&point.Period,
			&point.BusinessUnit,
			&components,
			&linear,
			&seasonal,
			&ensemble,
			&intervals,
		); err != nil {
			return nil, errors.Wrap(err, "erro ao escanear ponto de previsão")
		}

		if err := jsoniter.Unmarshal(components, &point.Components); err != nil {
			return nil, errors.Wrap(err, "erro ao deserializar componentes da previsão")
		}
		if err := jsoniter.Unmarshal(intervals, &point.Intervals); err != nil {
			return nil, errors.Wrap(err, "erro ao deserializar intervalos da previsão")
		}

		point.Period = domain.MonthEnd(point.Period)
		point.LinearForecast = linear.InexactFloat64()
		point.SeasonalForecast = seasonal.InexactFloat64()
		point.EnsembleForecast = ensemble.InexactFloat64()

		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "erro durante a iteração de pontos de previsão")
	}

	return points, nil
}
