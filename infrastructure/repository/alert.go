package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vfg2006/revenue-forecasting-api/infrastructure/database/postgres"
	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
)

const alertsTable = "alerts"

type AlertRepository interface {
	ReplaceAlerts(ctx context.Context, runID string, period time.Time, alerts []domain.Alert) error
	ListByPeriod(ctx context.Context, period time.Time) ([]domain.Alert, error)
}

type alertRepository struct {
	conn postgres.Conn
}

func NewAlertRepository(conn postgres.Conn) AlertRepository {
	return &alertRepository{
		conn: conn,
	}
}

// ReplaceAlerts substitui os alertas do período pelos da execução atual.
// Alertas não têm identidade entre execuções, então a última execução prevalece.
func (r *alertRepository) ReplaceAlerts(ctx context.Context, runID string, period time.Time, alerts []domain.Alert) error {
	deleteQuery, deleteArgs, err := squirrel.
		Delete(alertsTable).
		Where(squirrel.Eq{"period": domain.MonthEnd(period)}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "erro ao construir query de remoção de alertas")
	}

	var insertQuery string
	var insertArgs []any
	if len(alerts) > 0 {
		builder := squirrel.
			Insert(alertsTable).
			Columns("run_id", "period", "alert_type", "severity", "business_unit", "description", "metric_value").
			PlaceholderFormat(squirrel.Dollar)

		for _, alert := range alerts {
			builder = builder.Values(
				runID,
				alert.Period,
				string(alert.Type),
				string(alert.Severity),
				alert.BusinessUnit,
				alert.Description,
				decimal.NewFromFloat(alert.MetricValue),
			)
		}

		insertQuery, insertArgs, err = builder.ToSql()
		if err != nil {
			return errors.Wrap(err, "erro ao construir query de inserção de alertas")
		}
	}

	return r.conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
			return errors.Wrap(err, "erro ao remover alertas anteriores")
		}

		if insertQuery == "" {
			return nil
		}

		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return errors.Wrap(err, "erro ao inserir alertas")
		}

		return nil
	})
}

// ListByPeriod retorna os alertas do período na mesma ordem emitida pelo motor
func (r *alertRepository) ListByPeriod(ctx context.Context, period time.Time) ([]domain.Alert, error) {
	query, args, err := squirrel.
		Select("period", "alert_type", "severity", "business_unit", "description", "metric_value").
		From(alertsTable).
		Where(squirrel.Eq{"period": domain.MonthEnd(period)}).
		OrderBy(
			"CASE severity WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC",
			"alert_type ASC",
			"COALESCE(business_unit, '"+domain.AllUnits+"') ASC",
		).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "erro ao construir query de alertas")
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "erro ao buscar alertas")
	}
	defer rows.Close()

	alerts := make([]domain.Alert, 0)
	for rows.Next() {
		var (
			alert        domain.Alert
			alertType    string
			severity     string
			businessUnit sql.NullString
			metricValue  decimal.Decimal
		)

		if err := rows.Scan(
			&alert.Period,
			&alertType,
			&severity,
			&businessUnit,
			&alert.Description,
			&metricValue,
		); err != nil {
			return nil, errors.Wrap(err, "erro ao escanear alerta")
		}

		alert.Period = domain.MonthEnd(alert.Period)
		alert.Type = domain.AlertType(alertType)
		alert.Severity = domain.Severity(severity)
		alert.MetricValue = metricValue.InexactFloat64()
		if businessUnit.Valid {
			alert.BusinessUnit = &businessUnit.String
		}

		alerts = append(alerts, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "erro durante a iteração de alertas")
	}

	return alerts, nil
}
