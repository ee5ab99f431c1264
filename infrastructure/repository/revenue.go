// Package repository contém as implementações dos repositórios para acesso aos dados
package repository

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vfg2006/revenue-forecasting-api/infrastructure/database/postgres"
	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
)

const (
	monthlyRevenueTable   = "monthly_revenue mr"
	monthlyKPIInputsTable = "monthly_kpi_inputs mk"
)

// RevenueRepository fornece as séries mensais já validadas usadas pelo motor de análise
type RevenueRepository interface {
	ListMonthlyObservations(ctx context.Context) ([]domain.MonthlyObservation, error)
	ListKPIObservations(ctx context.Context) ([]domain.KPIObservation, error)
}

type revenueRepository struct {
	conn postgres.Conn
}

func NewRevenueRepository(conn postgres.Conn) RevenueRepository {
	return &revenueRepository{
		conn: conn,
	}
}

// ListMonthlyObservations retorna as observações ordenadas por unidade e período
func (r *revenueRepository) ListMonthlyObservations(ctx context.Context) ([]domain.MonthlyObservation, error) {
	query, args, err := squirrel.
		Select(
			"mr.period",
			"mr.business_unit",
			"mr.revenue",
			"mr.customer_count",
			"mr.marketing_spend",
			"mr.sales_team_size",
		).
		From(monthlyRevenueTable).
		OrderBy("mr.business_unit ASC", "mr.period ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "erro ao construir a query de receita mensal")
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "erro ao buscar receita mensal")
	}
	defer rows.Close()

	observations := make([]domain.MonthlyObservation, 0)
	for rows.Next() {
		var (
			obs            domain.MonthlyObservation
			period         time.Time
			revenue, spend decimal.Decimal
		)

		if err := rows.Scan(
			&period,
			&obs.BusinessUnit,
			&revenue,
			&obs.CustomerCount,
			&spend,
			&obs.SalesTeamSize,
		); err != nil {
			return nil, errors.Wrap(err, "erro ao escanear receita mensal")
		}

		obs.Period = domain.MonthEnd(period)
		obs.Revenue = revenue.InexactFloat64()
		obs.MarketingSpend = spend.InexactFloat64()

		observations = append(observations, obs)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "erro durante a iteração de receita mensal")
	}

	return observations, nil
}

// ListKPIObservations retorna os indicadores de clientes da empresa ordenados por período
func (r *revenueRepository) ListKPIObservations(ctx context.Context) ([]domain.KPIObservation, error) {
	query, args, err := squirrel.
		Select(
			"mk.period",
			"mk.customer_acquisition_cost",
			"mk.customer_lifetime_value",
			"mk.churn_rate",
			"mk.retention_rate",
			"mk.net_promoter_score",
		).
		From(monthlyKPIInputsTable).
		OrderBy("mk.period ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "erro ao construir a query de indicadores")
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "erro ao buscar indicadores de clientes")
	}
	defer rows.Close()

	observations := make([]domain.KPIObservation, 0)
	for rows.Next() {
		var (
			period                    time.Time
			cac, clv, churn, ret, nps decimal.Decimal
		)

		if err := rows.Scan(&period, &cac, &clv, &churn, &ret, &nps); err != nil {
			return nil, errors.Wrap(err, "erro ao escanear indicadores de clientes")
		}

		observations = append(observations, domain.KPIObservation{
			Period:                  domain.MonthEnd(period),
			CustomerAcquisitionCost: cac.InexactFloat64(),
			CustomerLifetimeValue:   clv.InexactFloat64(),
			ChurnRate:               churn.InexactFloat64(),
			RetentionRate:           ret.InexactFloat64(),
			NetPromoterScore:        nps.InexactFloat64(),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "erro durante a iteração de indicadores")
	}

	return observations, nil
}
