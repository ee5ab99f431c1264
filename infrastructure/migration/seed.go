package migration

import (
	"context"
	"database/sql"
	"math"
	"math/rand/v2"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/vfg2006/revenue-forecasting-api/infrastructure/database/postgres"
	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
	"github.com/vfg2006/revenue-forecasting-api/pkg/log"
)

// SampleUnits são as unidades de negócio geradas na carga de exemplo
var SampleUnits = []string{"Sales", "Marketing", "Enterprise", "SMB", "International"}

type SampleOptions struct {
	Seed   uint64
	Start  time.Time // Primeiro mês da série
	Months int
	Units  []string
}

func DefaultSampleOptions() SampleOptions {
	return SampleOptions{
		Seed:   42,
		Start:  time.Date(2021, 1, 31, 0, 0, 0, 0, time.UTC),
		Months: 36,
		Units:  SampleUnits,
	}
}

type SampleData struct {
	Observations []domain.MonthlyObservation
	KPIInputs    []domain.KPIObservation
}

// GenerateSampleData gera séries com tendência de crescimento anual, sazonalidade senoidal e ruído.
// A mesma semente sempre produz os mesmos dados.
func GenerateSampleData(opts SampleOptions) SampleData {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	uniform := func(lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }

	start := domain.MonthEnd(opts.Start)
	data := SampleData{
		Observations: make([]domain.MonthlyObservation, 0, len(opts.Units)*opts.Months),
		KPIInputs:    make([]domain.KPIObservation, 0, opts.Months),
	}

	for _, unit := range opts.Units {
		baseRevenue := uniform(100000, 500000)
		growthRate := uniform(0.05, 0.20)
		seasonality := uniform(0.1, 0.3)

		for i := 0; i < opts.Months; i++ {
			trend := baseRevenue * math.Pow(1+growthRate, float64(i)/12)
			seasonal := seasonality * math.Sin(2*math.Pi*float64(i)/12)
			noise := rng.NormFloat64() * 0.1

			revenue := math.Max(0, trend*(1+seasonal+noise))

			data.Observations = append(data.Observations, domain.MonthlyObservation{
				Period:         domain.AddMonths(start, i),
				BusinessUnit:   unit,
				Revenue:        round2(revenue),
				CustomerCount:  int(revenue / uniform(1000, 5000)),
				MarketingSpend: round2(revenue * uniform(0.05, 0.15)),
				SalesTeamSize:  5 + rng.IntN(21),
			})
		}
	}

	for i := 0; i < opts.Months; i++ {
		data.KPIInputs = append(data.KPIInputs, domain.KPIObservation{
			Period:                  domain.AddMonths(start, i),
			CustomerAcquisitionCost: round2(uniform(150, 800)),
			CustomerLifetimeValue:   round2(uniform(2000, 8000)),
			ChurnRate:               math.Round(uniform(0.02, 0.08)*1000) / 1000,
			RetentionRate:           math.Round(uniform(0.88, 0.96)*1000) / 1000,
			NetPromoterScore:        float64(30 + rng.IntN(41)),
		})
	}

	return data
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// Seed grava os dados de exemplo, sobrescrevendo períodos já existentes
func Seed(ctx context.Context, conn postgres.Conn, data SampleData) error {
	revenueBuilder := squirrel.
		Insert("monthly_revenue").
		Columns("period", "business_unit", "revenue", "customer_count", "marketing_spend", "sales_team_size").
		Suffix(`ON CONFLICT (period, business_unit) DO UPDATE SET
			revenue = EXCLUDED.revenue,
			customer_count = EXCLUDED.customer_count,
			marketing_spend = EXCLUDED.marketing_spend,
			sales_team_size = EXCLUDED.sales_team_size`).
		PlaceholderFormat(squirrel.Dollar)

	for _, obs := range data.Observations {
		revenueBuilder = revenueBuilder.Values(
			obs.Period,
			obs.BusinessUnit,
			decimal.NewFromFloat(obs.Revenue),
			obs.CustomerCount,
			decimal.NewFromFloat(obs.MarketingSpend),
			obs.SalesTeamSize,
		)
	}

	kpiBuilder := squirrel.
		Insert("monthly_kpi_inputs").
		Columns("period", "customer_acquisition_cost", "customer_lifetime_value", "churn_rate", "retention_rate", "net_promoter_score").
		Suffix(`ON CONFLICT (period) DO UPDATE SET
			customer_acquisition_cost = EXCLUDED.customer_acquisition_cost,
			customer_lifetime_value = EXCLUDED.customer_lifetime_value,
			churn_rate = EXCLUDED.churn_rate,
			retention_rate = EXCLUDED.retention_rate,
			net_promoter_score = EXCLUDED.net_promoter_score`).
		PlaceholderFormat(squirrel.Dollar)

	for _, kpi := range data.KPIInputs {
		kpiBuilder = kpiBuilder.Values(
			kpi.Period,
			decimal.NewFromFloat(kpi.CustomerAcquisitionCost),
			decimal.NewFromFloat(kpi.CustomerLifetimeValue),
			decimal.NewFromFloat(kpi.ChurnRate),
			decimal.NewFromFloat(kpi.RetentionRate),
			decimal.NewFromFloat(kpi.NetPromoterScore),
		)
	}

	err := conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		if len(data.Observations) > 0 {
			query, args, err := revenueBuilder.ToSql()
			if err != nil {
				return errors.Wrap(err, "erro ao construir carga de receita")
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return errors.Wrap(err, "erro ao gravar receita de exemplo")
			}
		}

		if len(data.KPIInputs) > 0 {
			query, args, err := kpiBuilder.ToSql()
			if err != nil {
				return errors.Wrap(err, "erro ao construir carga de indicadores")
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return errors.Wrap(err, "erro ao gravar indicadores de exemplo")
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	log.L.WithFields(log.Fields{
		"observations": len(data.Observations),
		"kpi_inputs":   len(data.KPIInputs),
	}).Info("Dados de exemplo gravados")

	return nil
}

// SeedAdmin cria o usuário administrador, ou atualiza a senha se o email já existir
func SeedAdmin(ctx context.Context, conn postgres.Conn, name, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "erro ao gerar hash da senha")
	}

	query, args, err := squirrel.
		Insert("users").
		Columns("name", "email", "password_hash", "active", "role_id").
		Values(name, email, string(hash), true, 1).
		Suffix("ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, active = TRUE, updated_at = NOW()").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "erro ao construir query do administrador")
	}

	if _, err := conn.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "erro ao gravar administrador")
	}

	return nil
}
