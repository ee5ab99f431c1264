package migration

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfg2006/revenue-forecasting-api/infrastructure/database/postgres"
	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
	"github.com/vfg2006/revenue-forecasting-api/pkg/log"
)

func newMockConn(t *testing.T) (*postgres.Connection, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	return &postgres.Connection{DB: db}, mock
}

func TestStatements(t *testing.T) {
	statements := Statements()

	require.NotEmpty(t, statements)
	for _, statement := range statements {
		assert.NotContains(t, statement, ";")
	}
	assert.Contains(t, statements[0], "monthly_revenue")
}

func TestApply(t *testing.T) {
	log.SetupTestLogger()

	t.Run("Executa todos os comandos na transação", func(t *testing.T) {
		conn, mock := newMockConn(t)

		mock.ExpectBegin()
		for range Statements() {
			mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectCommit()

		require.NoError(t, Apply(context.Background(), conn))
	})

	t.Run("Erro desfaz a transação", func(t *testing.T) {
		conn, mock := newMockConn(t)

		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS monthly_revenue").WillReturnError(errors.New("permission denied"))
		mock.ExpectRollback()

		err := Apply(context.Background(), conn)
		assert.ErrorContains(t, err, "erro ao executar migração")
	})
}

func TestGenerateSampleData(t *testing.T) {
	opts := DefaultSampleOptions()

	data := GenerateSampleData(opts)

	assert.Len(t, data.Observations, len(SampleUnits)*36)
	assert.Len(t, data.KPIInputs, 36)

	// Mesma semente gera os mesmos dados
	assert.Equal(t, data, GenerateSampleData(opts))

	grouped, units := domain.GroupByBusinessUnit(data.Observations)
	assert.Equal(t, SampleUnits, units)

	for _, unit := range units {
		series := grouped[unit]
		require.Len(t, series, 36)
		assert.Equal(t, time.Date(2021, 1, 31, 0, 0, 0, 0, time.UTC), series[0].Period)
		assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), series[35].Period)

		for i := 1; i < len(series); i++ {
			assert.Equal(t, domain.MonthIndex(series[i-1].Period)+1, domain.MonthIndex(series[i].Period))
			assert.GreaterOrEqual(t, series[i].Revenue, 0.0)
		}
	}

	for _, kpi := range data.KPIInputs {
		assert.GreaterOrEqual(t, kpi.ChurnRate, 0.02)
		assert.LessOrEqual(t, kpi.RetentionRate, 0.96)
	}
}

func TestSeed(t *testing.T) {
	log.SetupTestLogger()

	conn, mock := newMockConn(t)
	data := GenerateSampleData(SampleOptions{Seed: 1, Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Months: 2, Units: []string{"Norte"}})

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO monthly_revenue")).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO monthly_kpi_inputs")).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, Seed(context.Background(), conn, data))
}

func TestSeedAdmin(t *testing.T) {
	conn, mock := newMockConn(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (name,email,password_hash,active,role_id)")).
		WithArgs("Admin", "admin@empresa.com", sqlmock.AnyArg(), true, 1).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, SeedAdmin(context.Background(), conn, "Admin", "admin@empresa.com", "segredo"))
}
