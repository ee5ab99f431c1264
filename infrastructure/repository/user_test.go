package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_GetUserByEmail(t *testing.T) {
	columns := []string{"id", "name", "lastname", "email", "password_hash", "active", "role_id", "created_at", "updated_at"}

	t.Run("Usuário encontrado", func(t *testing.T) {
		conn, mock := newMockConn(t)
		repo := NewUserRepository(conn)

		now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery(q("FROM users WHERE deleted = $1 AND email = $2")).
			WithArgs(false, "ana@empresa.com").
			WillReturnRows(sqlmock.NewRows(columns).AddRow(1, "Ana", "Souza", "ana@empresa.com", "hash", true, 1, now, now))

		user, err := repo.GetUserByEmail(context.Background(), "ana@empresa.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, 1, user.ID)
		assert.True(t, user.Active)
	})

	t.Run("Usuário inexistente retorna nil", func(t *testing.T) {
		conn, mock := newMockConn(t)
		repo := NewUserRepository(conn)

		mock.ExpectQuery(q("FROM users")).WillReturnError(sql.ErrNoRows)

		user, err := repo.GetUserByID(context.Background(), 42)
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}
