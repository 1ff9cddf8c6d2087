package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewWithDB(mock), mock
}

func TestStore_Migrate(t *testing.T) {
	store, mock := setupMockStore(t)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv_store").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Get(t *testing.T) {
	store, mock := setupMockStore(t)
	defer mock.Close()

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery("SELECT value FROM kv_store WHERE key").
			WithArgs("alice:liked").
			WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`["1"]`)))

		value, ok, err := store.Get(context.Background(), "alice:liked")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `["1"]`, string(value))
	})

	t.Run("Missing", func(t *testing.T) {
		mock.ExpectQuery("SELECT value FROM kv_store WHERE key").
			WithArgs("bob:liked").
			WillReturnError(pgx.ErrNoRows)

		value, ok, err := store.Get(context.Background(), "bob:liked")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, value)
	})

	t.Run("InternalError", func(t *testing.T) {
		mock.ExpectQuery("SELECT value FROM kv_store WHERE key").
			WithArgs("bob:liked").
			WillReturnError(pgx.ErrTxClosed)

		_, _, err := store.Get(context.Background(), "bob:liked")
		assert.ErrorIs(t, err, pgx.ErrTxClosed)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Set(t *testing.T) {
	store, mock := setupMockStore(t)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO kv_store").
		WithArgs("alice:recent", []byte(`[]`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Set(context.Background(), "alice:recent", []byte(`[]`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Set_Error(t *testing.T) {
	store, mock := setupMockStore(t)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO kv_store").
		WithArgs("k", pgxmock.AnyArg()).
		WillReturnError(pgx.ErrTxClosed)

	err := store.Set(context.Background(), "k", nil)
	assert.ErrorIs(t, err, pgx.ErrTxClosed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Delete(t *testing.T) {
	store, mock := setupMockStore(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM kv_store WHERE key").
		WithArgs("k").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, store.Delete(context.Background(), "k"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
