package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrationsCreateSchema(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, RunMigrations(dbPath))
	// A second run is a no-op, not an error.
	require.NoError(t, RunMigrations(dbPath))

	db, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, table := range []string{"bank_accounts", "bank_transactions", "transactions", "reconciliations", "match_exclusions"} {
		var name string
		err := db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
		require.Equal(t, table, name)
	}

	var idx string
	err = db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_reconciliations_confirmed_pair'").Scan(&idx)
	require.NoError(t, err)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, RunMigrations(dbPath))
	db, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	insert := func(q interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	}, id string) error {
		_, err := q.ExecContext(ctx, `INSERT INTO bank_accounts
			(id, owner_id, account_name, bank_name, sort_code, account_number, currency,
			 opening_balance, current_balance, is_default, is_active, created_at, updated_at)
			VALUES (?, 'o', 'a', 'b', '', '', 'GBP', 0, 0, 0, 1, ?, ?)`, id, Now(), Now())
		return err
	}
	require.NoError(t, insert(db, "keep"))

	boom := errors.New("boom")
	err = WithTx(ctx, db, func(tx *sql.Tx) error {
		if err := insert(tx, "discard"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bank_accounts").Scan(&count))
	require.Equal(t, 1, count)
}
