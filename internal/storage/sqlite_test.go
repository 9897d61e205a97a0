package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "db.sqlite")

	db, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(ctx, db, []string{
		`CREATE TABLE IF NOT EXISTS kv (k TEXT PRIMARY KEY, v TEXT NOT NULL);`,
		`INSERT INTO kv (k, v) VALUES ('a', 'b');`,
	}))

	var v string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = 'a'`).Scan(&v))
	assert.Equal(t, "b", v)
}

func TestOpenSQLite_Memory(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, MemoryPath)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(ctx, db, []string{`CREATE TABLE t (id INTEGER);`}))
	_, err = db.ExecContext(ctx, `INSERT INTO t (id) VALUES (1)`)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM t`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestMigrate_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, MemoryPath)
	require.NoError(t, err)
	defer db.Close()

	err = Migrate(ctx, db, []string{
		`CREATE TABLE ok (id INTEGER);`,
		`THIS IS NOT SQL;`,
	})
	require.Error(t, err)

	var n int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='ok'`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "")
	assert.Error(t, err)
}
