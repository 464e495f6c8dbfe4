package testutils

import (
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/session"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/session/sqldb"
)

// NewSqliteSessionPool returns a pool over a private in-memory database,
// running schema statements first.
func NewSqliteSessionPool(t testing.TB, schema ...string) (session.SessionPool, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	for _, stmt := range schema {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return sqldb.NewSessionPool(db), db
}

// NewMssqlSessionPool connects to the server named by ASCETIC_SEARCH_TEST_DSN,
// skipping the test when it is unset.
func NewMssqlSessionPool(t testing.TB) session.SessionPool {
	t.Helper()
	dsn := getEnv("ASCETIC_SEARCH_TEST_DSN", "")
	if dsn == "" {
		t.Skip("ASCETIC_SEARCH_TEST_DSN is not set")
	}
	pool, err := sqldb.OpenMssql(dsn, sqldb.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}
