// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/kodbank/apiserver/config"
	"github.com/kodbank/apiserver/internal/db"
	"github.com/stretchr/testify/require"
)

// NewSQLite opens a migrated in-memory database that is closed when t ends.
func NewSQLite(t testing.TB) *db.DB {
	t.Helper()

	conn, err := db.Open(context.Background(), config.DatabaseConfig{
		Driver:     string(db.SQLite),
		SQLitePath: ":memory:",
	})
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, db.MigrateUp(conn), "failed to migrate test database")

	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}
