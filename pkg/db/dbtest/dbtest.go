// Package dbtest opens throwaway SQLite databases with the production schema
// applied, for package tests that exercise real queries.
package dbtest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/labledger/labledger-backend/pkg/config"
	"github.com/labledger/labledger-backend/pkg/db"
	"github.com/labledger/labledger-backend/pkg/migrate"
	"gorm.io/driver/sqlite"
)

// New returns a client over a fresh file database in t.TempDir(), migrated to
// the latest schema. The connection is closed when the test ends.
func New(t testing.TB) *db.Client {
	t.Helper()

	path := filepath.Join(t.TempDir(), "labledger.db")
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL", path)

	conn, err := db.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	client := db.NewFromConn(conn)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.SQL()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	if err := migrate.Up(context.Background(), sqlDB, config.DriverSQLite, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return client
}
