// Package testdb opens migrated databases for tests. SQLite databases live
// in the test's temp directory; Postgres tests are skipped unless a database
// URL is configured.
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/phrazzld/transcribe-api/internal/platform/logger"
	"github.com/phrazzld/transcribe-api/internal/platform/migrations"
	"github.com/phrazzld/transcribe-api/internal/platform/postgres"
	"github.com/phrazzld/transcribe-api/internal/platform/sqlite"
	"github.com/phrazzld/transcribe-api/internal/redact"
)

// Environment variables holding the Postgres test database URL, in order
// of preference.
const (
	EnvTestDBURL   = "TRANSCRIBE_TEST_DB_URL"
	EnvDatabaseURL = "DATABASE_URL"
)

// DatabaseURL returns the first non-empty Postgres URL from the
// environment, or "".
func DatabaseURL() string {
	for _, name := range []string{EnvTestDBURL, EnvDatabaseURL} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// OpenPostgres connects to the test database and applies the schema. The
// test is skipped when no URL is configured and the connection is closed
// on cleanup.
func OpenPostgres(t testing.TB) *sql.DB {
	t.Helper()
	url := DatabaseURL()
	if url == "" {
		t.Skipf("%s not set, skipping postgres integration test", EnvDatabaseURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Open(ctx, url)
	if err != nil {
		t.Fatalf("failed to connect to test database: %s", redact.Error(err))
	}
	t.Cleanup(func() { _ = db.Close() })

	log, _ := logger.NewTestLogger()
	if err := migrations.Up(ctx, db, migrations.DialectPostgres, log); err != nil {
		t.Fatalf("failed to migrate test database: %s", redact.Error(err))
	}
	return db
}

// OpenSQLite creates a migrated SQLite database in a temp directory.
func OpenSQLite(t testing.TB) *sql.DB {
	t.Helper()
	log, _ := logger.NewTestLogger()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), log)
	if err != nil {
		t.Fatalf("failed to open sqlite test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// WithTx runs fn in a transaction that is always rolled back, so fn may
// write freely without affecting other tests.
func WithTx(t testing.TB, db *sql.DB, fn func(tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("failed to roll back transaction: %v", err)
		}
	}()

	fn(tx)
}
