package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/transcribe-api/internal/config"
	"github.com/phrazzld/transcribe-api/internal/platform/filestore"
	"github.com/phrazzld/transcribe-api/internal/platform/migrations"
	"github.com/phrazzld/transcribe-api/internal/platform/postgres"
	"github.com/phrazzld/transcribe-api/internal/platform/sqlite"
	"github.com/phrazzld/transcribe-api/internal/store"
)

var (
	// ErrNoSchema is returned for migrate commands on the file backend.
	ErrNoSchema = errors.New("the file backend has no schema to migrate")

	// ErrSchemaNotMigrated is returned at startup when the postgres schema
	// has not been created.
	ErrSchemaNotMigrated = errors.New("database schema is not migrated, run `transcribe-api migrate up`")
)

// setupStudyStore opens the configured persistence backend. The returned
// *sql.DB is nil for the file backend and must be closed by the caller
// otherwise.
func setupStudyStore(ctx context.Context, cfg config.PersistenceConfig, log *slog.Logger) (store.StudyStore, *sql.DB, error) {
	switch cfg.Backend {
	case config.BackendFile:
		log.Info("using file persistence", "path", cfg.Path)
		return filestore.New(cfg.Path, log), nil, nil

	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.Path, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		log.Info("using sqlite persistence", "path", cfg.Path)
		return sqlite.NewStudyStore(db, sqlite.DefaultKey, log), db, nil

	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		version, err := migrations.CurrentVersion(ctx, db, migrations.DialectPostgres)
		if err != nil || version == 0 {
			_ = db.Close()
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %v", ErrSchemaNotMigrated, err)
			}
			return nil, nil, ErrSchemaNotMigrated
		}
		log.Info("using postgres persistence", "schema_version", version)
		return postgres.NewStudyStore(db, postgres.DefaultKey, log), db, nil
	}
	return nil, nil, fmt.Errorf("unknown persistence backend %q", cfg.Backend)
}

// openMigrationDB opens the database of a SQL backend without applying any
// migration and returns its goose dialect.
func openMigrationDB(ctx context.Context, cfg config.PersistenceConfig) (*sql.DB, string, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := sqlite.OpenDB(ctx, cfg.Path)
		return db, migrations.DialectSQLite, err
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		return db, migrations.DialectPostgres, err
	case config.BackendFile:
		return nil, "", ErrNoSchema
	}
	return nil, "", fmt.Errorf("unknown persistence backend %q", cfg.Backend)
}

// runMigrations executes a goose command against the configured backend.
func runMigrations(ctx context.Context, cfg *config.Config, command string, log *slog.Logger) error {
	db, dialect, err := openMigrationDB(ctx, cfg.Persistence)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Error("failed to close database connection", "error", cerr)
		}
	}()

	return migrations.Run(ctx, db, dialect, command, log)
}
