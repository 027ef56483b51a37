// Package sqlite stores the study snapshot in an embedded SQLite database
// using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/phrazzld/transcribe-api/internal/platform/logger"
	"github.com/phrazzld/transcribe-api/internal/platform/migrations"
	"github.com/phrazzld/transcribe-api/internal/redact"
	"github.com/phrazzld/transcribe-api/internal/store"

	_ "modernc.org/sqlite" // SQLite driver.
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// DefaultKey is the row key of the study snapshot.
const DefaultKey = "study"

const (
	loadQuery = `SELECT data FROM study_snapshots WHERE key = ?`

	upsertQuery = `
		INSERT INTO study_snapshots (key, data, revision, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (key) DO UPDATE
		SET data = excluded.data,
		    revision = study_snapshots.revision + 1,
		    updated_at = excluded.updated_at
	`

	revisionQuery = `SELECT revision FROM study_snapshots WHERE key = ?`
)

// Open opens or creates the database at path with OpenDB and applies
// pending migrations.
func Open(ctx context.Context, path string, log *slog.Logger) (*sql.DB, error) {
	db, err := OpenDB(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(ctx, db, migrations.DialectSQLite, log); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenDB opens or creates the database at path, creating its directory,
// without touching the schema.
func OpenDB(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection serializes writers; SQLite locks the whole file anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure sqlite: %w", err)
	}
	return db, nil
}

// StudyStore implements store.StudyStore on a study_snapshots row.
type StudyStore struct {
	db     *sql.DB
	key    string
	logger *slog.Logger
}

var _ store.StudyStore = (*StudyStore)(nil)

// NewStudyStore returns a store keeping the snapshot under key. An empty key
// uses DefaultKey; a nil logger uses slog.Default.
func NewStudyStore(db *sql.DB, key string, logger *slog.Logger) *StudyStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StudyStore{
		db:     db,
		key:    key,
		logger: logger.With(slog.String("component", "sqlite_study_store")),
	}
}

// Load implements store.StudyStore.
func (s *StudyStore) Load(ctx context.Context) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, loadQuery, s.key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NewStoreError(store.StudyEntity, "load", "no snapshot stored", store.ErrStudyNotFound)
	}
	if err != nil {
		return nil, store.NewStoreError(store.StudyEntity, "load", "failed to read snapshot", err)
	}
	return []byte(data), nil
}

// Save implements store.StudyStore.
func (s *StudyStore) Save(ctx context.Context, data []byte) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, upsertQuery, s.key, string(data), time.Now().UTC().Format(time.RFC3339Nano))
		return err
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to save study snapshot",
			slog.String("key", s.key),
			slog.String("error", redact.Error(err)))
		return store.NewStoreError(store.StudyEntity, "save", "failed to write snapshot", err)
	}

	log.DebugContext(ctx, "study snapshot saved",
		slog.String("key", s.key),
		slog.Int("bytes", len(data)))
	return nil
}

// Revision returns how many times the snapshot has been saved.
func (s *StudyStore) Revision(ctx context.Context) (int64, error) {
	var revision int64
	err := s.db.QueryRowContext(ctx, revisionQuery, s.key).Scan(&revision)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.ErrStudyNotFound
	}
	return revision, err
}
