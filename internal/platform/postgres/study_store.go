package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/phrazzld/transcribe-api/internal/platform/logger"
	"github.com/phrazzld/transcribe-api/internal/redact"
	"github.com/phrazzld/transcribe-api/internal/store"
)

// DefaultKey is the row key of the study snapshot.
const DefaultKey = "study"

const (
	loadQuery = `SELECT data FROM study_snapshots WHERE key = $1`

	upsertQuery = `
		INSERT INTO study_snapshots (key, data, revision, updated_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (key) DO UPDATE
		SET data = EXCLUDED.data,
		    revision = study_snapshots.revision + 1,
		    updated_at = EXCLUDED.updated_at
	`

	revisionQuery = `SELECT revision FROM study_snapshots WHERE key = $1`
)

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
		logger: logger.With(slog.String("component", "postgres_study_store")),
	}
}

// Load implements store.StudyStore.
func (s *StudyStore) Load(ctx context.Context) ([]byte, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var data []byte
	err := s.db.QueryRowContext(ctx, loadQuery, s.key).Scan(&data)
	if err != nil {
		err = MapError(err)
		log.DebugContext(ctx, "failed to load study snapshot",
			slog.String("key", s.key),
			slog.String("error", redact.Error(err)))
		return nil, store.NewStoreError(store.StudyEntity, "load", "failed to read snapshot", err)
	}
	return data, nil
}

// Save implements store.StudyStore.
func (s *StudyStore) Save(ctx context.Context, data []byte) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, upsertQuery, s.key, string(data), time.Now().UTC())
		return err
	})
	if err != nil {
		err = MapError(err)
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
	if err := s.db.QueryRowContext(ctx, revisionQuery, s.key).Scan(&revision); err != nil {
		return 0, MapError(err)
	}
	return revision, nil
}
