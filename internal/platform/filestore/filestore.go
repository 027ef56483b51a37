// Package filestore keeps the study snapshot in a JSON file on local disk.
// It is the default backend.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/phrazzld/transcribe-api/internal/platform/logger"
	"github.com/phrazzld/transcribe-api/internal/redact"
	"github.com/phrazzld/transcribe-api/internal/store"
)

// DefaultPath is where the snapshot is written when none is configured.
const DefaultPath = "./store/study.json"

// StudyStore implements store.StudyStore on a single file. Saves write a
// temporary file in the same directory and rename it over the target, so
// readers see either the old or the new snapshot.
type StudyStore struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
}

var _ store.StudyStore = (*StudyStore)(nil)

// New returns a store for path. An empty path uses DefaultPath.
func New(path string, logger *slog.Logger) *StudyStore {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StudyStore{
		path:   path,
		logger: logger.With(slog.String("component", "file_study_store")),
	}
}

// Path returns the snapshot file location.
func (s *StudyStore) Path() string {
	return s.path
}

// Load implements store.StudyStore.
func (s *StudyStore) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, store.NewStoreError(store.StudyEntity, "load", "no snapshot file", store.ErrStudyNotFound)
	}
	if err != nil {
		return nil, store.NewStoreError(store.StudyEntity, "load", "failed to read snapshot file", err)
	}
	return data, nil
}

// Save implements store.StudyStore.
func (s *StudyStore) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeAtomic(data); err != nil {
		log.ErrorContext(ctx, "failed to save study snapshot",
			slog.String("error", redact.Error(err)))
		return store.NewStoreError(store.StudyEntity, "save", "failed to write snapshot file", err)
	}

	log.DebugContext(ctx, "study snapshot saved", slog.Int("bytes", len(data)))
	return nil
}

func (s *StudyStore) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	tmpName = ""
	return nil
}
