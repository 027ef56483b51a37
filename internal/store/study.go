package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/phrazzld/transcribe-api/internal/domain/study"
	"github.com/phrazzld/transcribe-api/internal/redact"
)

// StudyEntity names the persisted study in StoreErrors.
const StudyEntity = "study_snapshot"

// StudyStore persists the study as a single JSON snapshot.
//
// Load returns ErrNotFound (or an error wrapping it) when no snapshot has been
// saved. Save replaces the stored snapshot atomically: a reader never sees a
// partially written one.
type StudyStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// LoadStudy reads the stored snapshot and decodes it. A missing, unreadable
// or corrupt snapshot yields an empty Study; the failure is logged, never
// returned. Submissions that no longer validate are dropped with a warning.
func LoadStudy(ctx context.Context, s StudyStore, log *slog.Logger) *study.Study {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "study_loader"))

	data, err := s.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.InfoContext(ctx, "no stored study, starting empty")
		} else {
			log.WarnContext(ctx, "failed to load stored study, starting empty",
				slog.String("error", redact.Error(err)))
		}
		return study.New(nil)
	}

	st, skipped, err := study.Decode(data)
	if err != nil {
		log.WarnContext(ctx, "stored study is corrupt, starting empty",
			slog.String("error", redact.Error(err)),
			slog.Int("bytes", len(data)))
		return study.New(nil)
	}
	if len(skipped) > 0 {
		log.WarnContext(ctx, "dropped stored submissions that failed validation",
			slog.Int("count", len(skipped)))
	}

	log.InfoContext(ctx, "loaded stored study", slog.Int("submissions", st.Len()))
	return st
}
