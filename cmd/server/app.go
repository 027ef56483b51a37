package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/transcribe-api/internal/api"
	"github.com/phrazzld/transcribe-api/internal/config"
	"github.com/phrazzld/transcribe-api/internal/events"
	"github.com/phrazzld/transcribe-api/internal/service"
	"github.com/phrazzld/transcribe-api/internal/store"
	"github.com/phrazzld/transcribe-api/internal/task"
)

// application holds the shared dependencies of the server so they can be
// shut down in order.
type application struct {
	config *config.Config
	logger *slog.Logger

	db         *sql.DB
	studyStore store.StudyStore

	eventEmitter *events.InMemoryEventEmitter
	// taskRunner is nil when saves run synchronously.
	taskRunner   *task.TaskRunner
	studyService service.StudyService

	router http.Handler
}

// newApplication opens the store, restores the study and wires the save
// pipeline: every change becomes a StudyChangedEvent whose handler saves the
// snapshot inline or through the task runner.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	var err error
	app.studyStore, app.db, err = setupStudyStore(ctx, cfg.Persistence, logger)
	if err != nil {
		return nil, err
	}

	st := store.LoadStudy(ctx, app.studyStore, logger)

	var submitter task.Submitter
	if !cfg.Persistence.Sync {
		app.taskRunner = task.NewTaskRunner(task.TaskRunnerConfig{
			WorkerCount: 1,
			QueueSize:   cfg.Persistence.QueueSize,
		}, logger)
		app.taskRunner.Start()
		submitter = app.taskRunner
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(
		task.NewSaveStudyEventHandler(submitter, app.studyStore, task.NewSequenceTracker(), logger),
	)

	app.studyService, err = service.NewStudyService(st, app.eventEmitter, service.StudyServiceConfig{
		SyncPersistence: cfg.Persistence.Sync,
	}, logger)
	if err != nil {
		app.cleanup(ctx)
		return nil, fmt.Errorf("failed to create study service: %w", err)
	}

	app.router = api.NewRouter(api.RouterConfig{
		StudyService: app.studyService,
		CORSOrigins:  cfg.CORS.Origins,
		Logger:       logger,
	})

	logger.Info("application initialized",
		"submissions", app.studyService.SubmissionCount(ctx),
		"cors_origins", len(cfg.CORS.Origins))
	return app, nil
}

// cleanup drains pending saves and closes the database. ctx bounds the
// drain.
func (app *application) cleanup(ctx context.Context) {
	if app.taskRunner != nil {
		if err := app.taskRunner.Stop(ctx); err != nil {
			app.logger.Error("pending saves were not drained", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
