package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/phrazzld/loopmind-api/internal/config"
	"github.com/phrazzld/loopmind-api/internal/events"
	"github.com/phrazzld/loopmind-api/internal/generation"
	"github.com/phrazzld/loopmind-api/internal/platform/gcs"
	"github.com/phrazzld/loopmind-api/internal/platform/gemini"
	"github.com/phrazzld/loopmind-api/internal/platform/postgres"
	"github.com/phrazzld/loopmind-api/internal/service"
	"github.com/phrazzld/loopmind-api/internal/service/auth"
	"github.com/phrazzld/loopmind-api/internal/store"
	"github.com/phrazzld/loopmind-api/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	stores    store.Stores
	taskStore task.TaskStore
	blobs     *gcs.BlobStore

	jwtService   auth.JWTService
	topicService service.TopicService

	eventEmitter *events.InMemoryEventEmitter
	taskRunner   *task.TaskRunner
}

// newApplication creates a new application instance with all dependencies initialized.
// It accepts core dependencies like configuration, logger, and database connection that
// must be established before application initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.stores = store.Stores{
		Topics:   postgres.NewPostgresTopicStore(db, logger),
		Cards:    postgres.NewPostgresCardStore(db, logger),
		Learning: postgres.NewPostgresLearningStore(db, logger),
	}
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	invoker, err := gemini.NewInvoker(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM invoker: %w", err)
	}
	renderer, err := gemini.NewImageRenderer(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image renderer: %w", err)
	}
	app.blobs, err = gcs.NewBlobStore(ctx, cfg.Render, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob store: %w", err)
	}
	logger.Info("LLM and storage clients initialized",
		"model", cfg.LLM.ModelName,
		"image_model", cfg.LLM.ImageModelName,
		"bucket", cfg.Render.Bucket)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	pipeline, err := generation.NewPipeline(invoker, cfg.Generation, rng, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation pipeline: %w", err)
	}

	renderFactory, err := task.NewImageRenderTaskFactory(task.ImageRenderDeps{
		Cards:    app.stores.Cards,
		Topics:   app.stores.Topics,
		Renderer: renderer,
		Blobs:    app.blobs,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create image render task factory: %w", err)
	}
	registry := task.NewRegistry()
	registry.Register(task.TaskTypeImageRender, renderFactory)

	app.taskRunner, err = setupTaskRunner(app, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to setup task runner: %w", err)
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(task.NewTaskFactoryEventHandler(registry, app.taskRunner, logger))

	dispatcher, err := service.NewEventImageDispatcher(app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create image dispatcher: %w", err)
	}

	app.topicService, err = service.NewTopicService(
		app.stores,
		store.NewDBTransactor(db, app.stores),
		pipeline,
		dispatcher,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create topic service: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// Run serves HTTP until ctx is cancelled, then shuts everything down.
func (app *application) Run(ctx context.Context) error {
	router := newRouter(app.topicService, app.jwtService, app.logger)

	err := app.startHTTPServer(ctx, router)
	app.cleanup()
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// setupTaskRunner initializes and starts the background task processor.
// Starting recovers render tasks left pending by a previous process.
func setupTaskRunner(app *application, registry *task.Registry) (*task.TaskRunner, error) {
	taskRunner := task.NewTaskRunner(app.taskStore, registry, task.TaskRunnerConfig{
		QueueSize:    app.config.Render.QueueSize,
		WorkerCount:  app.config.Render.WorkerCount,
		StuckTaskAge: time.Duration(app.config.Render.StuckTaskAgeMinutes) * time.Minute,
	}, app.logger)

	if err := taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	return taskRunner, nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.blobs != nil {
		if err := app.blobs.Close(); err != nil {
			app.logger.Error("error closing storage client", "error", err)
		}
	}

	if app.db != nil {
		closeDB(app.db, app.logger)
	}

	app.logger.Info("application shutdown completed")
}
