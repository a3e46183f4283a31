package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"binsorter/internal/config"
	"binsorter/internal/logger"
	"binsorter/internal/repository/sqlite"
	"binsorter/internal/route"
	"binsorter/internal/service"
	"binsorter/internal/service/ai"
	"binsorter/internal/service/ai/opencv"
	"binsorter/internal/service/ai/remote"
	"binsorter/internal/service/storage"
	"binsorter/internal/service/websocket"
)

type App struct {
	config             *config.Config
	logger             *logger.Logger
	db                 *sqlite.DB
	model              *ai.Shared
	bufferService      *storage.BufferService
	hubService         *websocket.HubService
	classifier         *service.Classifier
	classificationRepo *sqlite.ClassificationRepository
	detectionRepo      *sqlite.DetectionRepository
}

// NewApp wires configuration, storage, the detector and the HTTP services.
func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("open history database: %w", err)
	}
	classificationRepo := sqlite.NewClassificationRepository(db)
	detectionRepo := sqlite.NewDetectionRepository(db)

	model := ai.NewShared(DetectorLoader(cfg, log))
	buffer := storage.NewBufferService(cfg, log, classificationRepo, detectionRepo)
	hub := websocket.NewHubService(log)
	classifier := service.NewClassifier(model, ai.ParamsFromConfig(cfg), cfg.MaxUploadSize, buffer, hub, log)

	return &App{
		config:             cfg,
		logger:             log,
		db:                 db,
		model:              model,
		bufferService:      buffer,
		hubService:         hub,
		classifier:         classifier,
		classificationRepo: classificationRepo,
		detectionRepo:      detectionRepo,
	}, nil
}

// DetectorLoader returns the loader for the configured backend.
func DetectorLoader(cfg *config.Config, log *logger.Logger) ai.Loader {
	return func() (ai.Detector, error) {
		switch cfg.DetectorBackend {
		case config.BackendOpenCV:
			return opencv.NewDetectorService(cfg, log)
		case config.BackendRemote:
			adapter := remote.NewModelAdapter(cfg.InferenceURL, ai.ParamsFromConfig(cfg), &http.Client{Timeout: cfg.InferenceTimeout})
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := adapter.CheckHealth(ctx); err != nil {
				// the service may come up later; requests will fail until then
				log.Warning("Inference service not reachable yet: %v", err)
			}
			return adapter, nil
		default:
			return nil, fmt.Errorf("unknown detector backend %q", cfg.DetectorBackend)
		}
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down and flushes the history.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	if err := a.model.Load(); err != nil {
		a.logger.Error("%v; classification requests will answer 503", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	background := make(chan struct{}, 2)
	go func() { a.bufferService.Run(ctx); background <- struct{}{} }()
	go func() { a.hubService.Run(ctx); background <- struct{}{} }()

	router := route.SetupRoutes(a.classifier, a.model, a.hubService, a.config, a.logger,
		a.classificationRepo, a.detectionRepo)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.Info("Bin sorter listening on http://localhost:%d", a.config.Port)
	a.logger.Info("Detector backend: %s", a.config.DetectorBackend)
	a.logger.Info("Images: %s, history: %s", a.config.ImageDirectory, a.config.DatabasePath)
	if a.config.AdminPassword == "" {
		a.logger.Warning("ADMIN_PASSWORD is empty, admin endpoints are locked")
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.ListenAndServe() }()

	var err error
	select {
	case err = <-serveErr:
	case <-ctx.Done():
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		err = server.Shutdown(shutdownCtx)
	}

	cancel()
	<-background
	<-background

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) close() {
	if err := a.model.Close(); err != nil {
		a.logger.Error("Error closing detector: %v", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database: %v", err)
	}
	a.logger.Info("Shutdown complete")
	a.logger.Close()
}
