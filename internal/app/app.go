package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"sketchserver/internal/config"
	"sketchserver/internal/logger"
	"sketchserver/internal/repository"
	"sketchserver/internal/repository/sqlite"
	"sketchserver/internal/route"
	"sketchserver/internal/service"
	"sketchserver/internal/service/camera"
	"sketchserver/internal/service/storage"
	"sketchserver/internal/service/websocket"
	"sketchserver/internal/sketch"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config        *config.Config
	logger        *logger.Logger
	db            *sqlite.DB
	sketchRepo    repository.SketchRepository
	bufferService *storage.BufferService
	hubService    *websocket.HubService
	slot          *camera.FrameSlot
	stream        *camera.Broadcaster
	capture       *camera.CaptureService
	manager       *service.Manager
}

// NewApp wires every service from cfg. Nothing runs until Run is called.
func NewApp(cfg *config.Config) (*App, error) {
	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	pipeline, err := sketch.New(cfg.Sketch)
	if err != nil {
		log.Close()
		return nil, err
	}

	a := &App{
		config:     cfg,
		logger:     log,
		hubService: websocket.NewHubService(log),
		slot:       camera.NewFrameSlot(),
		stream:     camera.NewBroadcaster(),
	}

	if cfg.SaveSketches {
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			log.Close()
			return nil, err
		}
		repo := sqlite.NewSketchRepository(db)
		a.db = db
		a.sketchRepo = repo
		a.bufferService = storage.NewBufferService(cfg, log, repo)
	}

	a.manager = service.NewManager(pipeline, a.slot, a.stream, a.hubService, a.bufferService, cfg, log)

	if cfg.CameraDevice != "" {
		opener := camera.DeviceOpener(cfg.CameraDevice, cfg.CameraWidth, cfg.CameraHeight)
		delay := time.Duration(cfg.ReconnectDelay) * time.Second
		a.capture = camera.NewCaptureService(opener, a.slot, a.manager.HandleFrame, delay, log)
		a.manager.AttachCapture(a.capture)
	}

	return a, nil
}

// Handler returns the HTTP handler with all routes registered.
func (a *App) Handler() http.Handler {
	return route.SetupRoutes(a.manager, a.config, a.logger, a.sketchRepo)
}

// Run starts the background services and the HTTP server and blocks until ctx is
// cancelled or the server fails. Buffered sketches are flushed before it returns.
func (a *App) Run(ctx context.Context) error {
	bgCtx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	start := func(run func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run(bgCtx)
		}()
	}

	start(a.hubService.Run)
	if a.bufferService != nil {
		start(a.bufferService.Run)
	}
	if a.capture != nil {
		start(a.capture.Run)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.Info("🚀 Sketch Server")
	a.logger.Info("📍 URL: http://localhost:%d", a.config.Port)
	a.logger.Info("📷 Camera: %s", describe(a.config.CameraDevice, "disabled"))
	if a.config.Password != "" {
		a.logger.Info("🔑 Password authentication enabled")
	}
	if a.bufferService != nil {
		a.logger.Info("📁 Sketches: %s (db %s)", a.config.ImageDirectory, a.config.DatabasePath)
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("🛑 Shutting down...")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	// live streams hold their requests open, end them before draining the server
	a.stream.Close()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP shutdown: %v", err)
	}

	cancel()
	wg.Wait()
	a.manager.Stop()

	return runErr
}

// Close releases the frame slot, database and log files.
func (a *App) Close() {
	a.slot.Close()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Error closing database: %v", err)
		}
	}
	a.logger.Close()
}

func describe(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
