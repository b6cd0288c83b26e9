package route

import (
	"net/http"

	"sketchserver/internal/config"
	"sketchserver/internal/handler"
	"sketchserver/internal/logger"
	"sketchserver/internal/middleware"
	"sketchserver/internal/repository"
	"sketchserver/internal/service"
)

var logRoutes = []struct{ path, file string }{
	{"/logs/info", logger.InfoFile},
	{"/logs/warning", logger.WarningFile},
	{"/logs/error", logger.ErrorFile},
}

// SetupRoutes registers the page, sketch, gallery, log and auth endpoints and wraps
// the mux with the authentication middleware. Gallery endpoints are only
// registered when sketchRepo is not nil.
func SetupRoutes(manager *service.Manager, cfg *config.Config, logger *logger.Logger,
	sketchRepo repository.SketchRepository) http.Handler {
	mux := http.NewServeMux()

	// Converter
	mux.HandleFunc("/", handler.IndexHandler(manager, cfg, logger))
	mux.HandleFunc("/video_feed", handler.VideoFeedHandler(manager, logger))
	mux.HandleFunc("/capture", handler.CaptureHandler(manager, logger))
	mux.HandleFunc("/upload", handler.UploadHandler(manager, cfg, logger))
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(manager, logger))

	// Gallery
	if sketchRepo != nil {
		mux.HandleFunc("/gallery", handler.GalleryPageHandler(logger))
		mux.HandleFunc("/api/sketches", handler.GetSketchesHandler(logger, sketchRepo))
		mux.HandleFunc("/api/sketches/view", handler.ViewSketchHandler(cfg))
		mux.HandleFunc("/api/sketches/delete", handler.DeleteSketchHandler(cfg, logger, sketchRepo))
		mux.HandleFunc("/api/sketches/clear", handler.ClearSketchesHandler(cfg, logger, sketchRepo))
		mux.HandleFunc("/api/sketches/stats", handler.SketchStatsHandler(logger, sketchRepo))
	}

	// Log endpoints
	for _, l := range logRoutes {
		mux.HandleFunc(l.path, handler.ShowLogsHandler(logger, l.file))
		mux.HandleFunc(l.path+"/clear", handler.ClearLogsHandler(logger, l.file))
	}

	// Auth endpoints
	if cfg.Password != "" {
		mux.HandleFunc("/login", handler.LoginPageHandler(logger))
		mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, logger))
		mux.HandleFunc("/auth/logout", handler.LogoutHandler)
	}

	return middleware.AuthMiddleware(cfg.Password, mux)
}
