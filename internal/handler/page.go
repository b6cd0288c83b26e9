package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"sketchserver/internal/config"
	"sketchserver/internal/logger"
	"sketchserver/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// pageData feeds index.html.
type pageData struct {
	SketchImage   string
	Error         string
	CameraEnabled   bool
	CameraConnected bool
	AuthEnabled     bool
}

func newPageData(manager *service.Manager, cfg *config.Config) pageData {
	return pageData{
		CameraEnabled:   manager.CameraConfigured(),
		CameraConnected: manager.CameraConnected(),
		AuthEnabled:     cfg.Password != "",
	}
}

// renderPage executes a template into a buffer first so a failing template never
// leaves a half-written page behind.
func renderPage(w http.ResponseWriter, logger *logger.Logger, name string, status int, data interface{}) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Error("Error rendering %s: %v", name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// IndexHandler serves the converter page on "/" and 404 for any other unknown path.
func IndexHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		renderPage(w, logger, "index.html", http.StatusOK, newPageData(manager, cfg))
	}
}

// GalleryPageHandler serves the page browsing stored sketches.
func GalleryPageHandler(logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, logger, "gallery.html", http.StatusOK, nil)
	}
}
