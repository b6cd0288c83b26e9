package handler

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"sketchserver/internal/config"
	"sketchserver/internal/dto"
	"sketchserver/internal/logger"
	"sketchserver/internal/service"
	"sketchserver/internal/sketch"
)

const (
	msgNothingCaptured = "Nothing captured"
	msgNoSelectedFile  = "No selected file"
	msgInvalidImage    = "Invalid image"
	msgFileTooLarge    = "File too large"
)

// CaptureHandler sketches the latest camera frame and returns it base64 encoded.
// Before the first frame arrived the JSON carries an error instead.
func CaptureHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := manager.Capture(r.Context())
		switch {
		case err == nil:
			writeJSON(w, logger, http.StatusOK, dto.SketchResponse{
				SketchImage: base64.StdEncoding.EncodeToString(result.JPEG),
			})
		case errors.Is(err, service.ErrNothingCaptured):
			writeJSON(w, logger, http.StatusOK, dto.SketchResponse{Error: msgNothingCaptured})
		default:
			logger.Error("Error capturing sketch: %v", err)
			writeJSON(w, logger, http.StatusInternalServerError, dto.SketchResponse{Error: "Capture failed"})
		}
	}
}

// UploadHandler sketches the image posted in the "file" form field. The page is
// rendered with the sketch unless the client asked for JSON.
func UploadHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPost) {
			return
		}
		if cfg.MaxUploadSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadSize)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSON(w, logger, http.StatusRequestEntityTooLarge, dto.SketchResponse{Error: msgFileTooLarge})
				return
			}
			writeJSON(w, logger, http.StatusBadRequest, dto.SketchResponse{Error: msgNoSelectedFile})
			return
		}
		defer file.Close()

		if header.Filename == "" {
			writeJSON(w, logger, http.StatusBadRequest, dto.SketchResponse{Error: msgNoSelectedFile})
			return
		}

		data, err := io.ReadAll(file)
		if err != nil {
			logger.Error("Error reading upload %q: %v", header.Filename, err)
			writeJSON(w, logger, http.StatusBadRequest, dto.SketchResponse{Error: msgInvalidImage})
			return
		}

		result, err := manager.SketchUpload(r.Context(), data, header.Filename)
		switch {
		case errors.Is(err, service.ErrEmptyUpload):
			writeJSON(w, logger, http.StatusBadRequest, dto.SketchResponse{Error: msgNoSelectedFile})
			return
		case errors.Is(err, sketch.ErrInvalidImage):
			logger.Warning("Rejected upload %q: %v", header.Filename, err)
			writeJSON(w, logger, http.StatusBadRequest, dto.SketchResponse{Error: msgInvalidImage})
			return
		case err != nil:
			logger.Error("Error sketching upload %q: %v", header.Filename, err)
			writeJSON(w, logger, http.StatusInternalServerError, dto.SketchResponse{Error: "Sketch failed"})
			return
		}

		encoded := base64.StdEncoding.EncodeToString(result.JPEG)
		if wantsJSON(r) {
			writeJSON(w, logger, http.StatusOK, dto.SketchResponse{SketchImage: encoded})
			return
		}

		page := newPageData(manager, cfg)
		page.SketchImage = encoded
		renderPage(w, logger, "index.html", http.StatusOK, page)
	}
}
