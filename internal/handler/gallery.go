package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sketchserver/internal/config"
	"sketchserver/internal/dto"
	"sketchserver/internal/logger"
	"sketchserver/internal/repository"
)

const defaultPageSize = 24

// GetSketchesHandler returns a filtered, paginated list of stored sketches.
func GetSketchesHandler(logger *logger.Logger, sketchRepo repository.SketchRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), defaultPageSize)

		filter := &dto.SketchFilters{
			Source:     q.Get("source"),
			DateAfter:  parseDate(q.Get("dateAfter")),
			DateBefore: parseDate(q.Get("dateBefore")),
		}

		totalCount, err := sketchRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting sketches: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		filter.Limit = limit
		filter.Offset = (page - 1) * limit
		sketches, err := sketchRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying sketches from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalSize, err := sketchRepo.GetTotalSize()
		if err != nil {
			logger.Error("Error getting sketch storage size: %v", err)
			totalSize = 0
		}

		infos := make([]dto.SketchInfo, 0, len(sketches))
		for _, s := range sketches {
			infos = append(infos, dto.SketchInfo{
				Name:      s.Filename,
				Date:      s.Timestamp,
				TimeOfDay: s.Timestamp,
				Source:    s.Source,
				Original:  s.Original,
				Width:     s.Width,
				Height:    s.Height,
				Size:      s.FileSize,
			})
		}

		writeJSON(w, logger, http.StatusOK, dto.SketchesData{
			Sketches:    infos,
			Size:        totalSize,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		})
	}
}

// ViewSketchHandler serves a single stored sketch named by the "name" query parameter.
func ViewSketchHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, ok := sketchName(w, r)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		http.ServeFile(w, r, filepath.Join(cfg.ImageDirectory, name))
	}
}

// DeleteSketchHandler removes a sketch from disk and database.
func DeleteSketchHandler(cfg *config.Config, logger *logger.Logger, sketchRepo repository.SketchRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPost, http.MethodDelete) {
			return
		}
		name, ok := sketchName(w, r)
		if !ok {
			return
		}

		filePath := filepath.Join(cfg.ImageDirectory, name)
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			logger.Error("Failed to delete file %s: %v", filePath, err)
		}

		if err := sketchRepo.DeleteByFilename(name); err != nil {
			logger.Error("Failed to delete from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("Deleted sketch: %s", name)
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "deleted", "name": name})
	}
}

// ClearSketchesHandler deletes every stored sketch file and clears the database.
func ClearSketchesHandler(cfg *config.Config, logger *logger.Logger, sketchRepo repository.SketchRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPost, http.MethodDelete) {
			return
		}

		files, err := os.ReadDir(cfg.ImageDirectory)
		if err != nil && !os.IsNotExist(err) {
			logger.Error("Error reading sketch directory: %v", err)
			http.Error(w, "Unable to read sketch directory", http.StatusInternalServerError)
			return
		}

		for _, file := range files {
			if file.IsDir() || !strings.EqualFold(filepath.Ext(file.Name()), ".jpg") {
				continue
			}
			if err := os.Remove(filepath.Join(cfg.ImageDirectory, file.Name())); err != nil {
				logger.Error("Error deleting file %s: %v", file.Name(), err)
			}
		}

		if err := sketchRepo.DeleteAll(); err != nil {
			logger.Error("Error clearing database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("All sketches cleared from directory: %s", cfg.ImageDirectory)
		w.WriteHeader(http.StatusNoContent)
	}
}

// SketchStatsHandler reports how many sketches are stored per source.
func SketchStatsHandler(logger *logger.Logger, sketchRepo repository.SketchRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := sketchRepo.GetStats()
		if err != nil {
			logger.Error("Error getting sketch stats: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, http.StatusOK, stats)
	}
}

// sketchName reads the "name" parameter and rejects anything that is not a plain
// file name inside the sketch directory.
func sketchName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "Name parameter is required", http.StatusBadRequest)
		return "", false
	}
	if name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		http.Error(w, "Invalid name", http.StatusBadRequest)
		return "", false
	}
	return name, true
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date in the HTML input format "2006-01-02"; invalid input yields the zero time.
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}
