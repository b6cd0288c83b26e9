package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sketchserver/internal/config"
	"sketchserver/internal/dto"
	"sketchserver/internal/logger"
	"sketchserver/internal/model"
	"sketchserver/internal/repository"
)

// BufferService buffers sketches in memory and periodically flushes them to disk.
type BufferService struct {
	imagesDir     string
	bufferLimit   int
	flushInterval time.Duration
	sketches      []dto.BufferedSketch
	bufferCount   map[string]int
	mu            sync.Mutex
	logger        *logger.Logger
	sketchRepo    repository.SketchRepository
}

// NewBufferService creates a BufferService. sketchRepo may be nil, in which case
// sketches are only written to disk.
func NewBufferService(config *config.Config, logger *logger.Logger, sketchRepo repository.SketchRepository) *BufferService {
	return &BufferService{
		imagesDir:     config.ImageDirectory,
		bufferLimit:   config.BufferLimit,
		flushInterval: time.Duration(config.BufferFlushInterval) * time.Second,
		sketches:      make([]dto.BufferedSketch, 0),
		bufferCount:   make(map[string]int),
		logger:        logger,
		sketchRepo:    sketchRepo,
	}
}

// Run flushes on every tick and once more when ctx is cancelled.
func (s *BufferService) Run(ctx context.Context) {
	interval := s.flushInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.FlushSketches()
			return
		case <-ticker.C:
			s.FlushSketches()
		}
	}
}

// AddSketch appends a sketch to the in-memory buffer. It reports false when the
// buffer for the sketch's source is full and the sketch was dropped.
func (s *BufferService) AddSketch(result *dto.SketchResult, original string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bufferLimit > 0 && s.bufferCount[result.Source] >= s.bufferLimit {
		s.logger.Warning("Sketch buffer full for source %s, dropping sketch", result.Source)
		return false
	}

	s.sketches = append(s.sketches, dto.BufferedSketch{
		Timestamp: time.Now(),
		Source:    result.Source,
		Original:  original,
		Width:     result.Width,
		Height:    result.Height,
		Data:      result.JPEG,
	})
	s.bufferCount[result.Source]++
	s.logger.Debug("Buffer size for source %s: %d/%d", result.Source, s.bufferCount[result.Source], s.bufferLimit)
	return true
}

// Pending returns the number of buffered sketches.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sketches)
}

// FlushSketches writes buffered sketches to disk, records them in the repository
// and resets the buffer and per-source counters. It returns the number saved.
func (s *BufferService) FlushSketches() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sketches) == 0 {
		return 0
	}

	if err := os.MkdirAll(s.imagesDir, 0755); err != nil {
		s.logger.Error("Error creating directory: %v", err)
		return 0
	}

	savedCount := 0
	for _, sk := range s.sketches {
		filename := SketchFilename(sk.Timestamp, sk.Source)
		fullpath := filepath.Join(s.imagesDir, filename)

		if err := os.WriteFile(fullpath, sk.Data, 0644); err != nil {
			s.logger.Error("Error saving sketch %s: %v", filename, err)
			continue
		}

		if s.sketchRepo != nil {
			record := &model.Sketch{
				Filename:  filename,
				Source:    sk.Source,
				Original:  sk.Original,
				Width:     sk.Width,
				Height:    sk.Height,
				Timestamp: sk.Timestamp,
				FilePath:  fullpath,
				FileSize:  int64(len(sk.Data)),
			}
			if _, err := s.sketchRepo.Insert(record); err != nil {
				s.logger.Error("Error saving sketch to database %s: %v", filename, err)
				continue
			}
		}

		savedCount++
	}

	s.logger.Info("Flushed %d sketches to disk", savedCount)
	s.sketches = s.sketches[:0]
	s.bufferCount = make(map[string]int)
	return savedCount
}
