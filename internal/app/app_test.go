package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchserver/internal/config"
	"sketchserver/internal/dto"
	"sketchserver/internal/sketch"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Port:                0,
		ProcessingInterval:  1,
		ProcessingWorkers:   1,
		JPEGQuality:         90,
		SaveSketches:        true,
		ImageDirectory:      filepath.Join(dir, "sketches"),
		DatabasePath:        filepath.Join(dir, "data", "sketches.db"),
		BufferLimit:         10,
		BufferFlushInterval: 60,
		LogDirectory:        filepath.Join(dir, "logs"),
		Sketch:              sketch.DefaultParams(),
	}
}

func TestNewApp_RejectsInvalidParams(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sketch.KernelSize = 2

	_, err := NewApp(cfg)
	assert.ErrorIs(t, err, sketch.ErrInvalidParams)
}

func TestApp_Handler(t *testing.T) {
	a, err := NewApp(testConfig(t))
	require.NoError(t, err)
	defer a.Close()
	defer a.manager.Stop()

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sketches", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err = os.Stat(a.config.DatabasePath)
	assert.NoError(t, err)
}

func TestApp_RunFlushesOnShutdown(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewApp(cfg)
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	frame := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	a.bufferService.AddSketch(&dto.SketchResult{JPEG: frame, Width: 1, Height: 1, Source: "upload"}, "tiny.jpg")
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	count, err := a.sketchRepo.GetTotalCount(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
