package route

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchserver/internal/config"
	"sketchserver/internal/logger"
	"sketchserver/internal/repository"
	"sketchserver/internal/repository/sqlite"
	"sketchserver/internal/service"
	"sketchserver/internal/service/camera"
	"sketchserver/internal/service/websocket"
	"sketchserver/internal/sketch"
)

func setup(t *testing.T, password string, withRepo bool) http.Handler {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		Password:          password,
		ProcessingWorkers: 1,
		ImageDirectory:    filepath.Join(dir, "sketches"),
		LogDirectory:      filepath.Join(dir, "logs"),
	}

	l, err := logger.NewLogger(cfg)
	require.NoError(t, err)
	t.Cleanup(l.Close)

	var repo repository.SketchRepository
	if withRepo {
		db, err := sqlite.New(filepath.Join(dir, "test.db"))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		repo = sqlite.NewSketchRepository(db)
	}

	slot := camera.NewFrameSlot()
	stream := camera.NewBroadcaster()
	m := service.NewManager(sketch.Default(), slot, stream, websocket.NewHubService(l), nil, cfg, l)
	t.Cleanup(func() {
		m.Stop()
		stream.Close()
		slot.Close()
	})

	return SetupRoutes(m, cfg, l, repo)
}

func get(h http.Handler, path string) int {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code
}

func TestSetupRoutes_Open(t *testing.T) {
	h := setup(t, "", true)

	assert.Equal(t, http.StatusOK, get(h, "/"))
	assert.Equal(t, http.StatusOK, get(h, "/gallery"))
	assert.Equal(t, http.StatusOK, get(h, "/api/sketches"))
	assert.Equal(t, http.StatusOK, get(h, "/api/sketches/stats"))
	assert.Equal(t, http.StatusOK, get(h, "/logs/info"))
	assert.Equal(t, http.StatusServiceUnavailable, get(h, "/video_feed"))
	assert.Equal(t, http.StatusNotFound, get(h, "/login"))
	assert.Equal(t, http.StatusNotFound, get(h, "/nope"))
}

func TestSetupRoutes_WithoutStorage(t *testing.T) {
	h := setup(t, "", false)

	assert.Equal(t, http.StatusOK, get(h, "/"))
	assert.Equal(t, http.StatusNotFound, get(h, "/gallery"))
	assert.Equal(t, http.StatusNotFound, get(h, "/api/sketches"))
}

func TestSetupRoutes_Protected(t *testing.T) {
	h := setup(t, "secret", true)

	assert.Equal(t, http.StatusOK, get(h, "/login"))
	assert.Equal(t, http.StatusSeeOther, get(h, "/"))
	assert.Equal(t, http.StatusUnauthorized, get(h, "/api/sketches"))
}
