package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchserver/internal/config"
	"sketchserver/internal/dto"
	"sketchserver/internal/logger"
	"sketchserver/internal/model"
	"sketchserver/internal/repository/sqlite"
)

func setup(t *testing.T, limit int) (*BufferService, *sqlite.SketchRepository, string) {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		ImageDirectory:      filepath.Join(dir, "sketches"),
		LogDirectory:        filepath.Join(dir, "logs"),
		BufferLimit:         limit,
		BufferFlushInterval: 1,
	}

	l, err := logger.NewLogger(cfg)
	require.NoError(t, err)
	t.Cleanup(l.Close)

	db, err := sqlite.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := sqlite.NewSketchRepository(db)
	return NewBufferService(cfg, l, repo), repo, cfg.ImageDirectory
}

func result(source string) *dto.SketchResult {
	return &dto.SketchResult{JPEG: []byte("jpeg bytes"), Width: 4, Height: 3, Source: source}
}

func TestBufferService_FlushWritesFilesAndRows(t *testing.T) {
	buf, repo, dir := setup(t, 10)

	assert.True(t, buf.AddSketch(result(model.SourceUpload), "photo.png"))
	assert.True(t, buf.AddSketch(result(model.SourceCamera), ""))
	assert.Equal(t, 2, buf.Pending())

	assert.Equal(t, 2, buf.FlushSketches())
	assert.Zero(t, buf.Pending())

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	uploads, err := repo.GetAll(&dto.SketchFilters{Source: model.SourceUpload})
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, "photo.png", uploads[0].Original)
	assert.Equal(t, 4, uploads[0].Width)
	assert.Equal(t, int64(len("jpeg bytes")), uploads[0].FileSize)

	data, err := os.ReadFile(uploads[0].FilePath)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
}

func TestBufferService_LimitPerSource(t *testing.T) {
	buf, _, _ := setup(t, 2)

	assert.True(t, buf.AddSketch(result(model.SourceCamera), ""))
	assert.True(t, buf.AddSketch(result(model.SourceCamera), ""))
	assert.False(t, buf.AddSketch(result(model.SourceCamera), ""))
	assert.True(t, buf.AddSketch(result(model.SourceUpload), "a.jpg"))

	buf.FlushSketches()
	assert.True(t, buf.AddSketch(result(model.SourceCamera), ""), "counters reset after flush")
}

func TestBufferService_FlushEmpty(t *testing.T) {
	buf, _, dir := setup(t, 1)

	assert.Zero(t, buf.FlushSketches())
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestBufferService_RunFlushesOnCancel(t *testing.T) {
	buf, repo, _ := setup(t, 5)
	buf.flushInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		buf.Run(ctx)
		close(done)
	}()

	buf.AddSketch(result(model.SourceCamera), "")
	cancel()
	<-done

	count, err := repo.GetTotalCount(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
