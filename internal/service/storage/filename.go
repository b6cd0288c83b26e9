package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"sketchserver/internal/model"
)

const timestampLayout = "2006-01-02_15-04-05.000"

// SketchFilename builds the stored name "<timestamp>_<source>_<id>.jpg".
func SketchFilename(ts time.Time, source string) string {
	return fmt.Sprintf("%s_%s_%s.jpg", ts.Format(timestampLayout), source, uuid.NewString()[:8])
}

// ParseSketchFilename extracts the capture time and source from a name produced
// by SketchFilename.
func ParseSketchFilename(name string) (time.Time, string, error) {
	if !strings.EqualFold(filepath.Ext(name), ".jpg") {
		return time.Time{}, "", fmt.Errorf("not a jpg file: %s", name)
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))

	// timestamp itself contains one underscore
	parts := strings.Split(base, "_")
	if len(parts) != 4 {
		return time.Time{}, "", fmt.Errorf("unexpected filename format: %s", name)
	}

	ts, err := time.ParseInLocation(timestampLayout, parts[0]+"_"+parts[1], time.Local)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid timestamp in %s: %w", name, err)
	}

	source := parts[2]
	if source != model.SourceCamera && source != model.SourceUpload {
		return time.Time{}, "", fmt.Errorf("unknown source %q in %s", source, name)
	}
	return ts, source, nil
}
