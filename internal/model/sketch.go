package model

import "time"

// Sketch sources.
const (
	SourceCamera = "camera"
	SourceUpload = "upload"
)

// Sketch represents a stored sketch record.
type Sketch struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	Source    string    `json:"source"`
	Original  string    `json:"original"` // uploaded file name, empty for camera captures
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Timestamp time.Time `json:"timestamp"`
	FilePath  string    `json:"filepath"`
	FileSize  int64     `json:"filesize"`
}

// SketchStats contains statistics about stored sketches.
type SketchStats struct {
	TotalSketches  int            `json:"total_sketches"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	PerSource      map[string]int `json:"per_source"`
}
