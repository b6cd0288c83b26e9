package dto

import (
	"encoding/json"
	"time"
)

// SketchInfo represents metadata about a stored sketch.
type SketchInfo struct {
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	TimeOfDay time.Time `json:"timeOfDay"`
	Source    string    `json:"source"`
	Original  string    `json:"original,omitempty"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Size      int64     `json:"size"`
}

// MarshalJSON customizes JSON output for SketchInfo to format date and time-of-day.
func (p SketchInfo) MarshalJSON() ([]byte, error) {
	type Alias SketchInfo
	return json.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      p.Date.Format("02-01-2006"),
		TimeOfDay: p.TimeOfDay.Format("15:04"),
		Alias:     (Alias)(p),
	})
}
