package dto

import "time"

// BufferedSketch holds a sketch before it is flushed to disk.
type BufferedSketch struct {
	Timestamp time.Time
	Source    string
	Original  string
	Width     int
	Height    int
	Data      []byte
}
