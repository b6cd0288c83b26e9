// SketchFilters describe user-provided filters to narrow the sketch list.
package dto

import "time"

type SketchFilters struct {
	Source     string
	DateAfter  time.Time
	DateBefore time.Time
	Limit      int
	Offset     int
}
