// SketchesData is a paginated response payload for the sketch gallery.
package dto

type SketchesData struct {
	Sketches    []SketchInfo `json:"sketches"`
	Size        int64        `json:"size"`
	Length      int          `json:"length"`
	TotalPages  int          `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
	Limit       int          `json:"pageSize"`
}
