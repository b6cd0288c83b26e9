package dto

// SketchResult is a freshly produced sketch ready to be returned to a client.
type SketchResult struct {
	JPEG   []byte
	Width  int
	Height int
	Source string
}

// SketchResponse is the JSON body of /capture and JSON uploads.
type SketchResponse struct {
	SketchImage string `json:"sketch_image,omitempty"`
	Error       string `json:"error,omitempty"`
}
