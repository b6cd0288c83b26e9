package sketch

import "errors"

// ErrInvalidImage matches every *InvalidImageError via errors.Is.
var ErrInvalidImage = errors.New("invalid image")

// InvalidImageError describes why an input raster was rejected.
type InvalidImageError struct {
	Reason string
}

func (e *InvalidImageError) Error() string {
	return "invalid image: " + e.Reason
}

// Is lets errors.Is(err, ErrInvalidImage) succeed.
func (e *InvalidImageError) Is(target error) bool {
	return target == ErrInvalidImage
}

func invalidImage(reason string) error {
	return &InvalidImageError{Reason: reason}
}
