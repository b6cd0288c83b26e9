package camera

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Source produces raw BGR frames. *gocv.VideoCapture satisfies it.
type Source interface {
	Read(m *gocv.Mat) bool
	Close() error
}

// Opener opens a fresh Source; CaptureService calls it again after a failure.
type Opener func() (Source, error)

// DeviceOpener opens a camera by index ("0") or by path/URL and requests the given resolution.
func DeviceOpener(device string, width, height int) Opener {
	return func() (Source, error) {
		vc, err := gocv.OpenVideoCapture(device)
		if err != nil {
			return nil, fmt.Errorf("failed to open video device %s: %w", device, err)
		}
		if !vc.IsOpened() {
			vc.Close()
			return nil, fmt.Errorf("video device %s is not available", device)
		}

		if width > 0 && height > 0 {
			vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
			vc.Set(gocv.VideoCaptureFrameHeight, float64(height))
		}
		return vc, nil
	}
}
