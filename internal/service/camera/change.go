package camera

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// pixelDelta is the per-pixel grey difference counted as a change.
const pixelDelta = 30

// ChangeDetector tells whether a frame differs enough from the last accepted one
// to be worth sketching again.
type ChangeDetector struct {
	threshold   int
	previous    gocv.Mat
	hasPrevious bool
	mu          sync.Mutex
}

// NewChangeDetector creates a detector; threshold is the number of changed pixels
// needed to accept a frame. A threshold <= 0 accepts every frame.
func NewChangeDetector(threshold int) *ChangeDetector {
	return &ChangeDetector{threshold: threshold}
}

// Changed compares frame with the last accepted frame. Accepted frames become the new reference.
func (d *ChangeDetector) Changed(frame gocv.Mat) (bool, error) {
	if d.threshold <= 0 {
		return true, nil
	}
	if frame.Empty() {
		return false, fmt.Errorf("frame is empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.hasPrevious || d.previous.Rows() != frame.Rows() || d.previous.Cols() != frame.Cols() || d.previous.Type() != frame.Type() {
		d.accept(frame)
		return true, nil
	}

	diff := gocv.NewMat()
	defer diff.Close()
	if err := gocv.AbsDiff(d.previous, frame, &diff); err != nil {
		return false, fmt.Errorf("failed to compute absolute difference: %w", err)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(diff, &gray, gocv.ColorBGRToGray); err != nil {
		return false, fmt.Errorf("failed to convert difference to grayscale: %w", err)
	}

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(gray, &thresh, pixelDelta, 255, gocv.ThresholdBinary)

	if gocv.CountNonZero(thresh) <= d.threshold {
		return false, nil
	}

	d.accept(frame)
	return true, nil
}

func (d *ChangeDetector) accept(frame gocv.Mat) {
	if d.hasPrevious {
		d.previous.Close()
	}
	d.previous = frame.Clone()
	d.hasPrevious = true
}

// Close releases the reference frame.
func (d *ChangeDetector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.hasPrevious {
		d.previous.Close()
		d.hasPrevious = false
	}
}
