package camera

import (
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// FrameSlot keeps the most recent camera frame.
// The writer stores a private clone and readers always receive their own clone,
// so a reader never sees a frame that is being overwritten.
type FrameSlot struct {
	mu         sync.Mutex
	frame      gocv.Mat
	hasFrame   bool
	seq        uint64
	capturedAt time.Time
}

// NewFrameSlot returns an empty slot.
func NewFrameSlot() *FrameSlot {
	return &FrameSlot{}
}

// Store replaces the current frame with a clone of mat and returns its sequence number.
// Empty mats are ignored.
func (s *FrameSlot) Store(mat gocv.Mat) uint64 {
	if mat.Empty() {
		return 0
	}
	clone := mat.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasFrame {
		s.frame.Close()
	}
	s.frame = clone
	s.hasFrame = true
	s.seq++
	s.capturedAt = time.Now()
	return s.seq
}

// Snapshot returns a clone of the latest frame, its sequence number and capture time.
// ok is false when nothing has been stored yet. The caller must Close the returned Mat.
func (s *FrameSlot) Snapshot() (mat gocv.Mat, seq uint64, capturedAt time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasFrame {
		return gocv.NewMat(), 0, time.Time{}, false
	}
	return s.frame.Clone(), s.seq, s.capturedAt, true
}

// Seq returns the sequence number of the latest stored frame (0 when empty).
func (s *FrameSlot) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Close releases the stored frame. The slot is empty afterwards.
func (s *FrameSlot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasFrame {
		s.frame.Close()
		s.frame = gocv.Mat{}
		s.hasFrame = false
	}
}
