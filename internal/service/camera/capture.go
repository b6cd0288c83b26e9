package camera

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"sketchserver/internal/logger"
)

// ErrSourceEnded is reported when a Source stops delivering frames.
var ErrSourceEnded = errors.New("video source stopped delivering frames")

// FrameHandler receives every frame read from the camera. The Mat is only valid
// for the duration of the call.
type FrameHandler func(frame gocv.Mat, seq uint64)

// CaptureService reads frames from a Source, keeps the latest one in a FrameSlot
// and hands each frame to a FrameHandler.
type CaptureService struct {
	open           Opener
	slot           *FrameSlot
	handle         FrameHandler
	reconnectDelay time.Duration
	logger         *logger.Logger

	connected atomic.Bool
	frames    atomic.Uint64
}

// NewCaptureService creates a capture loop. A non-positive reconnectDelay disables reconnects.
func NewCaptureService(open Opener, slot *FrameSlot, handle FrameHandler, reconnectDelay time.Duration, logger *logger.Logger) *CaptureService {
	return &CaptureService{
		open:           open,
		slot:           slot,
		handle:         handle,
		reconnectDelay: reconnectDelay,
		logger:         logger,
	}
}

// Run reads frames until ctx is cancelled. When the source fails it is reopened
// after the reconnect delay.
func (c *CaptureService) Run(ctx context.Context) {
	for {
		err := c.runOnce(ctx)
		if ctx.Err() != nil {
			c.logger.Info("📷 Capture loop stopped after %d frames", c.frames.Load())
			return
		}
		if err != nil {
			c.logger.Error("Camera error: %v", err)
		}
		if c.reconnectDelay <= 0 {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconnectDelay):
			c.logger.Info("📷 Reconnecting camera")
		}
	}
}

func (c *CaptureService) runOnce(ctx context.Context) error {
	src, err := c.open()
	if err != nil {
		return err
	}
	defer src.Close()

	c.connected.Store(true)
	defer c.connected.Store(false)
	c.logger.Info("📷 Camera opened")

	frame := gocv.NewMat()
	defer frame.Close()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if !src.Read(&frame) {
			return ErrSourceEnded
		}
		if frame.Empty() {
			continue
		}

		seq := c.slot.Store(frame)
		c.frames.Add(1)
		if c.handle != nil {
			c.handle(frame, seq)
		}
	}
}

// Connected reports whether a source is currently open.
func (c *CaptureService) Connected() bool {
	return c.connected.Load()
}

// Frames returns the number of frames read since start.
func (c *CaptureService) Frames() uint64 {
	return c.frames.Load()
}
