package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"

	"gocv.io/x/gocv"

	"sketchserver/internal/config"
	"sketchserver/internal/dto"
	"sketchserver/internal/logger"
	"sketchserver/internal/model"
	"sketchserver/internal/service/camera"
	"sketchserver/internal/service/storage"
	"sketchserver/internal/service/websocket"
	"sketchserver/internal/sketch"
)

var (
	// ErrNothingCaptured is returned by Capture before the camera delivered a frame.
	ErrNothingCaptured = errors.New("nothing captured")
	// ErrEmptyUpload is returned for uploads without content.
	ErrEmptyUpload = errors.New("no selected file")
	// ErrStopped is returned once the manager has been stopped.
	ErrStopped = errors.New("manager stopped")
)

// queueSize bounds pending pipeline jobs.
const queueSize = 32

type taskResult struct {
	result *dto.SketchResult
	err    error
}

// task is one pipeline job. The worker owns frame once the task is queued.
// Tasks without a reply channel come from the live feed and are published.
type task struct {
	ctx    context.Context
	frame  gocv.Mat
	data   []byte
	source string
	seq    uint64
	reply  chan taskResult
}

func (t *task) release() {
	if t.data == nil {
		t.frame.Close()
	}
}

type viewMessage struct {
	Source string `json:"source"`
	Image  string `json:"image"`
}

// Manager routes frames and uploads through the sketch pipeline.
type Manager struct {
	pipeline *sketch.Pipeline
	quality  int
	slot     *camera.FrameSlot
	stream   *camera.Broadcaster
	changes  *camera.ChangeDetector
	hub      *websocket.HubService
	buffer   *storage.BufferService
	capture  *camera.CaptureService
	logger   *logger.Logger

	processingQueue chan task
	frameCounter    int
	processEveryNth int
	numWorkers      int
	lastPublished   uint64

	frameCounterMu sync.Mutex
	publishMu      sync.Mutex
	quit           chan struct{}
	stopOnce       sync.Once
	wg             sync.WaitGroup
}

// NewManager starts config.ProcessingWorkers pipeline workers. buffer may be nil
// when sketches are not persisted.
func NewManager(pipeline *sketch.Pipeline, slot *camera.FrameSlot, stream *camera.Broadcaster, hub *websocket.HubService,
	buffer *storage.BufferService, config *config.Config, logger *logger.Logger) *Manager {
	nth := config.ProcessingInterval
	if nth <= 0 {
		nth = 1
	}
	workers := config.ProcessingWorkers
	if workers <= 0 {
		workers = 1
	}

	m := &Manager{
		pipeline:        pipeline,
		quality:         config.JPEGQuality,
		slot:            slot,
		stream:          stream,
		changes:         camera.NewChangeDetector(config.ChangeThreshold),
		hub:             hub,
		buffer:          buffer,
		logger:          logger,
		processingQueue: make(chan task, queueSize),
		processEveryNth: nth,
		numWorkers:      workers,
		quit:            make(chan struct{}),
	}

	for i := 0; i < m.numWorkers; i++ {
		m.wg.Add(1)
		go m.processingWorker(i)
	}

	m.logger.Info("🎬 Manager started - %d workers, sketching every %d frame(s)", m.numWorkers, m.processEveryNth)
	return m
}

// AttachCapture records the capture loop feeding HandleFrame.
func (m *Manager) AttachCapture(c *camera.CaptureService) {
	m.capture = c
}

// CameraConfigured reports whether a live camera feed exists.
func (m *Manager) CameraConfigured() bool {
	return m.capture != nil
}

// CameraConnected reports whether the camera is currently open.
func (m *Manager) CameraConnected() bool {
	return m.capture != nil && m.capture.Connected()
}

func (m *Manager) GetStream() *camera.Broadcaster {
	return m.stream
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.hub
}

// HandleFrame is the capture loop's FrameHandler. Frames are only sketched while
// somebody watches the live feed.
func (m *Manager) HandleFrame(frame gocv.Mat, seq uint64) {
	if m.stream.Subscribers() == 0 && m.hub.GetClientCount() == 0 {
		return
	}

	m.frameCounterMu.Lock()
	m.frameCounter++
	frameCount := m.frameCounter
	m.frameCounterMu.Unlock()

	if frameCount%m.processEveryNth != 0 {
		return
	}

	changed, err := m.changes.Changed(frame)
	if err != nil {
		m.logger.Error("Error detecting frame change: %v", err)
		return
	}
	if !changed {
		return
	}

	t := task{ctx: context.Background(), frame: frame.Clone(), source: model.SourceCamera, seq: seq}
	select {
	case m.processingQueue <- t:
	case <-m.quit:
		t.release()
	default:
		t.release()
		m.logger.Debug("Processing queue full - skipping live frame %d", seq)
	}
}

// Capture sketches the most recent camera frame and buffers it for storage.
func (m *Manager) Capture(ctx context.Context) (*dto.SketchResult, error) {
	frame, seq, _, ok := m.slot.Snapshot()
	if !ok {
		frame.Close()
		return nil, ErrNothingCaptured
	}

	result, err := m.submit(ctx, task{frame: frame, source: model.SourceCamera, seq: seq})
	if err != nil {
		return nil, err
	}
	m.store(result, "")
	m.logger.Info("📸 Captured sketch of frame %d (%dx%d)", seq, result.Width, result.Height)
	return result, nil
}

// SketchUpload sketches an uploaded image and buffers it for storage.
func (m *Manager) SketchUpload(ctx context.Context, data []byte, filename string) (*dto.SketchResult, error) {
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}

	result, err := m.submit(ctx, task{data: data, source: model.SourceUpload})
	if err != nil {
		return nil, err
	}
	m.store(result, filename)
	m.logger.Info("🖼️  Sketched upload %q (%dx%d)", filename, result.Width, result.Height)
	return result, nil
}

func (m *Manager) store(result *dto.SketchResult, original string) {
	if m.buffer != nil {
		m.buffer.AddSketch(result, original)
	}
}

// submit queues t and waits for its result.
func (m *Manager) submit(ctx context.Context, t task) (*dto.SketchResult, error) {
	t.ctx = ctx
	t.reply = make(chan taskResult, 1)

	select {
	case m.processingQueue <- t:
	case <-ctx.Done():
		t.release()
		return nil, ctx.Err()
	case <-m.quit:
		t.release()
		return nil, ErrStopped
	}

	select {
	case r := <-t.reply:
		return r.result, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.quit:
		return nil, ErrStopped
	}
}

// processingWorker runs pipeline jobs until Stop.
func (m *Manager) processingWorker(workerID int) {
	defer m.wg.Done()

	m.logger.Debug("🔧 Processing worker %d started", workerID)

	for {
		select {
		case <-m.quit:
			m.logger.Debug("🔧 Processing worker %d stopped", workerID)
			return
		case t := <-m.processingQueue:
			result, err := m.process(t)
			if t.reply != nil {
				t.reply <- taskResult{result: result, err: err}
				continue
			}
			if err != nil {
				m.logger.Error("Error sketching live frame %d: %v", t.seq, err)
				continue
			}
			m.publish(result, t.seq)
		}
	}
}

func (m *Manager) process(t task) (*dto.SketchResult, error) {
	defer t.release()

	if t.ctx != nil && t.ctx.Err() != nil {
		return nil, t.ctx.Err()
	}

	if t.data != nil {
		jpeg, size, err := m.pipeline.SketchBytes(t.data, m.quality)
		if err != nil {
			return nil, err
		}
		return &dto.SketchResult{JPEG: jpeg, Width: size.X, Height: size.Y, Source: t.source}, nil
	}

	out, err := m.pipeline.Sketch(t.frame)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	jpeg, err := sketch.EncodeJPEG(out, m.quality)
	if err != nil {
		return nil, err
	}
	return &dto.SketchResult{JPEG: jpeg, Width: out.Cols(), Height: out.Rows(), Source: t.source}, nil
}

// publish sends a live sketch to stream and websocket viewers, skipping frames
// older than the last one published. The check and both hand-offs happen under
// publishMu so two workers can never publish out of order.
func (m *Manager) publish(result *dto.SketchResult, seq uint64) {
	var msg []byte
	if m.hub.GetClientCount() > 0 {
		var err error
		if msg, err = viewerMessage(result.Source, result.JPEG); err != nil {
			m.logger.Error("Error encoding viewer message: %v", err)
		}
	}

	m.publishMu.Lock()
	defer m.publishMu.Unlock()

	if seq <= m.lastPublished {
		return
	}
	m.lastPublished = seq

	m.stream.Publish(result.JPEG)
	if msg != nil {
		m.hub.Broadcast(msg)
	}
}

// LastViewerMessage returns the newest live sketch encoded for websocket viewers,
// or nil before anything was published.
func (m *Manager) LastViewerMessage() []byte {
	last := m.stream.Last()
	if last == nil {
		return nil
	}
	msg, err := viewerMessage(model.SourceCamera, last)
	if err != nil {
		m.logger.Error("Error encoding viewer message: %v", err)
		return nil
	}
	return msg
}

func viewerMessage(source string, jpeg []byte) ([]byte, error) {
	return json.Marshal(viewMessage{
		Source: source,
		Image:  base64.StdEncoding.EncodeToString(jpeg),
	})
}

// Stop stops all workers and releases queued frames.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.quit)
		m.wg.Wait()

		for {
			select {
			case t := <-m.processingQueue:
				t.release()
			default:
				m.changes.Close()
				m.logger.Info("🛑 All processing workers stopped")
				return
			}
		}
	})
}
