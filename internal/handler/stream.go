package handler

import (
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"github.com/gorilla/websocket"

	"sketchserver/internal/logger"
	"sketchserver/internal/service"
)

// streamBoundary separates JPEG parts of the live feed.
const streamBoundary = "frame"

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// VideoFeedHandler streams live sketches as multipart/x-mixed-replace until the
// client goes away or the server shuts down.
func VideoFeedHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !manager.CameraConfigured() {
			http.Error(w, "Camera not configured", http.StatusServiceUnavailable)
			return
		}

		frames, unsubscribe := manager.GetStream().Subscribe()
		defer unsubscribe()

		mimeWriter := multipart.NewWriter(w)
		if err := mimeWriter.SetBoundary(streamBoundary); err != nil {
			logger.Error("Error setting stream boundary: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+streamBoundary)
		w.Header().Set("Cache-Control", "no-cache")
		flusher, _ := w.(http.Flusher)

		viewer := logger.WithField("remote", r.RemoteAddr)
		viewer.Info("📺 Stream viewer connected")
		defer viewer.Info("📺 Stream viewer disconnected")

		for {
			select {
			case <-r.Context().Done():
				return
			case frame, ok := <-frames:
				if !ok {
					return
				}

				partHeader := make(textproto.MIMEHeader)
				partHeader.Add("Content-Type", "image/jpeg")
				partHeader.Add("Content-Length", strconv.Itoa(len(frame)))

				partWriter, err := mimeWriter.CreatePart(partHeader)
				if err != nil {
					return
				}
				if _, err := partWriter.Write(frame); err != nil {
					return
				}
				if flusher != nil {
					flusher.Flush()
				}
			}
		}
	}
}

// ViewWebsocketHandler registers viewer connections in the HubService so they
// receive live sketches as JSON messages.
func ViewWebsocketHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		manager.GetWebsocketService().RegisterWithMessage(connection, manager.LastViewerMessage())
		defer manager.GetWebsocketService().Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Debug("Viewer disconnected normally")
				} else {
					logger.Warning("Viewer disconnected with error: %v", err)
				}
				return
			}
		}
	}
}
