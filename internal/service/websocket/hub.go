package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"sketchserver/internal/logger"
)

// HubService keeps track of live viewers and pushes sketch frames to them.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan registration
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 1),
		register:   make(chan registration),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves register, unregister and broadcast requests until ctx is done.
func (h *HubService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case reg := <-h.register:
			h.mutex.Lock()
			h.clients[reg.client] = true
			if reg.initial != nil {
				if err := reg.client.WriteMessage(websocket.TextMessage, reg.initial); err != nil {
					h.logger.Error("Error sending message: %v", err)
					delete(h.clients, reg.client)
					reg.client.Close()
				}
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", count)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", count)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Error("Error sending message: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *HubService) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}

// registration is a viewer joining, with an optional first message.
type registration struct {
	client  *websocket.Conn
	initial []byte
}

// Register adds a viewer. After the hub stopped the connection is closed instead.
func (h *HubService) Register(client *websocket.Conn) {
	h.RegisterWithMessage(client, nil)
}

// RegisterWithMessage adds a viewer and sends it initial before any broadcast.
func (h *HubService) RegisterWithMessage(client *websocket.Conn, initial []byte) {
	select {
	case h.register <- registration{client: client, initial: initial}:
	case <-h.done:
		client.Close()
	}
}

func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues message for all viewers. If the previous message has not been
// sent yet it is replaced.
func (h *HubService) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
		return
	default:
	}

	select {
	case <-h.broadcast:
	default:
	}
	select {
	case h.broadcast <- message:
	default:
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
