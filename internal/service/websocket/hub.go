package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"binsorter/internal/logger"

	"github.com/gorilla/websocket"
)

// broadcastBuffer bounds how many feed messages may wait for the hub loop.
const broadcastBuffer = 64

// FeedEvent is one classification pushed to feed viewers.
type FeedEvent struct {
	Filename string `json:"filename,omitempty"`
	Source   string `json:"source"`
	Status   string `json:"status"`
	Bin      string `json:"bin,omitempty"`
	Label    string `json:"label,omitempty"`
	Message  string `json:"message"`
	Items    int    `json:"items"`
}

// HubService fans classification events out to connected feed viewers.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{} // closed when Run returns
	mutex      sync.RWMutex
	logger     *logger.Logger
}

// NewHubService creates an idle hub; call Run to start delivering.
func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run delivers registrations and broadcasts until ctx is done, then closes
// every client. It must be called at most once.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Feed client connected. Total: %d", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Feed client disconnected. Total: %d", total)

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

// Register adds a viewer connection. Once the hub has stopped the
// connection is closed instead.
func (h *HubService) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes and closes a viewer connection.
func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.Close()
	}
}

// Publish queues ev for every viewer. It never blocks the caller: when the
// queue is full the event is dropped.
func (h *HubService) Publish(ev FeedEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("Error encoding feed event: %v", err)
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warning("Feed queue full, dropping event for %s", ev.Filename)
	}
}

// GetClientCount returns the number of connected viewers.
func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
