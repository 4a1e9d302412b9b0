package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub maintains the set of connected dashboard clients, keyed by user ID,
// and pushes notifications to individual recipients.
type Hub struct {
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]*Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// A user reconnecting replaces their old connection
			if old, ok := h.clients[client.UserID]; ok {
				close(old.send)
			}
			h.clients[client.UserID] = client
			h.mu.Unlock()
			log.Printf("ws: user connected: %s", client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.UserID]; ok && current == client {
				delete(h.clients, client.UserID)
				close(client.send)
			}
			h.mu.Unlock()
		}
	}
}

// SendToUser pushes a message to a connected user. Returns false when the
// user has no live connection or their buffer is full; delivery is
// best-effort, the server-side notification record is the source of truth.
func (h *Hub) SendToUser(userID string, message interface{}) bool {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return false
	}

	jsonMsg, err := json.Marshal(message)
	if err != nil {
		log.Printf("ws: error marshaling message: %v", err)
		return false
	}

	select {
	case client.send <- jsonMsg:
		return true
	default:
		return false
	}
}
