package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Event types pushed to clients.
const (
	EventNotification = "notification"
	EventMessage      = "message"
)

// Event represents a real-time event to be sent to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Publisher delivers an event to every live stream of a user.
type Publisher interface {
	Publish(userID uint, event Event)
}

// Client represents a single open stream of a user (one browser tab).
// The SSE handler listens on it.
type Client chan []byte

// Hub tracks the open streams of every connected user on this instance.
type Hub struct {
	users map[uint]map[Client]bool
	mu    sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		users: make(map[uint]map[Client]bool),
	}
}

// Subscribe registers a client for userID.
func (h *Hub) Subscribe(userID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.users[userID]; !ok {
		h.users[userID] = make(map[Client]bool)
	}
	h.users[userID][client] = true
}

// Unsubscribe removes a client and closes its channel.
func (h *Hub) Unsubscribe(userID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.users[userID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client)
			if len(clients) == 0 {
				delete(h.users, userID)
			}
		}
	}
}

// Publish sends an event to all clients of userID.
func (h *Hub) Publish(userID uint, event Event) {
	messageBytes, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal hub event", "type", event.Type, "error", err)
		return
	}
	h.Deliver(userID, messageBytes)
}

// Deliver sends an already encoded event to all clients of userID.
func (h *Hub) Deliver(userID uint, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.users[userID] {
		// A slow client drops events rather than blocking the sender; it can
		// resynchronise from the list endpoints.
		select {
		case client <- data:
		default:
			slog.Warn("Dropping event for slow client", "userID", userID)
		}
	}
}

// Clients returns the number of open streams for userID.
func (h *Hub) Clients(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}
