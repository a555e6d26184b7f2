package hub

import (
	"log"
	"sync"

	"civic-complaint-system/pkg/middleware"
	"civic-complaint-system/services/complaint-service/models"
)

// Client is one connected SSE subscriber.
type Client struct {
	UserID string
	Role   string
	Send   chan models.ComplaintEvent
}

// Hub fans complaint lifecycle events out to connected clients. Routing is
// role-aware: creation events go to admin dashboards, every later event goes
// to the complaint's reporter and its assigned worker.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
}

func New() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()
	log.Printf("[INFO] Client registered - UserID: %s (Total clients: %d)", c.UserID, total)
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	log.Printf("[INFO] Client unregistered - UserID: %s (Total clients: %d)", c.UserID, total)
}

// ClientCount reports the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast routes one event to every client it concerns. Clients with a
// full send buffer are skipped, never blocked on.
func (h *Hub) Broadcast(event models.ComplaintEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if !wants(client, event) {
			continue
		}
		select {
		case client.Send <- event:
		default:
		}
	}
}

func wants(c *Client, event models.ComplaintEvent) bool {
	if event.Type == models.EventComplaintCreated {
		return c.Role == middleware.RoleAdmin
	}
	if c.UserID == event.ReporterID {
		return true
	}
	return event.AssignedWorkerID != "" && c.UserID == event.AssignedWorkerID
}
