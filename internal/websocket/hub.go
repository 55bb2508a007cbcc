package websocket

import (
	"context"
	"sync"

	"estateline/internal/events"
)

// Hub tracks connected sessions. Delivery is strictly per user: every
// client is subscribed to its own user channel on registration, mirroring
// the one-record-per-recipient fan-out in storage. A user may hold several
// sessions (tabs, devices); each gets its own client.
type Hub struct {
	mu sync.RWMutex

	clients  map[string]*Client
	channels map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		channels:   make(map[string]map[*Client]struct{}),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
	}
}

// Run drives the hub's event loop until the context ends.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast delivers a payload to every session subscribed to a channel.
func (h *Hub) Broadcast(channel string, payload []byte) {
	h.mu.RLock()
	for c := range h.channels[channel] {
		c.SendMessage(payload)
	}
	h.mu.RUnlock()
}

// BroadcastToUser delivers to all of one user's sessions.
func (h *Hub) BroadcastToUser(userID string, payload []byte) {
	h.Broadcast(events.UserChannel(userID), payload)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// UserSessionCount reports how many live sessions a user holds.
func (h *Hub) UserSessionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[events.UserChannel(userID)])
}

func (h *Hub) addClient(client *Client) {
	channel := events.UserChannel(client.UserID)

	h.mu.Lock()
	h.clients[client.ID] = client
	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[*Client]struct{})
	}
	h.channels[channel][client] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) removeClient(client *Client) {
	channel := events.UserChannel(client.UserID)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	if subscribers, ok := h.channels[channel]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.channels, channel)
		}
	}

	delete(h.clients, client.ID)
	close(client.Send)
}
