package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Message is pushed to every open connection of a user.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Notifier delivers a message to one user's live connections.
type Notifier interface {
	Notify(userID uuid.UUID, msg Message)
}

// Hub tracks websocket clients per user.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu      sync.Mutex
	clients map[uuid.UUID]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Run serves register and unregister requests until ctx is done, then
// closes every remaining client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[c.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[c.userID] = set
			}
			set[c] = struct{}{}
			n := len(set)
			h.mu.Unlock()
			log.Printf("notify: user %s connected (%d connections)", c.userID, n)
		case c := <-h.unregister:
			h.remove(c)
		case <-ctx.Done():
			h.mu.Lock()
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]struct{})
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
}

// Notify queues msg on every connection of userID. Slow clients whose
// buffer is full are dropped.
func (h *Hub) Notify(userID uuid.UUID, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("notify: marshal %s: %v", msg.Type, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[userID]
	for c := range set {
		select {
		case c.send <- payload:
		default:
			delete(set, c)
			close(c.send)
		}
	}
	if set != nil && len(set) == 0 {
		delete(h.clients, userID)
	}
}

// Connections reports how many sockets userID has open.
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(uuid.UUID, Message) {}
