package network

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/MRamiBalles/UniverseRPG/server/internal/events"
	"github.com/MRamiBalles/UniverseRPG/server/internal/platform/logger"
	"github.com/MRamiBalles/UniverseRPG/server/internal/platform/metrics"
)

// Hub maintains the set of active clients and routes each player's events to the
// connections logged in as that player.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]bool
	byUser   map[string]map[*Client]bool
	outbound chan events.GameEvent
	logger   *logger.Logger
}

// NewHub initializes a new WebSocket Hub. buffer bounds how many events may wait for
// delivery before new ones are dropped.
func NewHub(log *logger.Logger, buffer int) *Hub {
	if log == nil {
		log = logger.NewDiscard()
	}
	if buffer <= 0 {
		buffer = 256
	}
	return &Hub{
		clients:  make(map[*Client]bool),
		byUser:   make(map[string]map[*Client]bool),
		outbound: make(chan events.GameEvent, buffer),
		logger:   log,
	}
}

// Run starts the Hub's main loop, delivering queued events until ctx is done.
// Every client still connected at that point is closed.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			h.closeAll()
			return
		case event := <-h.outbound:
			h.deliver(event)
		}
	}
}

// Register adds a client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	metrics.Get().RecordWSConnection(1)
	h.logger.Info("New WebSocket client connected")
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		h.drop(c)
		h.logger.Info("WebSocket client disconnected")
	}
}

// Listener returns an event listener that queues events for delivery. It never blocks
// the engine: when the queue is full the event is dropped.
func (h *Hub) Listener() events.Listener {
	return func(event events.GameEvent) {
		select {
		case h.outbound <- event:
		default:
			metrics.Get().RecordWSError()
			h.logger.Warnf("dropped %s event for %s: hub queue full", event.Type, event.ActorID)
		}
	}
}

// Bind routes the events of user to c. An empty user detaches the client.
func (h *Hub) Bind(c *Client, user string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unbind(c)
	c.user = user
	if user == "" {
		return
	}
	set, ok := h.byUser[user]
	if !ok {
		set = make(map[*Client]bool)
		h.byUser[user] = set
	}
	set[c] = true
}

// User returns the player a client is logged in as.
func (h *Hub) User(c *Client) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.user
}

// Connections returns how many clients are logged in as user.
func (h *Hub) Connections(user string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[user])
}

// Send queues a message for one client without blocking. It reports false when the
// client is gone or its buffer is full.
func (h *Hub) Send(c *Client, message []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		metrics.Get().RecordWSMessage(false)
		return true
	default:
		return false
	}
}

func (h *Hub) deliver(event events.GameEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Errorf("Failed to serialize GameEvent for WebSocket delivery: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.byUser[event.ActorID] {
		select {
		case client.send <- payload:
			metrics.Get().RecordWSMessage(false)
		default:
			h.logger.Warnf("client of %s is not draining, disconnecting", event.ActorID)
			metrics.Get().RecordWSError()
			h.drop(client)
		}
	}
}

// drop forgets a client and closes its send channel. Caller holds h.mu.
func (h *Hub) drop(c *Client) {
	if c.closed {
		return
	}
	h.unbind(c)
	delete(h.clients, c)
	c.closed = true
	close(c.send)
	metrics.Get().RecordWSConnection(-1)
}

// unbind removes c from its user's set. Caller holds h.mu.
func (h *Hub) unbind(c *Client) {
	if c.user == "" {
		return
	}
	if set, ok := h.byUser[c.user]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.byUser, c.user)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.drop(c)
	}
}
