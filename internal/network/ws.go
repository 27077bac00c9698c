package network

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/UniverseRPG/server/internal/config"
	"github.com/MRamiBalles/UniverseRPG/server/internal/session"
)

// WSHandler upgrades HTTP requests to game connections.
type WSHandler struct {
	ctx          context.Context
	hub          *Hub
	sessions     *session.Manager
	sendBuffer   int
	maxPerSecond int
	upgrader     websocket.Upgrader
}

// NewWSHandler creates the /ws handler. ctx outlives every connection it serves.
func NewWSHandler(ctx context.Context, hub *Hub, sessions *session.Manager, cfg config.Server) *WSHandler {
	return &WSHandler{
		ctx:          ctx,
		hub:          hub,
		sessions:     sessions,
		sendBuffer:   cfg.ClientSendBuffer,
		maxPerSecond: cfg.MaxMessagesPerSecond,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // the web client is served from a different dev origin
			},
		},
	}
}

// ServeHTTP handles websocket requests from the peer.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.logger.Errorf("Failed to upgrade websocket connection: %v", err)
		return
	}

	client := NewClient(h.hub, h.sessions, conn, h.sendBuffer, h.maxPerSecond)
	h.hub.Register(client)

	// The request goroutine returns; the pumps own the connection from here.
	go client.WritePump()
	go client.ReadPump(h.ctx)
}
