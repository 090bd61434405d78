package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"pubhub/internal/middleware"
	"pubhub/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 8
	maxTotalConns   = 10000
)

var (
	ErrServerFull  = errors.New("server connection limit reached")
	ErrUserFull    = errors.New("user connection limit reached")
	ErrHubShutdown = errors.New("notification hub is shutting down")
)

// Hub maps user IDs to their open notification streams.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Register attaches conn to userID. conn may be nil in tests.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubShutdown
	}
	if h.totalConns >= maxTotalConns {
		return nil, ErrServerFull
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserFull
	}

	client := newClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// UnregisterClient detaches client and closes its send buffer. Calling it
// twice is a no-op.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	close(client.Send)
	h.totalConns--
	observability.WebSocketConnectionsTotal.Dec()
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
}

// Broadcast sends message to every stream userID has open and returns how
// many accepted it.
func (h *Hub) Broadcast(userID uint, message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.conns[userID] {
		if c.TrySend(message) {
			delivered++
		}
	}
	return delivered
}

// Connections returns the number of open streams for userID.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// StartWiring forwards every message published on a user channel to that
// user's local streams.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		userID, ok := ParseUserChannel(channel)
		if !ok {
			middleware.Logger.Warn("invalid notification channel", slog.String("channel", channel))
			return
		}
		h.Broadcast(userID, []byte(payload))
	})
}

// Shutdown closes every send buffer; each WritePump then sends a close
// frame and hangs up.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	for _, clients := range h.conns {
		for client := range clients {
			close(client.Send)
			observability.WebSocketConnectionsTotal.Dec()
		}
	}
	middleware.Logger.Info("notification hub stopped", slog.Int("connections", h.totalConns))
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
