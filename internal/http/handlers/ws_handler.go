package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/DevSkits916/campaign-autopilot/internal/auth"
	"github.com/DevSkits916/campaign-autopilot/internal/campaign"
	"github.com/DevSkits916/campaign-autopilot/internal/config"
	"github.com/DevSkits916/campaign-autopilot/internal/status"
)

// WSHub fans the status feed out to websocket observers. Every
// connection sees the same feed, so connections are tracked as a
// flat set.
type WSHub struct {
	cfg         *config.Config
	broker      *status.Broker
	controller  *campaign.Controller
	log         *zap.Logger
	mu          sync.RWMutex
	connections map[*websocket.Conn]struct{}
}

func NewWSHub(cfg *config.Config, broker *status.Broker, controller *campaign.Controller, log *zap.Logger) *WSHub {
	return &WSHub{
		cfg:         cfg,
		broker:      broker,
		controller:  controller,
		log:         log,
		connections: make(map[*websocket.Conn]struct{}),
	}
}

// Start pumps broker events to all connected observers until ctx is
// cancelled. Quiet idle intervals produce a heartbeat snapshot, same
// rule as the SSE stream.
func (h *WSHub) Start(ctx context.Context) {
	go func() {
		sub := h.broker.Subscribe()
		defer h.broker.Unsubscribe(sub)

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			ev, ok := sub.Receive(status.IdleTimeout)
			if !ok {
				if h.controller.IsActive() {
					continue
				}
				ev = h.broker.Heartbeat()
			}
			h.broadcast(ev)
		}
	}()
}

func (h *WSHub) broadcast(ev status.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.connections {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	// Extract token from query
	tokenStr := conn.Query("token")
	if tokenStr == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"missing token"}`))
		conn.Close()
		return
	}

	if _, err := auth.ParseJWT(h.cfg.JWTSecret, tokenStr); err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
		conn.Close()
		return
	}

	// New observers get the current snapshot right away.
	if data, err := json.Marshal(h.broker.Snapshot()); err == nil {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}

	// Register
	h.mu.Lock()
	h.connections[conn] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.connections, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
