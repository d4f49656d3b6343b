package handlers

import (
	"encoding/json"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/middleware"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/notify"
)

// Event types sent over WebSocket
const (
	EventFeedUpdated = "feed_updated"
)

// WSEvent is the JSON message sent to connected clients
type WSEvent struct {
	Type   string `json:"type"`
	Unread int    `json:"unread"`
}

// connection wraps a websocket connection with its viewer scope. The mutex
// serializes writes; the underlying conn allows at most one concurrent writer.
type connection struct {
	conn  *websocket.Conn
	scope string

	writeMu sync.Mutex
}

func (c *connection) send(msg []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Hub manages WebSocket connections per viewer scope. It implements
// notify.UpdateSink so every feed mutation is pushed to all of the viewer's
// connected sessions.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*connection]bool // viewer scope -> set of connections
}

// Global hub instance
var WS = &Hub{
	rooms: make(map[string]map[*connection]bool),
}

// register adds a connection to a scope room
func (h *Hub) register(scope string, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[scope] == nil {
		h.rooms[scope] = make(map[*connection]bool)
	}
	h.rooms[scope][conn] = true
	log.Printf("WS register: %s connected (total: %d)", scope, len(h.rooms[scope]))
}

// unregister removes a connection from a scope room
func (h *Hub) unregister(scope string, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[scope]; ok {
		delete(conns, conn)
		log.Printf("WS unregister: %s disconnected (remaining: %d)", scope, len(conns))
		if len(conns) == 0 {
			delete(h.rooms, scope)
		}
	}
}

// FeedUpdated pushes the new unread count to every session of the viewer.
func (h *Hub) FeedUpdated(scope string, unread int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, ok := h.rooms[scope]
	if !ok {
		return
	}

	msg, err := json.Marshal(WSEvent{Type: EventFeedUpdated, Unread: unread})
	if err != nil {
		log.Printf("WS marshal error: %v", err)
		return
	}

	for c := range conns {
		if err := c.send(msg); err != nil {
			log.Printf("WS write error: %v", err)
		}
	}
}

// WebSocketUpgrade checks the upgrade request and resolves the viewer scope
// from either a JWT or a device id query param.
func WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		// Authenticate via query param: ?token=<jwt>
		tokenString := c.Query("token")
		if tokenString == "" {
			// Also check Authorization header for non-browser clients
			authHeader := c.Get("Authorization")
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				tokenString = ""
			}
		}

		if tokenString != "" {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				secret = "your-secret-key-change-in-production"
			}

			token, err := jwt.ParseWithClaims(tokenString, &middleware.Claims{}, func(t *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid or expired token",
				})
			}

			claims, ok := token.Claims.(*middleware.Claims)
			if !ok {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid token claims",
				})
			}

			c.Locals("scope", notify.Identified(claims.UserID, claims.Role).Scope())
			return c.Next()
		}

		// Anonymous session: ?device=<id>
		deviceID := c.Query("device")
		if !middleware.ValidDeviceID(deviceID) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authentication token or invalid device id",
			})
		}
		c.Locals("scope", notify.Anonymous(deviceID).Scope())
		return c.Next()
	}
}

// HandleWebSocket streams feed updates for one viewer session
func HandleWebSocket(c *websocket.Conn) {
	scope, ok := c.Locals("scope").(string)
	if !ok {
		c.Close()
		return
	}

	conn := &connection{conn: c, scope: scope}
	WS.register(scope, conn)
	defer WS.unregister(scope, conn)

	// Keep the connection alive by draining reads (client keepalives)
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}

var _ notify.UpdateSink = (*Hub)(nil)
