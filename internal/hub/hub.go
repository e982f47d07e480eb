package hub

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ashfall-games/wasteland/internal/game/character"
	"github.com/ashfall-games/wasteland/internal/game/service"
	"github.com/ashfall-games/wasteland/internal/game/shop"
	"github.com/ashfall-games/wasteland/internal/session"
)

// Event is the wire envelope for both directions: a type tag and a payload.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

var _ service.Publisher = (*Hub)(nil)

// Hub owns the set of live connections and bridges them to the game
// service. It implements service.Publisher so every mutation, whether it
// arrived over REST or WebSocket, reaches all subscribers.
type Hub struct {
	svc        *service.GameService
	sessions   *session.Registry
	cookieName string
	logger     *zap.Logger
	upgrader   websocket.Upgrader

	mu    sync.RWMutex
	conns map[*Connection]bool
}

// New creates a Hub and wires it as the service's publisher.
//
// Precondition: svc, sessions, and logger must be non-nil.
func New(svc *service.GameService, sessions *session.Registry, cookieName string, logger *zap.Logger) *Hub {
	h := &Hub{
		svc:        svc,
		sessions:   sessions,
		cookieName: cookieName,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		conns: make(map[*Connection]bool),
	}
	svc.SetPublisher(h)
	return h
}

// ServeHTTP upgrades an authenticated request to a WebSocket connection and
// starts its pumps. Requests without a valid session cookie are rejected.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.cookieName)
	if err != nil {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}
	user, err := h.sessions.Resolve(cookie.Value)
	if err != nil {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}

	conn := newConnection(user, ws, h.logger)
	h.register(conn)

	go conn.writePump()
	go conn.readPump(h)
}

func (h *Hub) register(c *Connection) {
	h.mu.Lock()
	h.conns[c] = true
	count := len(h.conns)
	h.mu.Unlock()
	h.logger.Info("client connected",
		zap.String("user", c.user.ID),
		zap.String("role", string(c.user.Role)),
		zap.Int("clients", count),
	)
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	if _, ok := h.conns[c]; ok {
		delete(h.conns, c)
		c.closeSend()
	}
	count := len(h.conns)
	h.mu.Unlock()
	h.logger.Info("client disconnected",
		zap.String("user", c.user.ID),
		zap.Int("clients", count),
	)
}

// connections returns a snapshot of the live connections.
func (h *Hub) connections() []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Connection, 0, len(h.conns))
	for c := range h.conns {
		out = append(out, c)
	}
	return out
}

// Broadcast sends the same event to every connection.
func (h *Hub) Broadcast(evt Event) {
	for _, c := range h.connections() {
		c.Send(evt)
	}
}

// broadcastPerViewer builds a payload per recipient, applying role
// filtering at the emission boundary.
func (h *Hub) broadcastPerViewer(eventType string, build func(viewer session.User) any) {
	for _, c := range h.connections() {
		c.Send(Event{Type: eventType, Data: build(c.user)})
	}
}

// CharacterUpdated implements service.Publisher: the record goes out to
// every client, redacted for players who do not own it.
func (h *Hub) CharacterUpdated(ch *character.Character) {
	h.broadcastPerViewer("character:update", func(viewer session.User) any {
		return map[string]any{"character": service.VisibleCharacter(viewer, ch)}
	})
}

// ShopUpdated implements service.Publisher.
func (h *Hub) ShopUpdated(items []*shop.Item) {
	h.Broadcast(Event{Type: "shop:update", Data: map[string]any{"items": items}})
}

// sendCharacterList emits the filtered character list to one connection.
func (h *Hub) sendCharacterList(ctx context.Context, c *Connection) error {
	chars, err := h.svc.ListCharacters(ctx)
	if err != nil {
		return err
	}
	c.Send(Event{Type: "characters:list", Data: map[string]any{
		"characters": service.VisibleCharacters(c.user, chars),
	}})
	return nil
}

func now() int64 {
	return time.Now().UnixMilli()
}
