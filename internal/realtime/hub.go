package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/classpulse/feedback-service/internal/models"
)

// AnonymousName is bound to every connection until the client sends a join
// message carrying a display name.
const AnonymousName = "Anonymous"

// Conn is the transport surface the hub needs from a live connection. The
// websocket handler passes a write-locked wrapper; tests pass fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type client struct {
	id   string
	name string
	conn Conn
}

// Hub is the process-scoped registry of live student connections, keyed by
// session. It has exclusive ownership of all connection state and is injected
// into handlers rather than accessed as a global.
//
// Session entries are created lazily on first connect and intentionally never
// torn down on last disconnect; the map is bounded by the number of distinct
// sessions seen since process start.
type Hub struct {
	mu       sync.Mutex
	sessions map[uint]map[string]*client
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		sessions: make(map[uint]map[string]*client),
		logger:   logger,
	}
}

// Register adds a connection to a session with the anonymous placeholder name
// and returns its connection id.
func (h *Hub) Register(sessionID uint, conn Conn) string {
	id := uuid.New().String()

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[string]*client)
	}
	h.sessions[sessionID][id] = &client{id: id, name: AnonymousName, conn: conn}

	return id
}

// Rename binds a display name to a connection. Names are not unique across
// concurrently connected students.
func (h *Hub) Rename(sessionID uint, connID, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.sessions[sessionID][connID]; ok {
		c.name = name
	}
}

// Unregister removes a connection. Unknown handles and repeated calls are
// no-ops.
func (h *Hub) Unregister(sessionID uint, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.sessions[sessionID], connID)
}

// ConnectedNames returns the display names of joined students, excluding
// connections still bound to the anonymous placeholder.
func (h *Hub) ConnectedNames(sessionID uint) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.sessions[sessionID]))
	for _, c := range h.sessions[sessionID] {
		if c.name != AnonymousName {
			names = append(names, c.name)
		}
	}
	return names
}

// Broadcast sends an event to every connection registered for the session at
// snapshot time. Delivery is best-effort and at-most-once per recipient: a
// failed send is swallowed, the dead connection is dropped from the registry,
// and remaining recipients still receive the event. Sends happen outside the
// lock so a slow socket never blocks registry mutations.
func (h *Hub) Broadcast(event models.SessionEvent) {
	h.mu.Lock()
	recipients := make([]*client, 0, len(h.sessions[event.SessionID]))
	for _, c := range h.sessions[event.SessionID] {
		recipients = append(recipients, c)
	}
	h.mu.Unlock()

	for _, c := range recipients {
		if err := c.conn.WriteJSON(event); err != nil {
			h.logger.Debug("dropping dead connection",
				"session_id", event.SessionID,
				"conn_id", c.id,
				"error", err)
			h.Unregister(event.SessionID, c.id)
			_ = c.conn.Close()
		}
	}
}

// Run consumes broker events until ctx is cancelled, fanning each one out to
// the event's session. Malformed messages are acked and skipped.
func (h *Hub) Run(ctx context.Context, messages <-chan *message.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			event, err := DecodeEvent(msg)
			if err != nil {
				h.logger.Error("discarding undecodable session event", "error", err)
				msg.Ack()
				continue
			}
			h.Broadcast(event)
			msg.Ack()
		}
	}
}
