package realtime

import (
	"sync"

	"github.com/gorilla/websocket"
)

// wsConn serializes writes to a gorilla websocket connection, which permits
// only one concurrent writer. Broadcasts and the handler's initial snapshot
// may otherwise race.
type wsConn struct {
	mu sync.Mutex
	c  *websocket.Conn
}

// WrapConn adapts a gorilla connection to the hub's Conn interface.
func WrapConn(c *websocket.Conn) Conn {
	return &wsConn{c: c}
}

func (w *wsConn) WriteJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteJSON(v)
}

func (w *wsConn) Close() error {
	return w.c.Close()
}
