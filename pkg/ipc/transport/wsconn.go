// Package transport implements the transport listener (SPEC_FULL.md
// §4.F): the streaming-transport upgrade handshake and the HTTP
// sideband endpoints (clients, send, receive).
package transport

import (
	"sync"

	"github.com/gorilla/websocket"
)

// wsConn adapts a *websocket.Conn to core.Conn. gorilla/websocket
// permits at most one concurrent writer per connection; the mutex
// enforces that even though core.Session already calls SendText from
// a single writer goroutine.
type wsConn struct {
	mu sync.Mutex
	c  *websocket.Conn
}

func (w *wsConn) SendText(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteMessage(websocket.TextMessage, data)
}

func (w *wsConn) Close() error {
	return w.c.Close()
}
