package realtime

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// WebSocketConn wraps websocket.Conn so the hub does not depend on it.
type WebSocketConn struct {
	Conn *websocket.Conn
}

func NewWebSocketConn(c *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{Conn: c}
}

// WritePump copies queued payloads to the socket and pings idle connections.
// It returns when a write fails, or closes the socket once the send channel
// is closed.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				// unblocks the read loop of the handler
				_ = c.Conn.Conn.Close()
				return
			}
			if err := c.Conn.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
