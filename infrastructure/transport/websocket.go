package transport

import (
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	closeWait = 100 * time.Millisecond
)

// WebSocketConn carries one protocol line per text frame.
type WebSocketConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewWebSocketConn(conn *websocket.Conn, maxLineBytes int) *WebSocketConn {
	conn.SetReadLimit(int64(maxLineBytes))
	return &WebSocketConn{conn: conn}
}

// ReadLine skips binary frames. A frame is one line, a trailing newline is dropped.
func (c *WebSocketConn) ReadLine() (string, error) {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
}

func (c *WebSocketConn) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

// Close may run concurrently with WriteLine, control frames are safe for that.
func (c *WebSocketConn) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeWait))
	return c.conn.Close()
}

func (c *WebSocketConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
