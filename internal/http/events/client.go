package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

func NewClient(conn *websocket.Conn, m *WSManager) *Client {
	return &Client{
		connection: conn,
		manager:    m,
		egress:     make(chan Event, 8),
	}
}

func (c *Client) send(evt Event) {
	c.manager.RLock()
	defer c.manager.RUnlock()

	if _, ok := c.manager.clients[c]; !ok {
		return
	}
	select {
	case c.egress <- evt:
	default:
		slog.Warn("client buffer full, dropping event")
	}
}

// ReadMessages only drains control frames, the feed is one-way. It
// returns when the peer goes away.
func (c *Client) ReadMessages() {
	defer c.manager.RemoveClient(c)

	c.connection.SetReadLimit(512)
	_ = c.connection.SetReadDeadline(time.Now().Add(pongWait))
	c.connection.SetPongHandler(func(string) error {
		return c.connection.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.connection.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("Client read error", "error", err)
			}
			return
		}
	}
}

func (c *Client) WriteMessages() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.connection.Close()
		c.manager.RemoveClient(c)
	}()

	for {
		select {
		case message, ok := <-c.egress:
			_ = c.connection.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				if err := c.connection.WriteMessage(websocket.CloseMessage, nil); err != nil {
					slog.Debug("WS connection closed", "error", err)
				}
				return
			}

			data, err := json.Marshal(message)
			if err != nil {
				slog.Error("Error marshalling message", "error", err)
				return
			}

			if err := c.connection.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Error("Error sending message", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.connection.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
