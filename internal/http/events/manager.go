package events

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/vnxcius/gameserver-status-bot/internal/probe"
	"github.com/vnxcius/gameserver-status-bot/internal/status"
)

/*
NewUpgrader accepts same-origin requests, requests without an Origin
header (bots, curl) and the listed origins.
*/
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(allowedOrigins, origin) {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		},
	}
}

// NewWSManager creates the manager and starts forwarding tracker updates.
// Forwarding stops when the tracker is closed.
func NewWSManager(tracker *status.Tracker) *WSManager {
	m := &WSManager{clients: make(ClientList)}
	go m.forward(tracker)
	return m
}

func (m *WSManager) forward(tracker *status.Tracker) {
	for rec := range tracker.Subscribe() {
		evt, err := statusEvent(rec)
		if err != nil {
			slog.Error("Error marshalling message", "error", err)
			continue
		}
		m.broadcast(evt)
	}
	m.closeAll()
}

// statusEvent labels rec with the address it was probed against, which may
// differ from the current target after a setserver.
func statusEvent(rec probe.Record) (Event, error) {
	payload, err := json.Marshal(StatusUpdateEvent{Target: rec.Target, Record: rec})
	if err != nil {
		return Event{}, err
	}
	return Event{Type: EventStatusUpdate, Payload: payload}, nil
}

// AddClient registers conn and sends it the cached status, if any.
func (m *WSManager) AddClient(conn *websocket.Conn, snap status.Snapshot) {
	c := NewClient(conn, m)

	m.Lock()
	m.clients[c] = true
	m.Unlock()

	go c.WriteMessages()
	go c.ReadMessages()

	if snap.HasLast {
		evt, err := statusEvent(snap.Last)
		if err == nil {
			c.send(evt)
		}
	}
}

func (m *WSManager) RemoveClient(c *Client) {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.clients[c]; ok {
		close(c.egress)
		delete(m.clients, c)
	}
}

func (m *WSManager) ClientCount() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.clients)
}

func (m *WSManager) broadcast(evt Event) {
	m.RLock()
	defer m.RUnlock()

	for c := range m.clients {
		select {
		case c.egress <- evt:
			slog.Debug("Broadcasting event", "type", evt.Type)
		default:
			slog.Warn("client buffer full, dropping event")
		}
	}
}

func (m *WSManager) closeAll() {
	m.Lock()
	defer m.Unlock()

	for c := range m.clients {
		close(c.egress)
		delete(m.clients, c)
	}
}
