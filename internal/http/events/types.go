package events

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vnxcius/gameserver-status-bot/internal/probe"
)

const EventStatusUpdate = "status_update"

type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type StatusUpdateEvent struct {
	Target string       `json:"target"`
	Record probe.Record `json:"record"`
}

type ClientList map[*Client]bool

// WSManager pushes every new status record to the connected websocket
// clients.
type WSManager struct {
	sync.RWMutex
	clients ClientList
}

type Client struct {
	connection *websocket.Conn
	manager    *WSManager

	// Buffered channel of outbound messages
	egress chan Event
}
