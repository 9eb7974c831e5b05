package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vnxcius/gameserver-status-bot/internal/http/events"
	"github.com/vnxcius/gameserver-status-bot/internal/status"
)

type Handlers struct {
	tracker  *status.Tracker
	ws       *events.WSManager
	upgrader *websocket.Upgrader
}

func New(tracker *status.Tracker, ws *events.WSManager, allowedOrigins []string) *Handlers {
	return &Handlers{
		tracker:  tracker,
		ws:       ws,
		upgrader: events.NewUpgrader(allowedOrigins),
	}
}

func (h *Handlers) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func (h *Handlers) GetServerStatus(c *gin.Context) {
	snap := h.tracker.Snapshot()
	if !snap.HasLast {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "no status yet"})
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		Target:    snap.Target.String(),
		ChannelID: snap.ChannelID,
		Record:    snap.Last,
	})
}

func (h *Handlers) ServeWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("Error upgrading connection to websocket", "error", err)
		return
	}

	h.ws.AddClient(conn, h.tracker.Snapshot())
	slog.Info("WebSocket client connected", "ip", c.ClientIP())
}
