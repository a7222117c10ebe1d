// Package ws streams state snapshots to the shell over a WebSocket.
// Each message is one bus event carrying the full record for its
// topic, so the shell converges even when intermediate events drop.
package ws

import (
	"net/http"
	"time"

	"github.com/Zombiegoblin4/Bastion-Browser/internal/events"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/infrastructure/monitoring"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/logging"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/privacy"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/update"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second

	// subscriberBuffer absorbs bursts like per-percent download
	// progress without dropping the final snapshot.
	subscriberBuffer = 64
)

var upgrader = websocket.Upgrader{
	// The server binds to loopback; the shell's origin varies by
	// packaging, so origin checking buys nothing here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler manages event-stream connections.
type Handler struct {
	bus     *events.Bus
	privacy *privacy.Engine
	updates *update.Orchestrator
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// NewHandler creates the stream handler.
func NewHandler(bus *events.Bus, privacyEngine *privacy.Engine, updates *update.Orchestrator, log *logging.Logger, metrics *monitoring.Metrics) *Handler {
	return &Handler{
		bus:     bus,
		privacy: privacyEngine,
		updates: updates,
		log:     log,
		metrics: metrics,
	}
}

// Stream upgrades the connection and pushes snapshots until the shell
// disconnects.
func (h *Handler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.WSConnections.Inc()
	defer h.metrics.WSConnections.Dec()

	sub, cancel := h.bus.Subscribe(subscriberBuffer)
	defer cancel()

	// Prime the shell with the current state before any deltas.
	initial := []events.Event{
		{Topic: events.TopicPrivacyConfig, Payload: h.privacy.Config()},
		{Topic: events.TopicPrivacyStats, Payload: h.privacy.Stats()},
		{Topic: events.TopicUpdateConfig, Payload: h.updates.Config()},
		{Topic: events.TopicUpdateStatus, Payload: h.updates.Status()},
	}
	for _, ev := range initial {
		if err := h.write(conn, ev); err != nil {
			return
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Drain control frames so pong handling and close
		// detection work.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if err := h.write(conn, ev); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, ev events.Event) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}
