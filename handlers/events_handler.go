package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"dinoplay/logging"
	"dinoplay/metrics"
	"dinoplay/models"
	"dinoplay/player"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventsHandler streams player snapshots over a websocket
type EventsHandler struct {
	player    *player.Player
	quit      chan struct{}
	closeOnce sync.Once
	log       zerolog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(p *player.Player) *EventsHandler {
	return &EventsHandler{
		player: p,
		quit:   make(chan struct{}),
		log:    logging.WithComponent("events"),
	}
}

// Close disconnects every feed. Hijacked connections are not tracked by
// http.Server.Shutdown
func (h *EventsHandler) Close() {
	h.closeOnce.Do(func() { close(h.quit) })
}

// Stream handles GET /api/events. The current snapshot is sent on connect,
// then every change. A slow client only ever receives the latest snapshot
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	log := logging.WithContext(r.Context(), h.log)

	initial, err := h.player.Snapshot(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	metrics.EventClients.Inc()
	defer metrics.EventClients.Dec()

	updates := make(chan models.PlayerSnapshot, 1)
	updates <- initial
	unsubscribe := h.player.Subscribe(func(snap models.PlayerSnapshot) {
		select {
		case updates <- snap:
			return
		default:
		}
		// drop the stale snapshot still waiting to be written
		select {
		case <-updates:
		default:
		}
		select {
		case updates <- snap:
		default:
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go readPump(conn, closed)

	log.Info().Str("remote", r.RemoteAddr).Msg("snapshot feed connected")
	writePump(conn, updates, closed, r.Context().Done(), h.quit)
	log.Info().Str("remote", r.RemoteAddr).Msg("snapshot feed disconnected")
}

// readPump discards client messages and closes done when the peer goes away
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(1 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, updates <-chan models.PlayerSnapshot, peerGone, ctxDone, quit <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
		<-peerGone
	}()
	for {
		select {
		case snap := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-peerGone:
			return
		case <-ctxDone:
			return
		case <-quit:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		}
	}
}
