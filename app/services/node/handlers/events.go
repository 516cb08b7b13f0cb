package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/coreledger/coreledger/foundation/events"
)

// EventsHandler streams chain events (block appends, mempool admissions,
// retargets) to a connected websocket client, draining the channel the
// chain engine's EventHandler feeds via evts.Send.
type EventsHandler struct {
	log  *zap.SugaredLogger
	evts *events.Events
	ws   websocket.Upgrader
}

// NewEventsHandler constructs an EventsHandler over evts.
func NewEventsHandler(log *zap.SugaredLogger, evts *events.Events) *EventsHandler {
	return &EventsHandler{
		log:  log,
		evts: evts,
		ws:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// ServeHTTP upgrades the connection and relays every event sent to evts
// until the client disconnects or the events registry shuts down.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.ws.Upgrade(w, r, nil)
	if err != nil {
		h.log.Infow("events: upgrade failed", "ERROR", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	ch := h.evts.Acquire(id)
	defer h.evts.Release(id)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}

		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}
