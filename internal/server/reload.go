package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/docstitch/docstitch/internal/logging"
)

const writeTimeout = 10 * time.Second

// reloadHub tracks connected preview clients and pushes reload messages.
type reloadHub struct {
	logger  logging.Logger
	mutex   sync.Mutex
	clients map[string]*websocket.Conn
}

func newReloadHub(logger logging.Logger) *reloadHub {
	return &reloadHub{
		logger:  logger,
		clients: make(map[string]*websocket.Conn),
	}
}

func (h *reloadHub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), err, "WebSocket upgrade failed")
		return
	}

	id := uuid.NewString()
	h.mutex.Lock()
	h.clients[id] = conn
	h.mutex.Unlock()

	h.logger.Debug(r.Context(), "Preview client connected", "client", id)

	// The client never sends anything meaningful; reading just detects
	// disconnects.
	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	h.mutex.Lock()
	delete(h.clients, id)
	h.mutex.Unlock()
	conn.Close(websocket.StatusNormalClosure, "")

	h.logger.Debug(r.Context(), "Preview client disconnected", "client", id)
}

// broadcast sends a message to every client, dropping the ones that fail.
// Writes happen on a snapshot of the client map so one stalled client
// cannot hold the mutex against new connections or delay the others past
// its own timeout.
func (h *reloadHub) broadcast(ctx context.Context, message string) {
	h.mutex.Lock()
	conns := make(map[string]*websocket.Conn, len(h.clients))
	for id, conn := range h.clients {
		conns[id] = conn
	}
	h.mutex.Unlock()

	var failed []string
	for id, conn := range conns {
		writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := conn.Write(writeCtx, websocket.MessageText, []byte(message))
		cancel()
		if err != nil {
			h.logger.Debug(ctx, "Dropping preview client", "client", id)
			conn.Close(websocket.StatusGoingAway, "write failed")
			failed = append(failed, id)
		}
	}

	if len(failed) == 0 {
		return
	}
	h.mutex.Lock()
	for _, id := range failed {
		delete(h.clients, id)
	}
	h.mutex.Unlock()
}

// closeAll disconnects every client, used at shutdown.
func (h *reloadHub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for id, conn := range h.clients {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(h.clients, id)
	}
}
