package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dharmasatrya/flightwatch/internal/models"
	"github.com/dharmasatrya/flightwatch/pkg/logger"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub pushes alerts to connected websocket clients. A client that
// connected with ?userId= only receives that user's alerts.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]string
	log     logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]string),
		log:     log,
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "error", err)
		return
	}

	userID := r.URL.Query().Get("userId")
	h.mu.Lock()
	h.clients[conn] = userID
	h.mu.Unlock()

	h.log.Info("alert stream client connected", "user_id", userID, "clients", h.ClientCount())

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
		h.log.Info("alert stream client disconnected", "user_id", userID)
	}()

	// Clients only listen; reading drains control frames and notices the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) Deliver(ctx context.Context, alert models.PriceAlert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	// Writes are serialised under the lock; a connection allows one writer.
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, userID := range h.clients {
		if userID != "" && userID != alert.UserID {
			continue
		}
		conn.SetWriteDeadline(deadline)
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Warn("alert stream write failed", "error", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
