package scanner

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeTimeout = 10 * time.Second

// StreamHub fans scan progress events out to connected WebSocket clients.
// A slow or dead client is dropped rather than allowed to stall the scan.
type StreamHub struct {
	upgrader websocket.Upgrader
	logger   *logrus.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewStreamHub creates a progress stream hub.
func NewStreamHub(logger *logrus.Logger) *StreamHub {
	if logger == nil {
		logger = logrus.New()
	}
	return &StreamHub{
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the connection for progress
// broadcasts until the peer closes it.
func (h *StreamHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to upgrade progress stream connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.WithField("clients", count).Debug("Progress stream client connected")

	// Drain control frames so close handshakes are noticed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(conn)
				return
			}
		}
	}()
}

// Broadcast sends the event to every connected client.
func (h *StreamHub) Broadcast(event ProgressEvent) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			h.logger.WithError(err).Debug("Dropping progress stream client")
			h.remove(conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *StreamHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all clients.
func (h *StreamHub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}

func (h *StreamHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()

	if ok {
		_ = conn.Close()
	}
}
