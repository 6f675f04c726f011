package dev

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ReloadMessageType represents the type of reload message.
type ReloadMessageType string

const (
	// ReloadTypeRebuild announces a fresh set of dispatchers.
	ReloadTypeRebuild ReloadMessageType = "rebuild"
	ReloadTypeError   ReloadMessageType = "error"
	ReloadTypeClear   ReloadMessageType = "clear"
)

const writeWait = 5 * time.Second

// ReloadMessage is sent to connected runtimes via WebSocket.
type ReloadMessage struct {
	Type      ReloadMessageType `json:"type"`
	BuildID   string            `json:"buildId,omitempty"`
	CacheHash string            `json:"cacheHash,omitempty"`
	Entry     string            `json:"entry,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// ReloadHub fans build notifications out to WebSocket clients. A runtime
// reimports the entry dispatcher with the new cache hash on "rebuild".
type ReloadHub struct {
	clients  map[*websocket.Conn]*sync.Mutex
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	last     *ReloadMessage
	logger   *slog.Logger

	// OnClients is called with the client count whenever it changes.
	OnClients func(n int)
}

// NewReloadHub creates a new reload hub.
func NewReloadHub(logger *slog.Logger) *ReloadHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReloadHub{
		clients: make(map[*websocket.Conn]*sync.Mutex),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in dev
			},
		},
		logger: logger.With("component", "reload"),
	}
}

// ServeHTTP upgrades the connection and keeps it until the client leaves.
// New clients receive the most recent message immediately.
func (h *ReloadHub) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	wmu := &sync.Mutex{}
	h.mu.Lock()
	h.clients[conn] = wmu
	last := h.last
	n := len(h.clients)
	h.mu.Unlock()
	h.reportClients(n)

	if last != nil {
		if data, err := json.Marshal(last); err == nil {
			h.write(conn, wmu, data)
		}
	}

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(conn)
}

// NotifyRebuild tells clients a new build is available.
func (h *ReloadHub) NotifyRebuild(buildID, cacheHash, entry string) {
	h.broadcast(ReloadMessage{
		Type:      ReloadTypeRebuild,
		BuildID:   buildID,
		CacheHash: cacheHash,
		Entry:     entry,
	})
}

// NotifyError sends a build error to all clients.
func (h *ReloadHub) NotifyError(errMsg string) {
	h.broadcast(ReloadMessage{Type: ReloadTypeError, Error: errMsg})
}

// ClearError clears a previously reported error.
func (h *ReloadHub) ClearError() {
	h.broadcast(ReloadMessage{Type: ReloadTypeClear})
}

func (h *ReloadHub) broadcast(msg ReloadMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.last = &msg
	clients := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for c, wmu := range h.clients {
		clients[c] = wmu
	}
	h.mu.Unlock()

	for client, wmu := range clients {
		if err := h.write(client, wmu, data); err != nil {
			h.remove(client)
		}
	}
}

func (h *ReloadHub) write(conn *websocket.Conn, wmu *sync.Mutex, data []byte) error {
	wmu.Lock()
	defer wmu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *ReloadHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	n := len(h.clients)
	h.mu.Unlock()
	conn.Close()
	if ok {
		h.reportClients(n)
	}
}

func (h *ReloadHub) reportClients(n int) {
	if h.OnClients != nil {
		h.OnClients(n)
	}
}

// ClientCount returns the number of connected clients.
func (h *ReloadHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *ReloadHub) Close() {
	h.mu.Lock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
	h.mu.Unlock()
	h.reportClients(0)
}
