package preview

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/discojar/internal/lamp"
	"github.com/muurk/discojar/internal/logging"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Snapshots buffered per client before new ones are dropped
	sendBuffer = 8
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan Snapshot
}

// Hub holds the latest snapshot and the connected clients.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	latest   Snapshot
	seq      uint64
	listener net.Listener
	srv      *http.Server
	now      func() time.Time
}

// NewHub creates a hub whose current snapshot is initial.
func NewHub(initial lamp.State) *Hub {
	h := &Hub{
		clients: make(map[*client]struct{}),
		now:     time.Now,
	}
	h.latest = NewSnapshot(0, initial, h.now())
	return h
}

// Publish records s as the current state and queues it for every client.
// It never blocks.
func (h *Hub) Publish(s lamp.State) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	h.latest = NewSnapshot(h.seq, s, h.now())
	for c := range h.clients {
		select {
		case c.send <- h.latest:
		default:
			logging.Debug("Preview client lagging, snapshot dropped",
				zap.String("remote_addr", c.conn.RemoteAddr().String()),
				zap.Uint64("seq", h.seq),
			)
		}
	}
}

// Latest returns the current snapshot.
func (h *Hub) Latest() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Clients returns the number of connected WebSocket clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Handler returns the HTTP handler serving /ws and /state.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)
	mux.HandleFunc("/state", h.handleState)
	return mux
}

// Start serves the hub on addr and returns the bound address.
func (h *Hub) Start(addr string) (net.Addr, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start preview server: %w", err)
	}

	srv := &http.Server{Handler: h.Handler(), ReadHeaderTimeout: 10 * time.Second}
	h.mu.Lock()
	h.listener = listener
	h.srv = srv
	h.mu.Unlock()

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Preview server stopped", zap.Error(err))
		}
	}()

	logging.Info("Preview server listening", zap.String("addr", listener.Addr().String()))
	return listener.Addr(), nil
}

// Addr returns the address the preview server listens on, or "" before Start.
func (h *Hub) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener == nil {
		return ""
	}
	return h.listener.Addr().String()
}

// Close stops the server and disconnects every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	srv := h.srv
	h.srv = nil
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		close(c.send)
	}
	if srv != nil {
		return srv.Close()
	}
	return nil
}

func (h *Hub) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.Latest())
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{conn: conn, send: make(chan Snapshot, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	c.send <- h.latest
	h.mu.Unlock()

	logging.LogConnection(conn.RemoteAddr().String(), "preview_connected")

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump discards client messages and notices disconnects.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
		logging.LogConnection(c.conn.RemoteAddr().String(), "preview_closed")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case snap, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := c.conn.WriteJSON(snap); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
