// Package statusws exposes the daemon's status snapshots to local
// subscribers (stream decks, scripts) over a WebSocket endpoint. The
// server is optional: it only runs when a listen address is configured.
package statusws

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tiroq/mutewatch/internal/diaglog"
	"github.com/tiroq/mutewatch/internal/ipc"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Local integrations only; the listener is expected to bind
		// loopback.
		return true
	},
}

// Server broadcasts each published StatusSnapshot to all connected
// clients and replays the latest snapshot to new subscribers.
type Server struct {
	listener net.Listener
	server   *http.Server
	logger   *diaglog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	latest  []byte
}

// New creates an unstarted server.
func New() *Server {
	return &Server{
		clients: make(map[*websocket.Conn]bool),
		logger:  diaglog.NewNoOp(),
	}
}

// SetLogger wires the structured diagnostic logger.
func (s *Server) SetLogger(l *diaglog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Start begins listening on addr and serving /status upgrades.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("status listener: %w", err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)

	s.server = &http.Server{Handler: mux}
	go func() {
		_ = s.server.Serve(s.listener)
	}()

	return nil
}

// Addr returns the bound address, useful when addr was ":0".
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Broadcast marshals the snapshot once and pushes it to every client.
// Dead connections are dropped; delivery is best effort.
func (s *Server) Broadcast(status *ipc.StatusSnapshot) {
	data, err := json.Marshal(status)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = data

	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			_ = conn.Close()
			delete(s.clients, conn)
			s.logger.Log(diaglog.LogEntry{
				Component: diaglog.ComponentStatusWS,
				Event:     diaglog.EventWSClientGone,
				Payload:   map[string]interface{}{"error": err.Error()},
			})
		}
	}
}

// ClientCount returns the number of registered subscribers.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Stop closes all client connections and shuts the listener down.
func (s *Server) Stop() error {
	s.mu.Lock()
	for conn := range s.clients {
		_ = conn.Close()
		delete(s.clients, conn)
	}
	s.mu.Unlock()

	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	// Replay the latest snapshot so subscribers don't wait a full poll
	// interval for their first state. The write happens under s.mu and
	// before the connection is registered: Broadcast writes registered
	// connections under the same lock, and a websocket connection
	// permits only one writer at a time.
	s.mu.Lock()
	if s.latest != nil {
		if err := conn.WriteMessage(websocket.TextMessage, s.latest); err != nil {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
	}
	s.clients[conn] = true
	s.mu.Unlock()

	s.logger.Log(diaglog.LogEntry{
		Component: diaglog.ComponentStatusWS,
		Event:     diaglog.EventWSClientConnect,
		Payload:   map[string]interface{}{"remote": conn.RemoteAddr().String()},
	})

	// Drain (and discard) client frames so pings and closes are
	// processed; the read loop exiting unregisters the connection.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.mu.Lock()
				delete(s.clients, conn)
				s.mu.Unlock()
				_ = conn.Close()
				return
			}
		}
	}()
}
