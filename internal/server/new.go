package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nguyentantai21042004/scribe-flow/internal/config"
	"github.com/nguyentantai21042004/scribe-flow/internal/devices"
	"github.com/nguyentantai21042004/scribe-flow/internal/logger"
)

// Server exposes the orchestration core to the UI over a local
// WebSocket. It implements coordinator.Notifier: every core event is
// broadcast to all connected clients as one JSON message.
type Server struct {
	addr     string
	logger   logger.Logger
	devices  devices.Lister
	upgrader websocket.Upgrader

	mu      sync.Mutex
	ctrl    Controller
	clients map[*client]struct{}
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// New creates a Server. Attach the coordinator before Run.
func New(cfg *config.Config, lister devices.Lister, log logger.Logger) *Server {
	return &Server{
		addr:    cfg.Server.Addr,
		logger:  log,
		devices: lister,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The server binds to loopback only; the desktop UI is
			// the sole intended client.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Attach wires the command surface. Separate from New because the
// coordinator takes the server as its notifier at construction.
func (s *Server) Attach(ctrl Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl = ctrl
}

func (s *Server) controller() Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl
}
