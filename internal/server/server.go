package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// uiCommand is a single JSON message from a connected client.
type uiCommand struct {
	Cmd          string `json:"cmd"`
	DeviceIndex  *int   `json:"device_index,omitempty"`
	Model        string `json:"model,omitempty"`
	Summary      string `json:"summary,omitempty"`
	StudentName  string `json:"student_name,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// uiEvent is a single JSON message toward the clients.
type uiEvent struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Run serves the WebSocket endpoint until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	srv := &http.Server{Addr: s.addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "UI server listening on ws://%s/ws", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("ui server: %w", err)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error(r.Context(), "WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	s.logger.Info(r.Context(), "UI client connected: %s", conn.RemoteAddr())

	go s.writePump(c)
	s.readPump(c)
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
}

func (s *Server) readPump(c *client) {
	defer func() {
		s.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn(context.Background(), "UI client read error: %v", err)
			}
			return
		}
		s.dispatch(c, message)
	}
}

func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes one UI command to the coordinator.
func (s *Server) dispatch(c *client, message []byte) {
	ctx := context.Background()

	var cmd uiCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.logger.Warn(ctx, "Bad UI command: %v", err)
		s.sendTo(c, uiEvent{Event: "error", Payload: map[string]string{"message": "malformed command"}})
		return
	}

	ctrl := s.controller()
	if ctrl == nil {
		s.sendTo(c, uiEvent{Event: "error", Payload: map[string]string{"message": "core not ready"}})
		return
	}

	s.logger.Debug(ctx, "UI command: %s", cmd.Cmd)

	switch cmd.Cmd {
	case "start":
		ctrl.Start(startOptions(cmd))
	case "stop":
		ctrl.Stop()
	case "pause":
		ctrl.Pause()
	case "resume":
		ctrl.Resume()
	case "followup":
		id := ctrl.GenerateFollowUp(cmd.Summary, cmd.StudentName, cmd.Instructions)
		s.sendTo(c, uiEvent{Event: "followup_accepted", Payload: map[string]string{"id": id}})
	case "devices":
		s.handleDevices(ctx, c)
	default:
		s.sendTo(c, uiEvent{Event: "error", Payload: map[string]string{"message": "unknown command: " + cmd.Cmd}})
	}
}

func (s *Server) handleDevices(ctx context.Context, c *client) {
	if s.devices == nil {
		s.sendTo(c, uiEvent{Event: "devices_error", Payload: map[string]string{"message": "device listing unavailable"}})
		return
	}
	list, err := s.devices.List(ctx)
	if err != nil {
		s.logger.Error(ctx, "Device listing failed: %v", err)
		s.sendTo(c, uiEvent{Event: "devices_error", Payload: map[string]string{"message": err.Error()}})
		return
	}
	s.sendTo(c, uiEvent{Event: "devices", Payload: map[string]any{"devices": list}})
}

// sendTo queues a message for one client. Slow clients are dropped
// rather than allowed to block the core.
func (s *Server) sendTo(c *client, ev uiEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		s.removeClient(c)
	}
}

// broadcast queues a message for every connected client.
func (s *Server) broadcast(ev uiEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	s.mu.Lock()
	var stale []*client
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			stale = append(stale, c)
		}
	}
	for _, c := range stale {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
}
