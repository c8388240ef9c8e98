package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/scribe-flow/internal/config"
	"github.com/nguyentantai21042004/scribe-flow/internal/coordinator"
	"github.com/nguyentantai21042004/scribe-flow/internal/devices"
	"github.com/nguyentantai21042004/scribe-flow/internal/logger"
)

type fakeController struct {
	mu    sync.Mutex
	calls []string
	opts  coordinator.StartOptions
}

func (f *fakeController) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeController) Start(opts coordinator.StartOptions) {
	f.mu.Lock()
	f.opts = opts
	f.mu.Unlock()
	f.record("start")
}
func (f *fakeController) Stop()   { f.record("stop") }
func (f *fakeController) Pause()  { f.record("pause") }
func (f *fakeController) Resume() { f.record("resume") }
func (f *fakeController) GenerateFollowUp(summary, studentName, instructions string) string {
	f.record("followup")
	return "fu-1"
}

func (f *fakeController) called(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}

type fakeLister struct {
	devs []devices.Device
}

func (f *fakeLister) List(ctx context.Context) ([]devices.Device, error) {
	return f.devs, nil
}

func newTestServer(t *testing.T, lister devices.Lister) (*Server, *fakeController, *websocket.Conn) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Workers.ScriptsDir = "backend"
	cfg.Paths.Sessions = t.TempDir()
	require.NoError(t, cfg.Validate())

	s := New(cfg, lister, logger.New("error"))
	ctrl := &fakeController{}
	s.Attach(ctrl)

	ts := httptest.NewServer(http.HandlerFunc(s.handleWS))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return s, ctrl, conn
}

func readEvent(t *testing.T, conn *websocket.Conn) uiEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev uiEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestCommandsReachController(t *testing.T) {
	_, ctrl, conn := newTestServer(t, nil)

	idx := 3
	require.NoError(t, conn.WriteJSON(uiCommand{Cmd: "start", DeviceIndex: &idx, Model: "small.en"}))
	require.NoError(t, conn.WriteJSON(uiCommand{Cmd: "pause"}))
	require.NoError(t, conn.WriteJSON(uiCommand{Cmd: "resume"}))
	require.NoError(t, conn.WriteJSON(uiCommand{Cmd: "stop"}))

	require.Eventually(t, func() bool {
		return ctrl.called("start") && ctrl.called("pause") && ctrl.called("resume") && ctrl.called("stop")
	}, 2*time.Second, 10*time.Millisecond)

	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	require.NotNil(t, ctrl.opts.DeviceIndex)
	require.Equal(t, 3, *ctrl.opts.DeviceIndex)
	require.Equal(t, "small.en", ctrl.opts.Model)
}

func TestFollowUpReturnsID(t *testing.T) {
	_, _, conn := newTestServer(t, nil)

	require.NoError(t, conn.WriteJSON(uiCommand{Cmd: "followup", Summary: "recap", StudentName: "Kim"}))

	ev := readEvent(t, conn)
	require.Equal(t, "followup_accepted", ev.Event)

	payload, ok := ev.Payload.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "fu-1", payload["id"])
}

func TestDevicesCommand(t *testing.T) {
	lister := &fakeLister{devs: []devices.Device{{Index: 0, Name: "Built-in Mic", MaxInputChannels: 1}}}
	_, _, conn := newTestServer(t, lister)

	require.NoError(t, conn.WriteJSON(uiCommand{Cmd: "devices"}))

	ev := readEvent(t, conn)
	require.Equal(t, "devices", ev.Event)
}

func TestUnknownCommand(t *testing.T) {
	_, _, conn := newTestServer(t, nil)

	require.NoError(t, conn.WriteJSON(uiCommand{Cmd: "reboot"}))

	ev := readEvent(t, conn)
	require.Equal(t, "error", ev.Event)
}

func TestBroadcastReachesClient(t *testing.T) {
	s, _, conn := newTestServer(t, nil)

	// Give the client a beat to register before broadcasting.
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.clients) == 1
	}, 2*time.Second, 10*time.Millisecond)

	s.TranscriptPartial("hello", "hello")

	ev := readEvent(t, conn)
	require.Equal(t, "transcript_partial", ev.Event)

	data, err := json.Marshal(ev.Payload)
	require.NoError(t, err)
	require.Contains(t, string(data), "hello")
}
