package worker

import (
	"context"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/scribe-flow/internal/logger"
	"github.com/nguyentantai21042004/scribe-flow/internal/protocol"
)

func testLogger() logger.Logger {
	return logger.New("error")
}

func TestScanLinesDeliversEventsInOrder(t *testing.T) {
	input := `{"event":"started","out":"/tmp/a.wav"}
{"event":"partial","text":"hello"}
{"event":"done","text":"hello world"}
`

	var events []protocol.Event
	scanLines(strings.NewReader(input), func(ev protocol.Event) {
		events = append(events, ev)
	}, func(string) {})

	require.Len(t, events, 3)
	assert.Equal(t, "started", events[0].Event)
	assert.Equal(t, "partial", events[1].Event)
	assert.Equal(t, "hello", events[1].Text)
	assert.Equal(t, "done", events[2].Event)
}

func TestScanLinesTreatsMalformedAsDiagnostic(t *testing.T) {
	input := "loading checkpoint shards: 50%\n" +
		"{\"event\":\"ready\"}\n" +
		"{not json at all\n" +
		"{\"no_event_key\":true}\n"

	var events []protocol.Event
	var diags []string
	scanLines(strings.NewReader(input), func(ev protocol.Event) {
		events = append(events, ev)
	}, func(line string) {
		diags = append(diags, line)
	})

	require.Len(t, events, 1)
	assert.Equal(t, "ready", events[0].Event)
	assert.Len(t, diags, 3)
}

func TestScanLinesBuffersPartialLines(t *testing.T) {
	// One byte at a time: the line must still arrive as a single event.
	input := "{\"event\":\"partial\",\"text\":\"split across reads\"}\n"

	var events []protocol.Event
	scanLines(iotest.OneByteReader(strings.NewReader(input)), func(ev protocol.Event) {
		events = append(events, ev)
	}, func(string) {})

	require.Len(t, events, 1)
	assert.Equal(t, "split across reads", events[0].Text)
}

func TestSendBeforeSpawnReturnsFalse(t *testing.T) {
	h := New("recorder", testLogger(), nil, nil)

	assert.False(t, h.Send(protocol.StopRecording()))
	assert.False(t, h.Alive())
}

func TestEnsureRunningIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("recorder", testLogger(), nil, nil).(*implHandle)
	spec := Spec{Role: "recorder", Command: "cat", Model: "small.en"}

	require.NoError(t, h.EnsureRunning(ctx, spec))
	require.True(t, h.Alive())
	pid := h.cmd.Process.Pid

	// Same configuration: exactly one process, no respawn.
	require.NoError(t, h.EnsureRunning(ctx, spec))
	assert.Equal(t, pid, h.cmd.Process.Pid)

	h.Terminate()
}

func TestEnsureRunningReloadsWithoutRespawn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("summarizer", testLogger(), nil, nil).(*implHandle)
	spec := Spec{
		Role:    "summarizer",
		Command: "cat",
		Model:   "models/a.gguf",
		Reload:  protocol.LoadSummarizerModel,
	}

	require.NoError(t, h.EnsureRunning(ctx, spec))
	pid := h.cmd.Process.Pid

	spec.Model = "models/b.gguf"
	require.NoError(t, h.EnsureRunning(ctx, spec))

	assert.Equal(t, pid, h.cmd.Process.Pid, "reload must not respawn")
	assert.Equal(t, "models/b.gguf", h.model)

	h.Terminate()
}

func TestExitNotificationFiresOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exited := make(chan error, 2)
	h := New("recorder", testLogger(), nil, func(err error) {
		exited <- err
	})

	require.NoError(t, h.EnsureRunning(ctx, Spec{Role: "recorder", Command: "true"}))

	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("exit callback never fired")
	}

	// Dead handle refuses sends until respawned.
	assert.Eventually(t, func() bool { return !h.Alive() }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, h.Send(protocol.StopRecording()))

	select {
	case <-exited:
		t.Fatal("exit callback fired twice")
	case <-time.After(100 * time.Millisecond):
	}
}
