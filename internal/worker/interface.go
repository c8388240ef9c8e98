package worker

import (
	"context"

	"github.com/nguyentantai21042004/scribe-flow/internal/protocol"
)

// Handle owns one external worker process (recorder, transcriber or
// summarizer): lifecycle, command channel in, event channel out.
type Handle interface {
	// EnsureRunning spawns the worker if it is not alive. When the
	// worker is alive but loaded with a different model, the role's
	// reload command is sent instead of respawning; a role without a
	// reload command is restarted. Idempotent.
	EnsureRunning(ctx context.Context, spec Spec) error

	// Send writes one newline-terminated JSON command to the worker's
	// stdin. Returns false instead of an error when the worker is not
	// alive or the pipe is gone; the caller decides whether to requeue.
	Send(cmd protocol.Command) bool

	Alive() bool

	// Terminate asks the worker to shut down and kills it if it does
	// not exit on its own. The handle reports dead only once the exit
	// notification arrives.
	Terminate()
}

// Spec describes how to launch one worker role.
type Spec struct {
	Role    string
	Command string
	Args    []string
	Env     []string

	// Model identifies the configuration the worker loads at startup.
	// EnsureRunning compares it against the live process to decide
	// between no-op, reload and respawn.
	Model string

	// Reload builds the in-place model switch command for this role.
	// Nil means the role cannot reload and must be respawned on a
	// model change.
	Reload func(model string) protocol.Command
}

// EventFunc receives one parsed protocol event per worker stdout line,
// in arrival order.
type EventFunc func(ev protocol.Event)

// ExitFunc is invoked once when the worker process exits, expectedly
// or not.
type ExitFunc func(err error)
