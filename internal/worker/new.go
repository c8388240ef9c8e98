package worker

import (
	"github.com/nguyentantai21042004/scribe-flow/internal/logger"
	"github.com/nguyentantai21042004/scribe-flow/internal/protocol"
)

// New creates a Handle for one worker role. The process itself is
// spawned lazily by the first EnsureRunning call.
func New(role string, log logger.Logger, onEvent EventFunc, onExit ExitFunc) Handle {
	if onEvent == nil {
		onEvent = func(protocol.Event) {}
	}
	if onExit == nil {
		onExit = func(error) {}
	}
	return &implHandle{
		role:    role,
		logger:  log,
		onEvent: onEvent,
		onExit:  onExit,
	}
}
