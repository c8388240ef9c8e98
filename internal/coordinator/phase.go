package coordinator

import "context"

// Phase is the explicit state of the active session's pipeline. It
// replaces the flag combinations the flow would otherwise need:
// invalid combinations simply cannot be represented.
type Phase int

const (
	// PhaseIdle means no session is underway.
	PhaseIdle Phase = iota
	// PhaseStarting means the start command was sent but the recorder
	// has not confirmed yet.
	PhaseStarting
	// PhaseRecording means partial transcript events are flowing.
	PhaseRecording
	// PhasePaused means capture is suspended but the session is live.
	PhasePaused
	// PhaseStopping means stop was issued and the recorder has not
	// delivered the full transcript yet.
	PhaseStopping
	// PhaseDraining means the full transcript arrived and queued chunk
	// work is being waited out before the final summary may start.
	PhaseDraining
	// PhaseSummarizing means the final summarization request is in
	// flight.
	PhaseSummarizing
	// PhaseDone means the final summary was delivered.
	PhaseDone
	// PhaseError is terminal for the stage that failed; a new start
	// fully resets it.
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStarting:
		return "starting"
	case PhaseRecording:
		return "recording"
	case PhasePaused:
		return "paused"
	case PhaseStopping:
		return "stopping"
	case PhaseDraining:
		return "draining"
	case PhaseSummarizing:
		return "summarizing"
	case PhaseDone:
		return "done"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Recording reports whether the session is in a phase where the
// recorder owns the microphone.
func (p Phase) Recording() bool {
	return p == PhaseStarting || p == PhaseRecording || p == PhasePaused || p == PhaseStopping
}

func (c *Coordinator) setPhase(p Phase) {
	if c.phase == p {
		return
	}
	c.logger.Debug(context.Background(), "phase %s -> %s", c.phase, p)
	c.phase = p
}
