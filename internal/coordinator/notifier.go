package coordinator

// Status states reported to the UI alongside a human-readable message.
const (
	StateStarting  = "starting"
	StateRecording = "recording"
	StatePaused    = "paused"
	StateWorking   = "working"
	StateDone      = "done"
	StateError     = "error"
)

// Notifier receives the events the core emits toward the UI layer.
// The transport is up to the implementation; the coordinator only
// guarantees that events for superseded sessions are never emitted.
type Notifier interface {
	SessionStarted(sessionDir string)
	TranscriptPartial(text, fullText string)
	TranscriptReady(text string)
	TranscriptionStatus(state, message string)
	SummaryReady(text string)
	SummaryStatus(state, message string)
	SummaryStreamReset()
	SummaryStreamDelta(delta string)
	BootstrapStatus(state, message string, percent int)
	FollowUpReady(id, text string)
	FollowUpFailed(id, message string)
}

// NopNotifier discards every event. Useful for headless runs and tests.
type NopNotifier struct{}

func (NopNotifier) SessionStarted(string)              {}
func (NopNotifier) TranscriptPartial(string, string)   {}
func (NopNotifier) TranscriptReady(string)             {}
func (NopNotifier) TranscriptionStatus(string, string) {}
func (NopNotifier) SummaryReady(string)                {}
func (NopNotifier) SummaryStatus(string, string)       {}
func (NopNotifier) SummaryStreamReset()                {}
func (NopNotifier) SummaryStreamDelta(string)          {}
func (NopNotifier) BootstrapStatus(string, string, int) {
}
func (NopNotifier) FollowUpReady(string, string)  {}
func (NopNotifier) FollowUpFailed(string, string) {}
