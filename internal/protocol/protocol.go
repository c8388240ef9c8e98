package protocol

import (
	"bytes"
	"encoding/json"
)

// Command is one line of JSON written to a worker's stdin.
// The zero fields are omitted so each worker only sees the keys
// its command actually uses.
type Command struct {
	Cmd           string   `json:"cmd"`
	Out           string   `json:"out,omitempty"`
	TranscriptOut string   `json:"transcript_out,omitempty"`
	DeviceIndex   *int     `json:"device_index,omitempty"`
	Wav           string   `json:"wav,omitempty"`
	File          string   `json:"file,omitempty"`
	Text          string   `json:"text,omitempty"`
	ChunkWords    int      `json:"chunk_words,omitempty"`
	Model         string   `json:"model,omitempty"`
	ModelPath     string   `json:"model_path,omitempty"`
	ID            string   `json:"id,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	Instructions  string   `json:"instructions,omitempty"`
	StudentName   string   `json:"student_name,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	MaxTokens     int      `json:"max_tokens,omitempty"`
	Context       *Context `json:"context,omitempty"`
}

// Context tags a summarize command so the worker's response can be
// routed back to the right consumer. Workers echo it verbatim.
type Context struct {
	Type       string `json:"type"`
	SessionDir string `json:"sessionDir,omitempty"`
	ChunkID    int    `json:"chunkId,omitempty"`
}

// Context types recognized by the event router.
const (
	ContextChunk = "chunk"
	ContextFinal = "final"
)

// Event is one line of JSON read from a worker's stdout.
type Event struct {
	Event         string   `json:"event"`
	Text          string   `json:"text,omitempty"`
	Out           string   `json:"out,omitempty"`
	TranscriptOut string   `json:"transcript_out,omitempty"`
	Msg           string   `json:"msg,omitempty"`
	Message       string   `json:"message,omitempty"`
	Model         string   `json:"model,omitempty"`
	Secs          float64  `json:"secs,omitempty"`
	ID            string   `json:"id,omitempty"`
	Context       *Context `json:"context,omitempty"`
}

// Event discriminator values emitted by the workers.
const (
	EventStarted       = "started"
	EventReady         = "ready"
	EventLoaded        = "loaded"
	EventPartial       = "partial"
	EventProgress      = "progress"
	EventStatus        = "status"
	EventDone          = "done"
	EventError         = "error"
	EventSummaryStart  = "summary_start"
	EventSummaryDelta  = "summary_delta"
	EventFollowupDone  = "followup_done"
	EventFollowupError = "followup_error"
)

// ErrorMessage returns the human-readable message of an error event.
// The recorder and summarizer use "msg", the setup worker uses "message".
func (e Event) ErrorMessage() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Message
}

// Parse decodes one stdout line. The second return value is false when
// the line is not a protocol event (diagnostics, progress prints from
// native libraries); such lines are logged and otherwise ignored.
func Parse(line []byte) (Event, bool) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Event{}, false
	}
	var ev Event
	if err := json.Unmarshal(trimmed, &ev); err != nil {
		return Event{}, false
	}
	if ev.Event == "" {
		return Event{}, false
	}
	return ev, true
}

// Encode serializes a command to a single newline-terminated JSON line.
func Encode(cmd Command) ([]byte, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
