package server

import (
	"github.com/nguyentantai21042004/scribe-flow/internal/coordinator"
)

func startOptions(cmd uiCommand) coordinator.StartOptions {
	return coordinator.StartOptions{
		DeviceIndex: cmd.DeviceIndex,
		Model:       cmd.Model,
	}
}

// The methods below satisfy coordinator.Notifier by broadcasting each
// core event to every connected UI client.

func (s *Server) SessionStarted(sessionDir string) {
	s.broadcast(uiEvent{Event: "session_started", Payload: map[string]string{"session_dir": sessionDir}})
}

func (s *Server) TranscriptPartial(text, fullText string) {
	s.broadcast(uiEvent{Event: "transcript_partial", Payload: map[string]string{
		"text":      text,
		"full_text": fullText,
	}})
}

func (s *Server) TranscriptReady(text string) {
	s.broadcast(uiEvent{Event: "transcript_ready", Payload: map[string]string{"text": text}})
}

func (s *Server) TranscriptionStatus(state, message string) {
	s.broadcast(uiEvent{Event: "transcription_status", Payload: map[string]string{
		"state":   state,
		"message": message,
	}})
}

func (s *Server) SummaryReady(text string) {
	s.broadcast(uiEvent{Event: "summary_ready", Payload: map[string]string{"text": text}})
}

func (s *Server) SummaryStatus(state, message string) {
	s.broadcast(uiEvent{Event: "summary_status", Payload: map[string]string{
		"state":   state,
		"message": message,
	}})
}

func (s *Server) SummaryStreamReset() {
	s.broadcast(uiEvent{Event: "summary_stream_reset"})
}

func (s *Server) SummaryStreamDelta(delta string) {
	s.broadcast(uiEvent{Event: "summary_stream_delta", Payload: map[string]string{"delta": delta}})
}

func (s *Server) BootstrapStatus(state, message string, percent int) {
	s.broadcast(uiEvent{Event: "bootstrap_status", Payload: map[string]any{
		"state":   state,
		"message": message,
		"percent": percent,
	}})
}

func (s *Server) FollowUpReady(id, text string) {
	s.broadcast(uiEvent{Event: "followup_ready", Payload: map[string]string{
		"id":   id,
		"text": text,
	}})
}

func (s *Server) FollowUpFailed(id, message string) {
	s.broadcast(uiEvent{Event: "followup_failed", Payload: map[string]string{
		"id":      id,
		"message": message,
	}})
}
