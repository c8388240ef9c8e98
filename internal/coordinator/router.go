package coordinator

import (
	"github.com/nguyentantai21042004/scribe-flow/internal/protocol"
)

// routeRecorderEvent handles the recorder's event stream. Recorder
// events carry no session tag; they implicitly belong to the active
// session, so they are dropped when no session is live.
func (c *Coordinator) routeRecorderEvent(ev protocol.Event) {
	sess := c.registry.Current()
	if sess == nil {
		c.logger.Debug(c.ctx, "recorder event %q with no active session, dropped", ev.Event)
		return
	}

	switch ev.Event {
	case protocol.EventStarted, protocol.EventReady:
		// started echoes the audio path of the session it belongs to; a
		// confirmation for a superseded session's start is stale.
		if ev.Out != "" && ev.Out != sess.AudioPath() {
			c.logger.Debug(c.ctx, "stale recorder started for %s, dropped", ev.Out)
			return
		}
		if c.phase == PhaseStarting {
			c.setPhase(PhaseRecording)
		}
		c.notifier.TranscriptionStatus(StateRecording, "recording")

	case protocol.EventPartial:
		// The recorder reports the cumulative transcript, not a delta.
		unconsumed := c.buffer.SetCumulative(ev.Text)
		c.notifier.TranscriptPartial(ev.Text, c.buffer.Text())
		c.onTranscriptGrowth(unconsumed)

	case protocol.EventDone:
		// done echoes the transcript path. A full transcript from a
		// superseded session racing a new start must not seed the new
		// session's buffer or final request.
		if ev.Out != "" && ev.Out != sess.TranscriptPath() {
			c.logger.Debug(c.ctx, "stale recorder done for %s, dropped", ev.Out)
			return
		}
		// Full transcript: recording is over, drain and summarize.
		c.buffer.SetCumulative(ev.Text)
		c.notifier.TranscriptReady(ev.Text)
		c.notifier.TranscriptionStatus(StateDone, "transcription complete")
		c.requestFinal(ev.Text, sess.Dir)

	case protocol.EventError:
		c.notifier.TranscriptionStatus(StateError, ev.ErrorMessage())
		if c.phase.Recording() {
			c.setPhase(PhaseError)
		}

	case protocol.EventProgress:
		c.notifier.TranscriptionStatus(StateWorking, ev.Msg)

	default:
		c.logger.Debug(c.ctx, "unhandled recorder event %q", ev.Event)
	}
}

// routeSummarizerEvent demultiplexes the summarizer's stream by the
// echoed context tag: chunk results go to the chunk scheduler, final
// results to the final coordinator, anything untagged is an ad hoc
// response. Stale session tags are discarded silently.
func (c *Coordinator) routeSummarizerEvent(ev protocol.Event) {
	if ev.Context != nil {
		switch ev.Context.Type {
		case protocol.ContextChunk:
			c.routeChunkEvent(ev)
			return
		case protocol.ContextFinal:
			c.routeFinalEvent(ev)
			return
		}
	}

	switch ev.Event {
	case protocol.EventFollowupDone:
		c.handleFollowupDone(ev)
	case protocol.EventFollowupError:
		c.handleFollowupError(ev)
	case protocol.EventLoaded:
		c.logger.Info(c.ctx, "summarizer model loaded: %s", ev.Model)
	case protocol.EventProgress:
		c.logger.Debug(c.ctx, "summarizer: %s", ev.Msg)
	case protocol.EventError:
		c.logger.Warn(c.ctx, "summarizer: %s", ev.ErrorMessage())
	default:
		c.logger.Debug(c.ctx, "unhandled summarizer event %q", ev.Event)
	}
}

// routeChunkEvent gates chunk results on the session the chunk
// scheduler currently serves. A completion for a superseded session is
// allowed to finish but must neither touch the new session's summary
// map nor surface in the UI.
func (c *Coordinator) routeChunkEvent(ev protocol.Event) {
	if ev.Context.SessionDir != c.chunks.sessionDir {
		c.logger.Debug(c.ctx, "stale chunk event for %s, dropped", ev.Context.SessionDir)
		return
	}

	switch ev.Event {
	case protocol.EventDone:
		c.handleChunkDone(ev)
	case protocol.EventError:
		c.handleChunkError(ev)
	case protocol.EventSummaryStart, protocol.EventSummaryDelta, protocol.EventProgress:
		// Chunk summaries never stream to the UI; only the final does.
	default:
		c.logger.Debug(c.ctx, "unhandled chunk event %q", ev.Event)
	}
}

// routeFinalEvent matches against the running final request's own
// session tag, not the globally active session: a final may complete
// legitimately after a new session has begun, and its result still
// belongs to the historical session.
func (c *Coordinator) routeFinalEvent(ev protocol.Event) {
	if !c.final.running || ev.Context.SessionDir != c.final.runningSessionDir {
		c.logger.Debug(c.ctx, "stale final event for %s, dropped", ev.Context.SessionDir)
		return
	}

	active := c.registry.IsActive(ev.Context.SessionDir)

	switch ev.Event {
	case protocol.EventSummaryStart:
		if active {
			c.notifier.SummaryStreamReset()
		}
	case protocol.EventSummaryDelta:
		if active {
			c.notifier.SummaryStreamDelta(ev.Text)
		}
	case protocol.EventProgress:
		if active {
			c.notifier.SummaryStatus(StateWorking, ev.Msg)
		}
	case protocol.EventDone:
		c.handleFinalDone(ev)
	case protocol.EventError:
		c.handleFinalError(ev)
	default:
		c.logger.Debug(c.ctx, "unhandled final event %q", ev.Event)
	}
}

// onRecorderExit fails whatever stage depended on the recorder. The
// next start respawns it.
func (c *Coordinator) onRecorderExit(err error) {
	if c.phase.Recording() {
		c.notifier.TranscriptionStatus(StateError, "recorder exited unexpectedly")
		c.setPhase(PhaseError)
	}
}

// onSummarizerExit resolves every request correlated against the dead
// process: the in-flight chunk (its contribution is dropped), the
// running or pending final, and all pending follow-ups. Leaving any of
// them dangling would freeze the UI permanently.
func (c *Coordinator) onSummarizerExit(err error) {
	c.failAllFollowUps("summarizer exited unexpectedly")

	if c.chunks.processing {
		c.logger.Warn(c.ctx, "chunk %d lost to summarizer exit", c.chunks.inFlight.id)
		c.chunks.processing = false
	}
	// Queued tasks would never dispatch against the dead process, and a
	// non-empty queue blocks the final summary forever. Their summaries
	// are lost; the final degrades rather than hangs.
	if n := len(c.chunks.queue); n > 0 {
		c.logger.Warn(c.ctx, "%d queued chunk tasks dropped, summarizer exited", n)
		c.chunks.queue = nil
	}

	if c.final.running {
		sessionDir := c.final.runningSessionDir
		c.final.running = false
		c.final.runningSessionDir = ""
		if c.registry.IsActive(sessionDir) {
			c.notifier.SummaryStatus(StateError, "summarizer exited unexpectedly")
			c.setPhase(PhaseError)
		}
	}

	if c.final.pending != nil {
		req := c.final.pending
		c.final.pending = nil
		if c.registry.IsActive(req.sessionDir) {
			c.notifier.SummaryStatus(StateError, "summarizer exited before the final summary")
			c.setPhase(PhaseError)
		}
	}
}
