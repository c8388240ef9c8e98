package coordinator

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nguyentantai21042004/scribe-flow/internal/export"
	"github.com/nguyentantai21042004/scribe-flow/internal/protocol"
	"github.com/nguyentantai21042004/scribe-flow/internal/session"
)

const (
	chunkSummariesHeader = "Previous chunk summaries:"
	leftoverHeader       = "Remaining transcript:"
)

// pendingFinal is a final-summary request waiting for the chunk queue
// to drain.
type pendingFinal struct {
	fullText   string
	sessionDir string
	// cursor captured at the moment chunking was disabled; the
	// leftover is everything after it.
	cursor int
}

// finalState coordinates the single final summarization request per
// session. At most one final request runs at a time process-wide; a
// second request queues behind it rather than duplicating.
type finalState struct {
	pending           *pendingFinal
	running           bool
	runningSessionDir string
}

// requestFinal is called when the recorder delivers the complete
// transcript. Chunking is already disabled by the stop handler, but it
// is forced off again here for the file-ingest style paths that skip
// the stop command.
func (c *Coordinator) requestFinal(fullText, sessionDir string) {
	c.chunks.enabled = false
	c.final.pending = &pendingFinal{
		fullText:   fullText,
		sessionDir: sessionDir,
		cursor:     c.buffer.Cursor(),
	}
	c.setPhase(PhaseDraining)
	c.dispatchNextChunk()
	c.tryStartFinal()
}

// tryStartFinal dispatches the pending final request once every chunk
// task has resolved. The merged input must reflect complete chunk
// coverage, so this never fires while a chunk is queued or in flight.
func (c *Coordinator) tryStartFinal() {
	if c.final.pending == nil || c.final.running {
		return
	}
	if !c.chunkQueueIdle() {
		return
	}

	req := c.final.pending
	c.final.pending = nil

	input := c.mergeFinalInput(req)
	c.final.running = true
	c.final.runningSessionDir = req.sessionDir

	out := filepath.Join(req.sessionDir, "summary.txt")
	cmd := protocol.Summarize(input, out, c.cfg.Workers.Summarizer.ChunkWords, &protocol.Context{
		Type:       protocol.ContextFinal,
		SessionDir: req.sessionDir,
	})
	if !c.summarizer.Send(cmd) {
		c.logger.Error(c.ctx, "final summary dispatch failed for %s", req.sessionDir)
		c.final.running = false
		c.final.runningSessionDir = ""
		if c.registry.IsActive(req.sessionDir) {
			c.notifier.SummaryStatus(StateError, "summarizer is not accepting requests")
			c.setPhase(PhaseError)
		}
		return
	}

	if c.registry.IsActive(req.sessionDir) {
		c.setPhase(PhaseSummarizing)
		c.notifier.SummaryStatus(StateWorking, "generating summary")
	}
}

// mergeFinalInput builds the final request text: chunk summaries in
// ascending id order (completions arrive out of order, so the map's
// insertion order means nothing) under a labeled section, followed by
// the leftover transcript past the captured cursor. With no chunk
// summaries the full original text goes through verbatim.
func (c *Coordinator) mergeFinalInput(req *pendingFinal) string {
	ids := make([]int, 0, len(c.chunks.summaries))
	for id := range c.chunks.summaries {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	leftover := strings.TrimSpace(c.buffer.LeftoverFrom(req.cursor))

	if len(ids) == 0 {
		return req.fullText
	}

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, c.chunks.summaries[id])
	}

	merged := chunkSummariesHeader + "\n" + strings.Join(parts, "\n\n")
	if leftover != "" {
		merged += "\n\n" + leftoverHeader + "\n" + leftover
	}
	return merged
}

func (c *Coordinator) handleFinalDone(ev protocol.Event) {
	sessionDir := c.final.runningSessionDir
	c.final.running = false
	c.final.runningSessionDir = ""

	// A stop issued while this final was running queued another
	// request; let it through now.
	c.tryStartFinal()

	if !c.registry.IsActive(sessionDir) {
		c.logger.Info(c.ctx, "final summary for superseded session %s completed, suppressed", sessionDir)
		return
	}

	summary := strings.TrimSpace(ev.Text)
	c.writeSummaryDocx(sessionDir, summary)

	c.setPhase(PhaseDone)
	c.notifier.SummaryReady(summary)
	c.notifier.SummaryStatus(StateDone, "summary ready")
}

// writeSummaryDocx renders the session's docx artifact off the mailbox
// goroutine. The docx is a convenience copy; failure never fails the
// session.
func (c *Coordinator) writeSummaryDocx(sessionDir, summary string) {
	if summary == "" {
		return
	}
	out := (&session.Session{Dir: sessionDir}).SummaryDocxPath()
	go func() {
		if err := export.SummaryToDocx("Session Summary", summary, out); err != nil {
			c.logger.Warn(context.Background(), "write summary docx: %v", err)
		}
	}()
}

func (c *Coordinator) handleFinalError(ev protocol.Event) {
	sessionDir := c.final.runningSessionDir
	c.final.running = false
	c.final.runningSessionDir = ""

	c.tryStartFinal()

	if !c.registry.IsActive(sessionDir) {
		return
	}

	c.setPhase(PhaseError)
	c.notifier.SummaryStatus(StateError, ev.ErrorMessage())
}
