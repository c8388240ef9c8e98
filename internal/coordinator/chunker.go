package coordinator

import (
	"strings"

	"github.com/nguyentantai21042004/scribe-flow/internal/protocol"
	"github.com/nguyentantai21042004/scribe-flow/internal/transcript"
)

// chunkTask is one unit of incremental summarization work.
type chunkTask struct {
	id         int
	text       string
	sessionDir string
}

// chunkState is the chunk scheduler: it batches unconsumed transcript
// text into summarization requests and serializes them through the
// summarizer one at a time. Ids are assigned at creation and strictly
// increase within a session; completions are matched by id, never by
// arrival order.
type chunkState struct {
	enabled    bool
	sessionDir string
	nextID     int
	queue      []chunkTask
	processing bool
	inFlight   chunkTask
	summaries  map[int]string
}

// onTranscriptGrowth creates a chunk task once the unconsumed text
// crosses the word threshold. The task takes the entire unconsumed
// slice, not just the threshold-sized head, so no tiny fragment is
// left behind for the next crossing.
func (c *Coordinator) onTranscriptGrowth(unconsumed string) {
	if !c.chunks.enabled {
		return
	}
	if transcript.WordCount(unconsumed) < c.cfg.Chunking.ThresholdWords {
		// Below threshold, but a task requeued by an earlier send
		// failure may still be waiting for a retry.
		c.dispatchNextChunk()
		return
	}

	text := strings.TrimSpace(unconsumed)
	if text == "" {
		return
	}

	task := chunkTask{
		id:         c.chunks.nextID,
		text:       text,
		sessionDir: c.chunks.sessionDir,
	}
	c.chunks.nextID++
	c.buffer.ConsumeTo(c.buffer.Len())

	c.chunks.queue = append(c.chunks.queue, task)
	c.logger.Debug(c.ctx, "chunk %d queued (%d words)", task.id, transcript.WordCount(task.text))
	c.dispatchNextChunk()
}

// dispatchNextChunk starts the next queued task if nothing is in
// flight. On a send failure the task goes back to the front of the
// queue, and the final coordinator gets a nudge in case it was waiting
// on an empty queue.
func (c *Coordinator) dispatchNextChunk() {
	if c.chunks.processing || len(c.chunks.queue) == 0 {
		return
	}

	task := c.chunks.queue[0]
	c.chunks.queue = c.chunks.queue[1:]
	c.chunks.processing = true
	c.chunks.inFlight = task

	cmd := protocol.Summarize(task.text, "", c.cfg.Workers.Summarizer.ChunkWords, &protocol.Context{
		Type:       protocol.ContextChunk,
		SessionDir: task.sessionDir,
		ChunkID:    task.id,
	})
	if !c.summarizer.Send(cmd) {
		c.logger.Warn(c.ctx, "chunk %d dispatch failed, requeued", task.id)
		c.chunks.queue = append([]chunkTask{task}, c.chunks.queue...)
		c.chunks.processing = false
		c.tryStartFinal()
		return
	}
	c.logger.Debug(c.ctx, "chunk %d dispatched", task.id)
}

// handleChunkDone records a successful chunk summary. An empty summary
// contributes nothing but still unblocks the queue. Only the in-flight
// task's result counts; a duplicate or stray completion must not free
// the dispatch slot while the real request is still out.
func (c *Coordinator) handleChunkDone(ev protocol.Event) {
	id := ev.Context.ChunkID
	if !c.chunks.processing || id != c.chunks.inFlight.id {
		c.logger.Debug(c.ctx, "chunk %d result ignored, not in flight", id)
		return
	}
	summary := strings.TrimSpace(ev.Text)
	if summary != "" {
		c.chunks.summaries[id] = summary
	}
	c.logger.Debug(c.ctx, "chunk %d done (%d summaries so far)", id, len(c.chunks.summaries))

	c.chunks.processing = false
	c.dispatchNextChunk()
	c.tryStartFinal()
}

// handleChunkError drops the chunk's contribution. A missing chunk
// summary degrades the final summary but never fails the session.
func (c *Coordinator) handleChunkError(ev protocol.Event) {
	if !c.chunks.processing || ev.Context.ChunkID != c.chunks.inFlight.id {
		c.logger.Debug(c.ctx, "chunk %d error ignored, not in flight", ev.Context.ChunkID)
		return
	}
	c.logger.Warn(c.ctx, "chunk %d summarization failed: %s", ev.Context.ChunkID, ev.ErrorMessage())

	c.chunks.processing = false
	c.dispatchNextChunk()
	c.tryStartFinal()
}

// chunkQueueIdle reports whether every created chunk task has resolved.
func (c *Coordinator) chunkQueueIdle() bool {
	return !c.chunks.processing && len(c.chunks.queue) == 0
}
