package coordinator

import (
	"time"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/scribe-flow/internal/protocol"
)

// pendingFollowUp is one ad hoc request correlated by id rather than
// session, with an explicit expiry so the UI can never wait forever.
type pendingFollowUp struct {
	id    string
	timer *time.Timer
}

func newFollowUpID() string {
	return uuid.NewString()
}

func (c *Coordinator) handleGenerateFollowUp(id, summary, studentName, instructions string) {
	if c.cfg.Workers.Summarizer.ModelPath == "" {
		c.notifier.FollowUpFailed(id, "summarization model path is not configured")
		return
	}
	if err := c.summarizer.EnsureRunning(c.ctx, c.summarizerSpec(c.cfg.Workers.Summarizer.ModelPath)); err != nil {
		c.notifier.FollowUpFailed(id, "summarizer unavailable: "+err.Error())
		return
	}

	temp := c.cfg.FollowUp.Temperature
	if !c.summarizer.Send(protocol.FollowUpEmail(id, summary, studentName, instructions, &temp, c.cfg.FollowUp.MaxTokens)) {
		c.notifier.FollowUpFailed(id, "summarizer is not accepting requests")
		return
	}

	timeout := time.Duration(c.cfg.FollowUp.TimeoutSecs) * time.Second
	entry := &pendingFollowUp{id: id}
	entry.timer = time.AfterFunc(timeout, func() {
		c.post(func() { c.expireFollowUp(id) })
	})
	c.followups[id] = entry
}

// resolveFollowUp removes the correlation entry exactly once. Returns
// false when the id already resolved or timed out, in which case a
// late worker response is a no-op.
func (c *Coordinator) resolveFollowUp(id string) bool {
	entry, ok := c.followups[id]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(c.followups, id)
	return true
}

func (c *Coordinator) handleFollowupDone(ev protocol.Event) {
	if !c.resolveFollowUp(ev.ID) {
		c.logger.Debug(c.ctx, "late follow-up response %s ignored", ev.ID)
		return
	}
	c.notifier.FollowUpReady(ev.ID, ev.Text)
}

func (c *Coordinator) handleFollowupError(ev protocol.Event) {
	if !c.resolveFollowUp(ev.ID) {
		return
	}
	c.notifier.FollowUpFailed(ev.ID, ev.ErrorMessage())
}

func (c *Coordinator) expireFollowUp(id string) {
	if !c.resolveFollowUp(id) {
		return
	}
	c.logger.Warn(c.ctx, "follow-up request %s timed out", id)
	c.notifier.FollowUpFailed(id, "request timed out")
}

// failAllFollowUps resolves every pending follow-up with a failure.
// Called when the summarizer process exits so nothing stays pending
// against a dead worker.
func (c *Coordinator) failAllFollowUps(reason string) {
	for id := range c.followups {
		if c.resolveFollowUp(id) {
			c.notifier.FollowUpFailed(id, reason)
		}
	}
}
