package coordinator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/scribe-flow/internal/protocol"
)

func TestFollowUpSendsCorrelatedCommand(t *testing.T) {
	c, _, sum, _ := newTestCoordinator(t)

	c.handleGenerateFollowUp("req-1", "session summary", "Alex", "keep it short")

	cmds := sum.commands("followup_email")
	require.Len(t, cmds, 1)
	assert.Equal(t, "req-1", cmds[0].ID)
	assert.Equal(t, "session summary", cmds[0].Summary)
	assert.Equal(t, "Alex", cmds[0].StudentName)
	require.NotNil(t, cmds[0].Temperature)
	assert.InDelta(t, 0.7, *cmds[0].Temperature, 1e-9)
	assert.Equal(t, 320, cmds[0].MaxTokens)
	assert.Contains(t, c.followups, "req-1")
}

func TestFollowUpDoneResolvesOnce(t *testing.T) {
	c, _, _, n := newTestCoordinator(t)

	c.handleGenerateFollowUp("req-1", "summary", "", "")

	done := protocol.Event{Event: protocol.EventFollowupDone, ID: "req-1", Text: "Subject: hi"}
	c.routeSummarizerEvent(done)
	c.routeSummarizerEvent(done) // duplicate delivery is a no-op

	ready := n.of("followup-ready")
	require.Len(t, ready, 1)
	assert.Equal(t, "Subject: hi", ready[0].b)
	assert.Empty(t, c.followups)
}

func TestFollowUpErrorResolves(t *testing.T) {
	c, _, _, n := newTestCoordinator(t)

	c.handleGenerateFollowUp("req-1", "summary", "", "")
	c.routeSummarizerEvent(protocol.Event{Event: protocol.EventFollowupError, ID: "req-1", Msg: "model not loaded"})

	failed := n.of("followup-error")
	require.Len(t, failed, 1)
	assert.Equal(t, "model not loaded", failed[0].b)
	assert.Empty(t, c.followups)
}

func TestFollowUpTimeoutResolvesExactlyOnce(t *testing.T) {
	c, _, _, n := newTestCoordinator(t)
	// Timeout configured to 1s by the test fixture.

	c.handleGenerateFollowUp("req-1", "summary", "", "")

	require.Eventually(t, func() bool {
		drainTasks(c)
		return len(n.of("followup-error")) == 1
	}, 3*time.Second, 20*time.Millisecond)

	assert.Empty(t, c.followups)

	// A late real response after the timeout is a no-op.
	c.routeSummarizerEvent(protocol.Event{Event: protocol.EventFollowupDone, ID: "req-1", Text: "too late"})
	assert.Empty(t, n.of("followup-ready"))
	assert.Len(t, n.of("followup-error"), 1)
}

func TestFollowUpSendFailureFailsImmediately(t *testing.T) {
	c, _, sum, n := newTestCoordinator(t)
	sum.setFailSend(true)

	c.handleGenerateFollowUp("req-1", "summary", "", "")

	failed := n.of("followup-error")
	require.Len(t, failed, 1)
	assert.Empty(t, c.followups, "no dangling correlation entry")
}

func TestFollowUpWithoutModelFails(t *testing.T) {
	c, _, sum, n := newTestCoordinator(t)
	c.cfg.Workers.Summarizer.ModelPath = ""

	c.handleGenerateFollowUp("req-1", "summary", "", "")

	require.Len(t, n.of("followup-error"), 1)
	assert.Empty(t, sum.commands("followup_email"))
}

func TestGenerateFollowUpReturnsUniqueIDs(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t)
	_ = c

	a := newFollowUpID()
	b := newFollowUpID()
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a)
}
