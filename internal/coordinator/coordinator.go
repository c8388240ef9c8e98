package coordinator

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/nguyentantai21042004/scribe-flow/internal/config"
	"github.com/nguyentantai21042004/scribe-flow/internal/logger"
	"github.com/nguyentantai21042004/scribe-flow/internal/protocol"
	"github.com/nguyentantai21042004/scribe-flow/internal/session"
	"github.com/nguyentantai21042004/scribe-flow/internal/transcript"
	"github.com/nguyentantai21042004/scribe-flow/internal/worker"
)

// Coordinator is the orchestration core: it owns the session registry,
// the transcript buffer, the chunk scheduler, the final-summary state
// and the follow-up correlation table, and drives the recorder and
// summarizer workers.
//
// All state lives behind a single mailbox goroutine (Run). Public
// methods and worker callbacks post closures into the mailbox, so
// handlers never run concurrently and the state needs no locks.
type Coordinator struct {
	cfg      *config.Config
	logger   logger.Logger
	notifier Notifier
	registry *session.Registry

	recorder   worker.Handle
	summarizer worker.Handle

	tasks chan func()

	// Everything below is owned by the mailbox goroutine.
	ctx       context.Context
	ready     bool
	phase     Phase
	buffer    transcript.Buffer
	chunks    chunkState
	final     finalState
	followups map[string]*pendingFollowUp
}

// StartOptions carries the optional per-session overrides of the UI's
// start command.
type StartOptions struct {
	DeviceIndex *int
	Model       string
}

func New(cfg *config.Config, log logger.Logger, notifier Notifier, registry *session.Registry) *Coordinator {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	c := &Coordinator{
		cfg:       cfg,
		logger:    log,
		notifier:  notifier,
		registry:  registry,
		tasks:     make(chan func(), 256),
		followups: make(map[string]*pendingFollowUp),
	}
	c.chunks.summaries = make(map[int]string)
	c.recorder = worker.New("recorder", log,
		func(ev protocol.Event) { c.post(func() { c.routeRecorderEvent(ev) }) },
		func(err error) { c.post(func() { c.onRecorderExit(err) }) },
	)
	c.summarizer = worker.New("summarizer", log,
		func(ev protocol.Event) { c.post(func() { c.routeSummarizerEvent(ev) }) },
		func(err error) { c.post(func() { c.onSummarizerExit(err) }) },
	)
	return c
}

// Run processes the mailbox until ctx is cancelled. It must be running
// before any command is issued.
func (c *Coordinator) Run(ctx context.Context) {
	c.ctx = ctx
	for {
		select {
		case <-ctx.Done():
			c.recorder.Terminate()
			c.summarizer.Terminate()
			return
		case task := <-c.tasks:
			task()
		}
	}
}

func (c *Coordinator) post(task func()) {
	c.tasks <- task
}

// MarkReady unlocks recording after bootstrap completes.
func (c *Coordinator) MarkReady() {
	c.post(func() { c.ready = true })
}

// Start begins a new session, superseding any previous one.
func (c *Coordinator) Start(opts StartOptions) {
	c.post(func() { c.handleStart(opts) })
}

// Stop ends the active session's capture and kicks off the drain plus
// final summarization sequence.
func (c *Coordinator) Stop() {
	c.post(func() { c.handleStop() })
}

func (c *Coordinator) Pause() {
	c.post(func() { c.handlePause() })
}

func (c *Coordinator) Resume() {
	c.post(func() { c.handleResume() })
}

// GenerateFollowUp issues an ad hoc correlated request against the
// summarizer. The result arrives as a FollowUpReady/FollowUpFailed
// notification carrying the returned id.
func (c *Coordinator) GenerateFollowUp(summary, studentName, instructions string) string {
	id := newFollowUpID()
	c.post(func() { c.handleGenerateFollowUp(id, summary, studentName, instructions) })
	return id
}

func (c *Coordinator) handleStart(opts StartOptions) {
	if !c.ready {
		c.notifier.TranscriptionStatus(StateError, "setup has not completed yet")
		return
	}

	model := opts.Model
	if model == "" {
		model = c.cfg.Workers.Recorder.Model
	}

	// The summarizer model is required for the whole pipeline; refuse
	// to start rather than record a session that can never summarize.
	if c.cfg.Workers.Summarizer.ModelPath == "" {
		c.notifier.SummaryStatus(StateError, "summarization model path is not configured")
		return
	}

	sess, err := c.registry.Begin()
	if err != nil {
		c.notifier.TranscriptionStatus(StateError, fmt.Sprintf("create session: %v", err))
		return
	}

	c.resetSessionState(sess.Dir)
	c.setPhase(PhaseStarting)

	if err := c.recorder.EnsureRunning(c.ctx, c.recorderSpec(model)); err != nil {
		c.logger.Error(c.ctx, "recorder spawn failed: %v", err)
		c.notifier.TranscriptionStatus(StateError, fmt.Sprintf("start recorder: %v", err))
		c.setPhase(PhaseError)
		return
	}
	if err := c.summarizer.EnsureRunning(c.ctx, c.summarizerSpec(c.cfg.Workers.Summarizer.ModelPath)); err != nil {
		c.logger.Error(c.ctx, "summarizer spawn failed: %v", err)
		c.notifier.SummaryStatus(StateError, fmt.Sprintf("start summarizer: %v", err))
		// Recording still works without the summarizer; chunk sends
		// will requeue until it comes back.
	}

	deviceIndex := c.cfg.Workers.Recorder.DeviceIndex
	if opts.DeviceIndex != nil {
		deviceIndex = *opts.DeviceIndex
	}

	start := protocol.StartRecording(sess.AudioPath(), sess.TranscriptPath(), deviceIndex)
	if !c.recorder.Send(start) {
		c.notifier.TranscriptionStatus(StateError, "recorder is not accepting commands")
		c.setPhase(PhaseError)
		return
	}

	c.notifier.SessionStarted(sess.Dir)
	c.notifier.TranscriptionStatus(StateStarting, "starting recording")
}

func (c *Coordinator) handleStop() {
	sess := c.registry.Current()
	if sess == nil || !c.phase.Recording() {
		c.logger.Debug(c.ctx, "stop ignored, no recording in progress")
		return
	}

	// Chunking stops immediately so no new chunk task races the drain.
	// A stop that beats the recorder's ready event is still forwarded;
	// the recorder answers with an error we surface as status.
	c.chunks.enabled = false
	c.setPhase(PhaseStopping)

	if !c.recorder.Send(protocol.StopRecording()) {
		c.notifier.TranscriptionStatus(StateError, "recorder is not accepting commands")
		c.setPhase(PhaseError)
		return
	}
	c.notifier.TranscriptionStatus(StateWorking, "finishing transcription")
}

func (c *Coordinator) handlePause() {
	if c.phase != PhaseRecording {
		return
	}
	if c.recorder.Send(protocol.PauseRecording()) {
		c.setPhase(PhasePaused)
		c.notifier.TranscriptionStatus(StatePaused, "recording paused")
	}
}

func (c *Coordinator) handleResume() {
	if c.phase != PhasePaused {
		return
	}
	if c.recorder.Send(protocol.ResumeRecording()) {
		c.setPhase(PhaseRecording)
		c.notifier.TranscriptionStatus(StateRecording, "recording")
	}
}

// resetSessionState clears everything scoped to the superseded session.
// A final summary that is already running keeps its session tag so its
// late result can still be routed (and suppressed from the UI); a final
// that never started is dropped, because the chunk state it would merge
// has just been discarded.
func (c *Coordinator) resetSessionState(sessionDir string) {
	c.buffer.Reset()
	c.chunks = chunkState{
		enabled:    true,
		sessionDir: sessionDir,
		summaries:  make(map[int]string),
	}
	c.final.pending = nil
}

func (c *Coordinator) recorderSpec(model string) worker.Spec {
	args := []string{
		filepath.Join(c.cfg.Workers.ScriptsDir, "record_and_transcribe.py"),
		"--model", model,
	}
	var env []string
	if c.cfg.Paths.Models != "" {
		env = append(env, "WHISPER_ROOT="+c.cfg.Paths.Models)
	}
	return worker.Spec{
		Role:    "recorder",
		Command: c.cfg.Workers.Python,
		Args:    args,
		Env:     env,
		Model:   model,
		// The recorder takes its model as a CLI flag only, so a model
		// change means a respawn.
	}
}

func (c *Coordinator) summarizerSpec(modelPath string) worker.Spec {
	s := c.cfg.Workers.Summarizer
	args := []string{
		filepath.Join(c.cfg.Workers.ScriptsDir, "summarizer_daemon.py"),
		"--model-path", modelPath,
		"--n-ctx", strconv.Itoa(s.ContextLen),
		"--min-words", strconv.Itoa(s.MinWords),
	}
	return worker.Spec{
		Role:    "summarizer",
		Command: c.cfg.Workers.Python,
		Args:    args,
		Model:   modelPath,
		Reload:  protocol.LoadSummarizerModel,
	}
}
