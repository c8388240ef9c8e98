package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/nguyentantai21042004/scribe-flow/internal/logger"
	"github.com/nguyentantai21042004/scribe-flow/internal/protocol"
)

// Stdout lines can carry a full cumulative transcript, so the scanner
// needs far more headroom than the bufio default.
const maxLineBytes = 4 * 1024 * 1024

type implHandle struct {
	role    string
	logger  logger.Logger
	onEvent EventFunc
	onExit  ExitFunc

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
	alive bool
	model string
	gen   int // spawn generation; guards exit/kill callbacks racing a respawn
}

func (h *implHandle) EnsureRunning(ctx context.Context, spec Spec) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.alive {
		if spec.Model == h.model {
			return nil
		}
		if spec.Reload != nil {
			if !h.sendLocked(spec.Reload(spec.Model)) {
				return fmt.Errorf("%s: reload command failed", h.role)
			}
			h.model = spec.Model
			return nil
		}
		h.logger.Info(ctx, "[%s] model changed %q -> %q, restarting worker", h.role, h.model, spec.Model)
		h.killLocked()
	}

	return h.spawnLocked(ctx, spec)
}

func (h *implHandle) spawnLocked(ctx context.Context, spec Spec) error {
	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%s: stdin pipe: %w", h.role, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%s: stdout pipe: %w", h.role, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%s: stderr pipe: %w", h.role, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: start worker: %w", h.role, err)
	}

	h.cmd = cmd
	h.stdin = stdin
	h.alive = true
	h.model = spec.Model
	h.gen++
	gen := h.gen

	h.logger.Info(ctx, "[%s] worker started (pid %d, model %q)", h.role, cmd.Process.Pid, spec.Model)

	go h.readEvents(stdout)
	go h.drainStderr(stderr)
	go h.wait(cmd, gen)

	return nil
}

// readEvents delivers one callback per complete stdout line, in
// arrival order. bufio handles partial lines across read boundaries;
// lines that are not protocol JSON are diagnostics, logged and
// otherwise ignored.
func (h *implHandle) readEvents(r io.Reader) {
	scanLines(r, h.onEvent, func(line string) {
		h.logger.Debug(context.Background(), "[%s] %s", h.role, line)
	})
}

func (h *implHandle) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		h.logger.Debug(context.Background(), "[%s/stderr] %s", h.role, scanner.Text())
	}
}

func (h *implHandle) wait(cmd *exec.Cmd, gen int) {
	err := cmd.Wait()

	h.mu.Lock()
	stale := gen != h.gen
	if !stale {
		h.alive = false
		h.stdin = nil
	}
	h.mu.Unlock()

	if stale {
		return
	}

	h.logger.Warn(context.Background(), "[%s] worker exited: %v", h.role, err)
	h.onExit(err)
}

func (h *implHandle) Send(cmd protocol.Command) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sendLocked(cmd)
}

func (h *implHandle) sendLocked(cmd protocol.Command) bool {
	if !h.alive || h.stdin == nil {
		return false
	}
	line, err := protocol.Encode(cmd)
	if err != nil {
		h.logger.Error(context.Background(), "[%s] encode %q command: %v", h.role, cmd.Cmd, err)
		return false
	}
	if _, err := h.stdin.Write(line); err != nil {
		h.logger.Warn(context.Background(), "[%s] write %q command: %v", h.role, cmd.Cmd, err)
		return false
	}
	return true
}

func (h *implHandle) Alive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.alive
}

func (h *implHandle) Terminate() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.alive {
		return
	}

	h.sendLocked(protocol.Shutdown())
	if h.stdin != nil {
		h.stdin.Close()
	}

	// The worker gets a grace period to flush and exit; after that the
	// process is killed. The alive flag flips only in wait().
	cmd := h.cmd
	gen := h.gen
	time.AfterFunc(3*time.Second, func() {
		h.mu.Lock()
		expired := h.alive && gen == h.gen
		h.mu.Unlock()
		if expired && cmd.Process != nil {
			cmd.Process.Kill()
		}
	})
}

func (h *implHandle) killLocked() {
	if h.cmd != nil && h.cmd.Process != nil {
		h.cmd.Process.Kill()
	}
	h.alive = false
	h.stdin = nil
}

// scanLines parses a worker's stdout stream line by line.
func scanLines(r io.Reader, onEvent EventFunc, onDiagnostic func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if ev, ok := protocol.Parse(line); ok {
			onEvent(ev)
		} else if len(line) > 0 {
			onDiagnostic(string(line))
		}
	}
}
