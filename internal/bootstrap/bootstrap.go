package bootstrap

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/nguyentantai21042004/scribe-flow/internal/coordinator"
	"github.com/nguyentantai21042004/scribe-flow/internal/protocol"
)

const maxLineBytes = 1024 * 1024

// Run executes the setup script once and forwards its progress to the
// notifier. The script checks python dependencies and downloads the
// whisper model. A nil return means the environment is ready.
func (b *implBootstrap) Run(ctx context.Context) error {
	script := filepath.Join(b.cfg.Workers.ScriptsDir, "setup.py")

	args := []string{
		script,
		"--whisper-model", b.cfg.Workers.Transcriber.Model,
	}
	if b.cfg.Paths.Models != "" {
		args = append(args, "--whisper-dir", b.cfg.Paths.Models)
	}

	b.logger.Info(ctx, "Running environment setup: %s %v", b.cfg.Workers.Python, args)
	b.notifier.BootstrapStatus(coordinator.StateWorking, "checking environment", 5)

	cmd := exec.CommandContext(ctx, b.cfg.Workers.Python, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		b.notifier.BootstrapStatus(coordinator.StateError, err.Error(), 0)
		return fmt.Errorf("start setup script: %w", err)
	}

	percent := 5
	var setupErr error

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		ev, ok := protocol.Parse(line)
		if !ok {
			b.logger.Debug(ctx, "[setup] %s", string(line))
			continue
		}

		switch ev.Event {
		case protocol.EventStatus:
			// Ramp toward 90; the script gives no real progress figure.
			if percent < 90 {
				percent += 20
				if percent > 90 {
					percent = 90
				}
			}
			b.logger.Info(ctx, "Setup: %s", ev.Message)
			b.notifier.BootstrapStatus(coordinator.StateWorking, ev.Message, percent)
		case protocol.EventError:
			setupErr = fmt.Errorf("setup failed: %s", ev.ErrorMessage())
			b.logger.Error(ctx, "Setup error: %s", ev.ErrorMessage())
			b.notifier.BootstrapStatus(coordinator.StateError, ev.ErrorMessage(), percent)
		case protocol.EventDone:
			percent = 100
			b.logger.Info(ctx, "Setup complete")
			b.notifier.BootstrapStatus(coordinator.StateDone, ev.Message, 100)
		}
	}

	waitErr := cmd.Wait()
	if setupErr != nil {
		return setupErr
	}
	if waitErr != nil {
		b.notifier.BootstrapStatus(coordinator.StateError, waitErr.Error(), percent)
		return fmt.Errorf("setup script: %w", waitErr)
	}
	if percent != 100 {
		return fmt.Errorf("setup script exited without completing")
	}
	return nil
}
