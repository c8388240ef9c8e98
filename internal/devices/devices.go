package devices

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/scribe-flow/internal/config"
	"github.com/nguyentantai21042004/scribe-flow/internal/logger"
	"github.com/nguyentantai21042004/scribe-flow/pkg/executor"
)

type implLister struct {
	cfg      *config.Config
	executor executor.Executor
	logger   logger.Logger
}

// New creates a Lister that shells out to the device probe script
func New(cfg *config.Config, exec executor.Executor, log logger.Logger) Lister {
	return &implLister{
		cfg:      cfg,
		executor: exec,
		logger:   log,
	}
}

// List runs the probe script and returns the devices it reports.
func (l *implLister) List(ctx context.Context) ([]Device, error) {
	script := filepath.Join(l.cfg.Workers.ScriptsDir, "devices.py")

	output, err := l.executor.Execute(ctx, l.cfg.Workers.Python, script)
	if err != nil {
		return nil, fmt.Errorf("run device probe: %w", err)
	}

	return parseDeviceList(output)
}

// parseDeviceList extracts the device array from the probe's stdout.
// The probe prints a single JSON object, but may be preceded by
// library warnings, so only the last JSON-looking line is parsed.
func parseDeviceList(output string) ([]Device, error) {
	var payload struct {
		Devices []Device `json:"devices"`
		Error   string   `json:"error"`
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") {
			continue
		}
		if err := json.Unmarshal([]byte(line), &payload); err != nil {
			return nil, fmt.Errorf("parse device list: %w", err)
		}
		if payload.Error != "" {
			return nil, fmt.Errorf("device probe: %s", payload.Error)
		}
		return payload.Devices, nil
	}

	return nil, fmt.Errorf("device probe produced no JSON output")
}
