package ingest

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/scribe-flow/internal/config"
	"github.com/nguyentantai21042004/scribe-flow/internal/logger"
	"github.com/nguyentantai21042004/scribe-flow/internal/summarizer"
	"github.com/nguyentantai21042004/scribe-flow/pkg/executor"
)

// NewWatcher creates a Watcher instance with concurrency control
func NewWatcher(inputDir string, handler Handler, log logger.Logger, maxConcurrent int) (Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(inputDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	return &implWatcher{
		inputDir:      inputDir,
		handler:       handler,
		logger:        log,
		watcher:       watcher,
		maxConcurrent: maxConcurrent,
		semaphore:     make(chan struct{}, maxConcurrent),
	}, nil
}

// NewPipeline creates a Pipeline instance
func NewPipeline(cfg *config.Config, exec executor.Executor, summ summarizer.Summarizer, log logger.Logger) Pipeline {
	return &implPipeline{
		cfg:        cfg,
		executor:   exec,
		summarizer: summ,
		logger:     log,
	}
}
