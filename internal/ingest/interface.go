package ingest

import "context"

// Watcher defines the interface for drop-folder monitoring
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// Pipeline defines the interface for processing a dropped recording
type Pipeline interface {
	Process(ctx context.Context, audioPath string) error
}

// Handler is a function that handles a newly dropped file
type Handler func(ctx context.Context, filePath string) error
