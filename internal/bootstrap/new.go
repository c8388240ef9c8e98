package bootstrap

import (
	"github.com/nguyentantai21042004/scribe-flow/internal/config"
	"github.com/nguyentantai21042004/scribe-flow/internal/coordinator"
	"github.com/nguyentantai21042004/scribe-flow/internal/logger"
)

type implBootstrap struct {
	cfg      *config.Config
	logger   logger.Logger
	notifier coordinator.Notifier
}

// New creates a Bootstrap instance
func New(cfg *config.Config, log logger.Logger, notifier coordinator.Notifier) Bootstrap {
	if notifier == nil {
		notifier = coordinator.NopNotifier{}
	}
	return &implBootstrap{
		cfg:      cfg,
		logger:   log,
		notifier: notifier,
	}
}
