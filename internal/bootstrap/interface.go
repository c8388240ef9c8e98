package bootstrap

import "context"

// Bootstrap defines the interface for the one-time environment check
// that runs before any recording session may start.
type Bootstrap interface {
	Run(ctx context.Context) error
}
