package server

import (
	"github.com/nguyentantai21042004/scribe-flow/internal/coordinator"
)

// Controller is the command surface the UI drives. The coordinator
// satisfies it.
type Controller interface {
	Start(opts coordinator.StartOptions)
	Stop()
	Pause()
	Resume()
	GenerateFollowUp(summary, studentName, instructions string) string
}
