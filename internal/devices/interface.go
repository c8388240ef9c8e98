package devices

import "context"

// Device describes one audio endpoint reported by the probe script.
// Field names follow the script's JSON output so the UI can use the
// payload directly.
type Device struct {
	Index             int    `json:"index"`
	Name              string `json:"name"`
	MaxInputChannels  int    `json:"maxInputChannels"`
	MaxOutputChannels int    `json:"maxOutputChannels"`
	IsLoopback        bool   `json:"isLoopback"`
}

// Lister defines the interface for enumerating capture devices
type Lister interface {
	List(ctx context.Context) ([]Device, error)
}
