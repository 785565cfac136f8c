package window

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNoWindow is returned when no focused window could be found.
var ErrNoWindow = errors.New("no focused window")

// WindowInfo represents information about the currently focused window
type WindowInfo struct {
	AppName       string
	WindowTitle   string
	ProcessName   string
	PID           int
	DisplayServer string // "x11", "wayland" or "process"
}

// Inspector is the interface that every window inspection backend satisfies
type Inspector interface {
	// Probe returns the currently focused window
	Probe(ctx context.Context) (*WindowInfo, error)

	// IsAvailable checks if this inspector can run on the current system
	IsAvailable() bool

	// Name identifies the backend in logs and status output
	Name() string

	// Close releases connections held by the inspector
	Close() error
}
