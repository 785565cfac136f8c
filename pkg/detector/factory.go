// Package detector assembles the window inspector chain and idle sources
// appropriate for the running session.
package detector

import (
	"os"
	"time"

	"github.com/adolfousier/neura-hustle-tracker-sub000/pkg/activity"
	"github.com/adolfousier/neura-hustle-tracker-sub000/pkg/integrations/hybrid"
	"github.com/adolfousier/neura-hustle-tracker-sub000/pkg/integrations/process"
	"github.com/adolfousier/neura-hustle-tracker-sub000/pkg/integrations/wayland"
	"github.com/adolfousier/neura-hustle-tracker-sub000/pkg/integrations/x11"
	"github.com/adolfousier/neura-hustle-tracker-sub000/pkg/window"
)

// Detector bundles what the tracker needs to observe the desktop.
type Detector struct {
	Inspector     *hybrid.Chain
	Monitor       *activity.Monitor
	DisplayServer string
}

// New builds the inspector chain and an input monitor polling at
// inputPoll.
func New(inputPoll time.Duration) (*Detector, error) {
	displayServer := DetectDisplayServer()
	inspectors, idle := plan(displayServer)

	chain, err := hybrid.NewChain(inspectors...)
	if err != nil {
		return nil, err
	}

	return &Detector{
		Inspector:     chain,
		Monitor:       activity.NewMonitor(idle, inputPoll),
		DisplayServer: displayServer,
	}, nil
}

// Close releases inspector connections.
func (d *Detector) Close() error {
	return d.Inspector.Close()
}

// plan returns the inspectors in fallback order and the idle sources for a
// display server. XWayland lets the X11 inspector see legacy windows under
// Wayland too.
func plan(displayServer string) ([]window.Inspector, activity.Fallback) {
	xi := x11.NewInspector()
	pi := process.NewInspector()

	switch displayServer {
	case "wayland":
		wi := wayland.NewInspector()
		idle := activity.Fallback{}
		if wi.Compositor() == wayland.Gnome {
			idle = append(idle, wayland.NewMutterIdle())
		}
		idle = append(idle, xi)
		return []window.Inspector{wi, xi, pi}, idle
	case "x11":
		return []window.Inspector{xi, pi}, activity.Fallback{xi}
	default:
		return []window.Inspector{pi}, activity.Fallback{}
	}
}

// DetectDisplayServer reports "wayland", "x11" or "unknown" from the session
// environment.
func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
