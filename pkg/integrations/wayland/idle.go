package wayland

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// MutterIdle reads the input idle time from GNOME's Mutter IdleMonitor.
type MutterIdle struct {
	run Runner
}

// NewMutterIdle creates an idle source backed by gdbus.
func NewMutterIdle() *MutterIdle {
	return &MutterIdle{run: execRunner}
}

// IdleTime returns time since the last user input.
func (m *MutterIdle) IdleTime(ctx context.Context) (time.Duration, error) {
	output, err := m.run(ctx, "gdbus", "call", "--session",
		"--dest", "org.gnome.Mutter.IdleMonitor",
		"--object-path", "/org/gnome/Mutter/IdleMonitor/Core",
		"--method", "org.gnome.Mutter.IdleMonitor.GetIdletime")
	if err != nil {
		return 0, errors.Wrap(err, "failed to query Mutter idle monitor")
	}

	ms, err := parseIdletime(string(output))
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// parseIdletime parses "(uint64 12345,)".
func parseIdletime(text string) (uint64, error) {
	text = strings.Trim(strings.TrimSpace(text), "(),")
	text = strings.TrimSpace(strings.TrimPrefix(text, "uint64"))
	ms, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "unexpected idle monitor reply %q", text)
	}
	return ms, nil
}
