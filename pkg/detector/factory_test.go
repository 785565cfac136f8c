package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDisplayServer(t *testing.T) {
	tests := []struct {
		name           string
		sessionType    string
		waylandDisplay string
		x11Display     string
		expected       string
	}{
		{"Wayland session", "wayland", "wayland-0", "", "wayland"},
		{"X11 session", "x11", "", ":0", "x11"},
		{"Unknown session", "", "", "", "unknown"},
		{"Wayland display set", "", "wayland-1", "", "wayland"},
		{"X11 display set", "", "", ":1", "x11"},
		{"XWayland present", "wayland", "wayland-0", ":0", "wayland"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_SESSION_TYPE", tt.sessionType)
			t.Setenv("WAYLAND_DISPLAY", tt.waylandDisplay)
			t.Setenv("DISPLAY", tt.x11Display)

			assert.Equal(t, tt.expected, DetectDisplayServer())
		})
	}
}

func names(t *testing.T, displayServer string) []string {
	t.Helper()
	inspectors, _ := plan(displayServer)
	var out []string
	for _, in := range inspectors {
		out = append(out, in.Name())
	}
	return out
}

func TestPlanOrder(t *testing.T) {
	t.Setenv("SWAYSOCK", "")
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "")
	t.Setenv("XDG_CURRENT_DESKTOP", "GNOME")

	assert.Equal(t, []string{"wayland/gnome", "x11", "process"}, names(t, "wayland"))
	assert.Equal(t, []string{"x11", "process"}, names(t, "x11"))
	assert.Equal(t, []string{"process"}, names(t, "unknown"))

	_, idle := plan("wayland")
	assert.Len(t, idle, 2)
	_, idle = plan("unknown")
	assert.Empty(t, idle)
}

func TestNewWithoutDisplay(t *testing.T) {
	t.Setenv("XDG_SESSION_TYPE", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	t.Setenv("DISPLAY", "")

	d, err := New(time.Second)
	if err != nil {
		t.Logf("New() returned error without /proc: %v", err)
		return
	}
	defer d.Close()

	require.NotNil(t, d.Monitor)
	assert.Equal(t, "unknown", d.DisplayServer)
	assert.Equal(t, "process", d.Inspector.Name())
}
