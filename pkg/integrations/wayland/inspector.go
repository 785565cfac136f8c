// Package wayland queries Wayland compositors for the focused window through
// their IPC tools (swaymsg, hyprctl, gdbus, qdbus).
package wayland

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/adolfousier/neura-hustle-tracker-sub000/pkg/window"
)

// Compositor names.
const (
	Sway     = "sway"
	Hyprland = "hyprland"
	Gnome    = "gnome"
	KDE      = "kde"
	Unknown  = "unknown"
)

// Runner executes an external command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Inspector implements window.Inspector for Wayland sessions.
type Inspector struct {
	compositor string
	run        Runner
	lookPath   func(string) (string, error)
}

// NewInspector creates an inspector for the compositor found in the
// environment.
func NewInspector() *Inspector {
	return &Inspector{
		compositor: DetectCompositor(),
		run:        execRunner,
		lookPath:   exec.LookPath,
	}
}

// DetectCompositor identifies the running compositor from session variables.
func DetectCompositor() string {
	if os.Getenv("SWAYSOCK") != "" {
		return Sway
	}
	if os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") != "" {
		return Hyprland
	}

	desktop := strings.ToLower(os.Getenv("XDG_CURRENT_DESKTOP"))
	switch {
	case strings.Contains(desktop, "gnome"), strings.Contains(desktop, "ubuntu"):
		return Gnome
	case strings.Contains(desktop, "kde"):
		return KDE
	case strings.Contains(desktop, "sway"):
		return Sway
	case strings.Contains(desktop, "hyprland"):
		return Hyprland
	}
	return Unknown
}

// Compositor returns the compositor this inspector talks to.
func (i *Inspector) Compositor() string { return i.compositor }

// Name returns "wayland/<compositor>".
func (i *Inspector) Name() string { return "wayland/" + i.compositor }

func (i *Inspector) has(cmd string) bool {
	_, err := i.lookPath(cmd)
	return err == nil
}

// IsAvailable checks that the compositor's IPC tool is installed.
func (i *Inspector) IsAvailable() bool {
	switch i.compositor {
	case Sway:
		return i.has("swaymsg")
	case Hyprland:
		return i.has("hyprctl")
	case Gnome:
		return i.has("gdbus")
	case KDE:
		return i.has("qdbus")
	default:
		return false
	}
}

// Probe returns the focused window.
func (i *Inspector) Probe(ctx context.Context) (*window.WindowInfo, error) {
	var (
		info *window.WindowInfo
		err  error
	)

	switch i.compositor {
	case Sway:
		info, err = i.probeSway(ctx)
	case Hyprland:
		info, err = i.probeHyprland(ctx)
	case Gnome:
		info, err = i.probeGnome(ctx)
	case KDE:
		info, err = i.probeKDE(ctx)
	default:
		return nil, errors.Errorf("unsupported wayland compositor: %s", i.compositor)
	}
	if err != nil {
		return nil, err
	}

	info.DisplayServer = "wayland"
	return info, nil
}

// Close is a no-op; every query is a separate process.
func (i *Inspector) Close() error { return nil }

type swayNode struct {
	AppID            *string    `json:"app_id"`
	Name             *string    `json:"name"`
	PID              int        `json:"pid"`
	Focused          bool       `json:"focused"`
	Nodes            []swayNode `json:"nodes"`
	FloatingNodes    []swayNode `json:"floating_nodes"`
	WindowProperties *struct {
		Class    string `json:"class"`
		Instance string `json:"instance"`
	} `json:"window_properties"`
}

func (i *Inspector) probeSway(ctx context.Context) (*window.WindowInfo, error) {
	output, err := i.run(ctx, "swaymsg", "-t", "get_tree")
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute swaymsg")
	}
	return parseSwayTree(output)
}

func parseSwayTree(data []byte) (*window.WindowInfo, error) {
	var root swayNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "failed to decode sway tree")
	}

	node := findFocused(&root)
	if node == nil {
		return nil, window.ErrNoWindow
	}

	info := &window.WindowInfo{PID: node.PID}
	switch {
	case node.AppID != nil && *node.AppID != "":
		info.AppName = *node.AppID
	case node.WindowProperties != nil:
		info.AppName = node.WindowProperties.Class
		info.ProcessName = node.WindowProperties.Instance
	}
	if node.Name != nil {
		info.WindowTitle = *node.Name
	}
	if info.AppName == "" {
		return nil, window.ErrNoWindow
	}
	return info, nil
}

func findFocused(n *swayNode) *swayNode {
	if n.Focused {
		return n
	}
	for idx := range n.Nodes {
		if f := findFocused(&n.Nodes[idx]); f != nil {
			return f
		}
	}
	for idx := range n.FloatingNodes {
		if f := findFocused(&n.FloatingNodes[idx]); f != nil {
			return f
		}
	}
	return nil
}

func (i *Inspector) probeHyprland(ctx context.Context) (*window.WindowInfo, error) {
	output, err := i.run(ctx, "hyprctl", "activewindow", "-j")
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute hyprctl")
	}
	return parseHyprlandWindow(output)
}

func parseHyprlandWindow(data []byte) (*window.WindowInfo, error) {
	var w struct {
		Class string `json:"class"`
		Title string `json:"title"`
		PID   int    `json:"pid"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errors.Wrap(err, "failed to decode hyprland window")
	}
	if w.Class == "" {
		return nil, window.ErrNoWindow
	}
	return &window.WindowInfo{AppName: w.Class, WindowTitle: w.Title, PID: w.PID}, nil
}

type gnomeWindow struct {
	WMClass string `json:"wm_class"`
	Title   string `json:"title"`
	PID     int    `json:"pid"`
	Focus   bool   `json:"focus"`
}

const gnomeEvalScript = `(() => {
	const w = global.display.get_focus_window();
	return w ? JSON.stringify({wm_class: w.get_wm_class() || '', title: w.get_title() || '', pid: w.get_pid() || 0, focus: true}) : 'null';
})()`

// probeGnome asks the "Window Calls" shell extension first, then falls back
// to Shell.Eval which only works with unsafe mode enabled.
func (i *Inspector) probeGnome(ctx context.Context) (*window.WindowInfo, error) {
	output, err := i.run(ctx, "gdbus", "call", "--session",
		"--dest", "org.gnome.Shell",
		"--object-path", "/org/gnome/Shell/Extensions/Windows",
		"--method", "org.gnome.Shell.Extensions.Windows.List")
	if err == nil {
		if info, perr := parseGnomeWindowList(output); perr == nil {
			return info, nil
		}
	}

	output, evalErr := i.run(ctx, "gdbus", "call", "--session",
		"--dest", "org.gnome.Shell",
		"--object-path", "/org/gnome/Shell",
		"--method", "org.gnome.Shell.Eval",
		gnomeEvalScript)
	if evalErr != nil {
		return nil, errors.Wrap(evalErr, "GNOME window detection failed")
	}
	return parseGnomeEval(output)
}

func parseGnomeWindowList(output []byte) (*window.WindowInfo, error) {
	payload, err := gvariantString(string(output))
	if err != nil {
		return nil, err
	}

	var windows []gnomeWindow
	if err := json.Unmarshal([]byte(payload), &windows); err != nil {
		return nil, errors.Wrap(err, "failed to decode window list")
	}
	for _, w := range windows {
		if w.Focus && w.WMClass != "" {
			return &window.WindowInfo{AppName: w.WMClass, WindowTitle: w.Title, PID: w.PID}, nil
		}
	}
	return nil, window.ErrNoWindow
}

func parseGnomeEval(output []byte) (*window.WindowInfo, error) {
	text := strings.TrimSpace(string(output))
	if !strings.HasPrefix(text, "(true") {
		return nil, errors.New("Shell.Eval refused, unsafe mode is disabled")
	}

	payload, err := gvariantString(text)
	if err != nil {
		return nil, err
	}

	var w gnomeWindow
	if err := json.Unmarshal([]byte(payload), &w); err != nil || w.WMClass == "" {
		return nil, window.ErrNoWindow
	}
	return &window.WindowInfo{AppName: w.WMClass, WindowTitle: w.Title, PID: w.PID}, nil
}

// gvariantString extracts the first string literal from gdbus's GVariant
// text output, e.g. "(true, '{\"a\": 1}')" or "('[...]',)".
func gvariantString(text string) (string, error) {
	start := strings.IndexAny(text, `'"`)
	if start < 0 {
		return "", errors.Errorf("no string in gdbus reply: %q", text)
	}
	quote := text[start]

	var b strings.Builder
	for pos := start + 1; pos < len(text); pos++ {
		c := text[pos]
		switch {
		case c == '\\' && pos+1 < len(text):
			pos++
			b.WriteByte(text[pos])
		case c == quote:
			return b.String(), nil
		default:
			b.WriteByte(c)
		}
	}
	return "", errors.Errorf("unterminated string in gdbus reply: %q", text)
}

const kdeScript = `var c = workspace.activeClient || workspace.activeWindow; if (c) { print(c.resourceClass + "|" + c.caption); }`

func (i *Inspector) probeKDE(ctx context.Context) (*window.WindowInfo, error) {
	output, err := i.run(ctx, "qdbus", "org.kde.KWin", "/Scripting", "org.kde.kwin.Scripting.loadScript", kdeScript)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query KDE window")
	}

	app, title, _ := strings.Cut(strings.TrimSpace(string(output)), "|")
	if app == "" {
		return nil, window.ErrNoWindow
	}
	return &window.WindowInfo{AppName: app, WindowTitle: title}, nil
}
