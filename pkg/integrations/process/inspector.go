// Package process guesses the foreground application from /proc when no
// display server can be queried. It picks the GUI process that burned the
// most CPU since the previous probe.
package process

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/adolfousier/neura-hustle-tracker-sub000/pkg/window"
)

var guiApps = []string{
	"firefox", "chrome", "chromium", "google-chrome", "brave", "opera", "vivaldi", "microsoft-edge",
	"code", "sublime_text", "zed", "gedit", "emacs",
	"gnome-terminal", "konsole", "terminator", "alacritty", "kitty", "wezterm", "tilix",
	"slack", "discord", "telegram", "signal", "zoom", "teams",
	"libreoffice", "soffice.bin",
	"vlc", "mpv", "spotify", "rhythmbox",
	"nautilus", "dolphin", "thunar", "nemo",
	"idea", "pycharm", "webstorm", "goland", "eclipse",
}

var blacklist = []string{
	"bash", "zsh", "fish", "sh", "dash", "tcsh", "ksh",
	"goa-daemon", "goa-identity-service", "gvfs", "dbus-daemon", "systemd",
	"pulseaudio", "pipewire", "wireplumber", "bluetoothd",
	"ssh-agent", "gpg-agent", "dconf-service", "Xwayland", "gnome-shell",
}

type proc struct {
	pid     int
	name    string
	cmdline string
	cpu     uint64
}

// Inspector implements window.Inspector from process CPU activity.
type Inspector struct {
	root string

	mu      sync.Mutex
	lastCPU map[int]uint64
}

// NewInspector creates an inspector reading the real /proc.
func NewInspector() *Inspector {
	return newInspector("/proc")
}

func newInspector(root string) *Inspector {
	return &Inspector{root: root, lastCPU: make(map[int]uint64)}
}

// IsAvailable reports whether procfs is mounted.
func (i *Inspector) IsAvailable() bool {
	_, err := os.Stat(i.root)
	return err == nil
}

// Name returns "process".
func (i *Inspector) Name() string { return "process" }

// Close is a no-op.
func (i *Inspector) Close() error { return nil }

// Probe returns the most active GUI process. Window titles are not
// available from /proc.
func (i *Inspector) Probe(ctx context.Context) (*window.WindowInfo, error) {
	procs, err := i.scan(ctx)
	if err != nil {
		return nil, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	type scored struct {
		p     proc
		delta uint64
	}
	var candidates []scored
	seen := make(map[int]uint64, len(procs))
	for _, p := range procs {
		seen[p.pid] = p.cpu
		var delta uint64
		if prev, ok := i.lastCPU[p.pid]; ok && p.cpu >= prev {
			delta = p.cpu - prev
		}
		candidates = append(candidates, scored{p, delta})
	}
	i.lastCPU = seen

	if len(candidates) == 0 {
		return nil, errors.Wrap(window.ErrNoWindow, "no GUI applications detected")
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].delta != candidates[b].delta {
			return candidates[a].delta > candidates[b].delta
		}
		return candidates[a].p.pid > candidates[b].p.pid
	})

	best := candidates[0].p
	return &window.WindowInfo{
		AppName:       best.name,
		ProcessName:   best.name,
		PID:           best.pid,
		DisplayServer: "process",
	}, nil
}

func (i *Inspector) scan(ctx context.Context) ([]proc, error) {
	entries, err := os.ReadDir(i.root)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan processes")
	}

	var procs []proc
	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}

		p, err := i.readProc(pid)
		if err != nil || !i.isGUIApp(p) {
			continue
		}
		procs = append(procs, p)
	}
	return procs, nil
}

func (i *Inspector) readProc(pid int) (proc, error) {
	dir := filepath.Join(i.root, strconv.Itoa(pid))
	p := proc{pid: pid}

	stat, err := os.ReadFile(filepath.Join(dir, "stat"))
	if err != nil {
		return p, err
	}
	name, cpu, err := parseStat(string(stat))
	if err != nil {
		return p, err
	}
	p.name, p.cpu = name, cpu

	if data, err := os.ReadFile(filepath.Join(dir, "cmdline")); err == nil {
		p.cmdline = strings.TrimSpace(strings.ReplaceAll(string(data), "\x00", " "))
	}
	return p, nil
}

// parseStat returns the command name and utime+stime from /proc/<pid>/stat.
// The name is parenthesised and may itself contain spaces or parentheses.
func parseStat(stat string) (string, uint64, error) {
	open := strings.IndexByte(stat, '(')
	closing := strings.LastIndexByte(stat, ')')
	if open < 0 || closing < open {
		return "", 0, errors.New("malformed stat line")
	}
	name := stat[open+1 : closing]

	// Fields after the name start at field 3 (state); utime and stime are
	// fields 14 and 15.
	fields := strings.Fields(stat[closing+1:])
	if len(fields) < 13 {
		return "", 0, errors.New("short stat line")
	}
	utime, err := strconv.ParseUint(fields[11], 10, 64)
	if err != nil {
		return "", 0, errors.Wrap(err, "bad utime")
	}
	stime, err := strconv.ParseUint(fields[12], 10, 64)
	if err != nil {
		return "", 0, errors.Wrap(err, "bad stime")
	}
	return name, utime + stime, nil
}

func (i *Inspector) isGUIApp(p proc) bool {
	for _, blocked := range blacklist {
		if p.name == blocked {
			return false
		}
	}

	for _, app := range guiApps {
		if p.name == app || strings.HasPrefix(p.name, app) {
			return true
		}
	}

	environ, err := os.ReadFile(filepath.Join(i.root, strconv.Itoa(p.pid), "environ"))
	if err != nil {
		return false
	}
	for _, kv := range strings.Split(string(environ), "\x00") {
		if strings.HasPrefix(kv, "DISPLAY=") || strings.HasPrefix(kv, "WAYLAND_DISPLAY=") {
			return true
		}
	}
	return false
}
