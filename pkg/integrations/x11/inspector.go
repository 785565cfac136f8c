// Package x11 reads the focused window and the input idle time straight from
// the X server.
package x11

import (
	"context"
	"encoding/binary"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/screensaver"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/adolfousier/neura-hustle-tracker-sub000/pkg/window"
)

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"WM_NAME",
	"WM_CLASS",
	"UTF8_STRING",
}

// Inspector implements window.Inspector over a long lived X connection.
type Inspector struct {
	mu        sync.Mutex
	conn      *xgb.Conn
	root      xproto.Window
	atoms     map[string]xproto.Atom
	hasSaver  bool
	connected bool
}

// NewInspector creates an X11 inspector. The connection is opened lazily.
func NewInspector() *Inspector {
	return &Inspector{atoms: make(map[string]xproto.Atom)}
}

// IsAvailable reports whether an X display is configured.
func (i *Inspector) IsAvailable() bool {
	return os.Getenv("DISPLAY") != ""
}

// Name returns "x11".
func (i *Inspector) Name() string { return "x11" }

func (i *Inspector) connect() error {
	if i.connected {
		return nil
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return errors.Wrap(err, "failed to connect to X server")
	}

	i.root = xproto.Setup(conn).DefaultScreen(conn).Root
	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return errors.Wrapf(err, "failed to intern atom %s", name)
		}
		i.atoms[name] = reply.Atom
	}

	i.hasSaver = screensaver.Init(conn) == nil
	i.conn = conn
	i.connected = true
	return nil
}

// Probe returns the focused top-level window.
func (i *Inspector) Probe(ctx context.Context) (*window.WindowInfo, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.connect(); err != nil {
		return nil, err
	}

	win, err := i.activeWindow(ctx)
	if err != nil {
		return nil, err
	}

	instance, class := splitWMClass(i.property(win, i.atoms["WM_CLASS"], xproto.AtomString, 256))
	app := class
	if app == "" {
		app = instance
	}

	return &window.WindowInfo{
		AppName:       app,
		WindowTitle:   i.windowName(win),
		ProcessName:   instance,
		PID:           int(i.windowPID(win)),
		DisplayServer: "x11",
	}, nil
}

// IdleTime returns time since the last keyboard or pointer input, as
// reported by the MIT-SCREEN-SAVER extension.
func (i *Inspector) IdleTime(ctx context.Context) (time.Duration, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.connect(); err != nil {
		return 0, err
	}
	if !i.hasSaver {
		return 0, errors.New("MIT-SCREEN-SAVER extension not available")
	}

	reply, err := screensaver.QueryInfo(i.conn, xproto.Drawable(i.root)).Reply()
	if err != nil {
		return 0, errors.Wrap(err, "failed to query screensaver info")
	}
	return time.Duration(reply.MsSinceUserInput) * time.Millisecond, nil
}

// Close closes the X connection.
func (i *Inspector) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.connected {
		i.conn.Close()
		i.connected = false
	}
	return nil
}

func (i *Inspector) property(win xproto.Window, atom, typ xproto.Atom, length uint32) []byte {
	reply, err := xproto.GetProperty(i.conn, false, win, atom, typ, 0, length).Reply()
	if err != nil || reply == nil {
		return nil
	}
	return reply.Value
}

func (i *Inspector) activeWindow(ctx context.Context) (xproto.Window, error) {
	for attempt := 0; attempt < 5; attempt++ {
		data := i.property(i.root, i.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1)
		if len(data) >= 4 {
			if win := xproto.Window(binary.LittleEndian.Uint32(data)); win != 0 && i.hasName(win) {
				return win, nil
			}
		}

		if focus, err := xproto.GetInputFocus(i.conn).Reply(); err == nil {
			if win := focus.Focus; win != 0 && win != i.root {
				if top := i.topLevel(win); top != 0 && i.hasName(top) {
					return top, nil
				}
			}
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}
	return 0, window.ErrNoWindow
}

func (i *Inspector) topLevel(win xproto.Window) xproto.Window {
	for {
		reply, err := xproto.QueryTree(i.conn, win).Reply()
		if err != nil || reply.Parent == i.root || reply.Parent == 0 {
			return win
		}
		win = reply.Parent
	}
}

func (i *Inspector) hasName(win xproto.Window) bool {
	if len(i.property(win, i.atoms["_NET_WM_NAME"], i.atoms["UTF8_STRING"], 1)) > 0 {
		return true
	}
	return len(i.property(win, i.atoms["WM_NAME"], xproto.AtomString, 1)) > 0
}

func (i *Inspector) windowName(win xproto.Window) string {
	if data := i.property(win, i.atoms["_NET_WM_NAME"], i.atoms["UTF8_STRING"], 256); len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}
	return strings.TrimRight(string(i.property(win, i.atoms["WM_NAME"], xproto.AtomString, 256)), "\x00")
}

func (i *Inspector) windowPID(win xproto.Window) uint32 {
	data := i.property(win, i.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if len(data) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(data)
}

// splitWMClass splits the NUL separated WM_CLASS value into instance and
// class names.
func splitWMClass(data []byte) (instance, class string) {
	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	instance = parts[0]
	if len(parts) >= 2 {
		class = parts[1]
	}
	return instance, class
}
