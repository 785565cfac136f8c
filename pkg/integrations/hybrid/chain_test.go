package hybrid

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adolfousier/neura-hustle-tracker-sub000/pkg/window"
)

type stubInspector struct {
	name      string
	available bool
	info      *window.WindowInfo
	err       error
	calls     int
	closed    bool
}

func (s *stubInspector) Probe(ctx context.Context) (*window.WindowInfo, error) {
	s.calls++
	if s.info == nil {
		return nil, s.err
	}
	info := *s.info
	return &info, s.err
}

func (s *stubInspector) IsAvailable() bool { return s.available }
func (s *stubInspector) Name() string      { return s.name }
func (s *stubInspector) Close() error      { s.closed = true; return nil }

func TestChainInterface(t *testing.T) {
	var _ window.Inspector = (*Chain)(nil)
}

func TestNewChainSkipsUnavailable(t *testing.T) {
	a := &stubInspector{name: "x11"}
	b := &stubInspector{name: "process", available: true}

	c, err := NewChain(a, nil, b)
	require.NoError(t, err)
	assert.Equal(t, "process", c.Name())

	_, err = NewChain(a)
	assert.Error(t, err)
}

func TestChainFallsBack(t *testing.T) {
	first := &stubInspector{name: "wayland/gnome", available: true, err: errors.New("eval blocked")}
	second := &stubInspector{name: "x11", available: true, info: &window.WindowInfo{
		AppName:     "Google-chrome",
		WindowTitle: "Inbox - Gmail",
	}}

	c, err := NewChain(first, second)
	require.NoError(t, err)

	info, err := c.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "chrome", info.AppName)
	assert.Equal(t, "Inbox - Gmail", info.WindowTitle)
	assert.Equal(t, "x11", c.LastMethod())
	assert.Equal(t, 1, first.calls)
}

func TestChainDropsRedundantTitle(t *testing.T) {
	only := &stubInspector{name: "x11", available: true, info: &window.WindowInfo{
		AppName:     "Slack",
		WindowTitle: "Slack",
	}}

	c, err := NewChain(only)
	require.NoError(t, err)

	info, err := c.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "slack", info.AppName)
	assert.Empty(t, info.WindowTitle)
}

func TestChainEmptyAppNameFallsThrough(t *testing.T) {
	empty := &stubInspector{name: "x11", available: true, info: &window.WindowInfo{AppName: " "}}
	c, err := NewChain(empty)
	require.NoError(t, err)

	_, err = c.Probe(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "x11")
}

func TestChainClose(t *testing.T) {
	a := &stubInspector{name: "a", available: true}
	b := &stubInspector{name: "b", available: true}
	c, err := NewChain(a, b)
	require.NoError(t, err)

	assert.NoError(t, c.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.Equal(t, "a > b", c.Name())
}
