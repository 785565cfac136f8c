package daemon

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIDRoundTrip(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "hustle.pid"))

	pid, err := d.ReadPID()
	require.NoError(t, err)
	assert.Zero(t, pid)

	require.NoError(t, d.WritePID())
	pid, err = d.ReadPID()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	running, runningPID, err := d.IsRunning()
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), runningPID)

	require.NoError(t, d.RemovePID())
	require.NoError(t, d.RemovePID())
}

func TestReadPIDInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hustle.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0644))

	_, err := New(path).ReadPID()
	assert.Error(t, err)
}

func TestReadPIDTrimsNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hustle.pid")
	require.NoError(t, os.WriteFile(path, []byte("1234\n"), 0644))

	pid, err := New(path).ReadPID()
	require.NoError(t, err)
	assert.Equal(t, 1234, pid)
}

func TestIsRunningRemovesStalePID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hustle.pid")
	// PIDs are capped well below this on Linux.
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(1<<30)), 0644))

	running, _, err := New(path).IsRunning()
	require.NoError(t, err)
	assert.False(t, running)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestStopNotRunning(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "hustle.pid"))
	assert.Error(t, d.Stop(time.Second))
}

func TestIsChild(t *testing.T) {
	t.Setenv(ChildEnv, "")
	assert.False(t, IsChild())
	t.Setenv(ChildEnv, "1")
	assert.True(t, IsChild())
}

func TestRedirectLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hustle.log")
	closeLog, err := RedirectLog(path)
	require.NoError(t, err)
	defer closeLog()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
