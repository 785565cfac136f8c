package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/config"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/database"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/models"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/output"
)

// testEnv isolates config, database and output for one test.
func testEnv(t *testing.T) (string, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()

	origFunc := configDirFunc
	configDirFunc = func() (string, error) { return dir, nil }
	t.Cleanup(func() { configDirFunc = origFunc })

	cfg = config.Default()
	cfg.Database.Path = filepath.Join(dir, "test.db")
	cfg.Report.TimeZone = "UTC"
	cfgErr = nil
	cfgFile = ""

	out := &bytes.Buffer{}
	ui = output.New()
	ui.Out = out
	ui.ErrOut = out

	t.Cleanup(closeDB)
	return dir, out
}

func seedSessions(t *testing.T) *database.Repository {
	t.Helper()
	repo, err := getRepo()
	require.NoError(t, err)

	now := time.Now()
	for _, s := range []*models.Session{
		{AppName: "code", StartTime: now.Add(-2 * time.Hour), Duration: 1200},
		{
			AppName:    "firefox",
			WindowName: models.String("Inbox — Mozilla Firefox"),
			StartTime:  now.Add(-time.Hour),
			Duration:   600,
			ParsedData: models.ParsedData{BrowserPageTitle: models.String("Inbox"), ParsingSuccess: true},
		},
	} {
		_, err := repo.InsertSession(context.Background(), s)
		require.NoError(t, err)
	}
	return repo
}

func TestConfigInit_CreatesLoadableFile(t *testing.T) {
	dir, _ := testEnv(t)
	configForce = false

	require.NoError(t, configInitRun())

	cfgPath := filepath.Join(dir, "config.yaml")
	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hustle-tracker configuration")
	assert.Contains(t, string(data), "afk_threshold: 5m0s")

	loaded, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Tracker, loaded.Tracker)
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	dir, _ := testEnv(t)

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("existing"), 0644))

	configForce = false
	err := configInitRun()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	configForce = true
	t.Cleanup(func() { configForce = false })
	require.NoError(t, configInitRun())

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.NotEqual(t, "existing", string(data))
}

func TestConfigShow(t *testing.T) {
	_, out := testEnv(t)

	require.NoError(t, configShowRun())
	assert.Contains(t, out.String(), "Config file: (none)")
	assert.Contains(t, out.String(), "poll_interval: 100ms")
}

func TestResolveField(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"app", models.FieldAppName, false},
		{"page", models.FieldBrowserPageTitle, false},
		{"DIR", models.FieldTerminalDirectory, false},
		{"file", models.FieldEditorFilename, false},
		{"tmux", models.FieldTmuxWindowName, false},
		{"editor_filename", models.FieldEditorFilename, false},
		{"mood", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := resolveField(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBefore(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"30d", now.AddDate(0, 0, -30), false},
		{"0d", now, false},
		{"36h", now.Add(-36 * time.Hour), false},
		{"2025-01-01", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"", time.Time{}, true},
		{"xd", time.Time{}, true},
		{"-2h", time.Time{}, true},
		{"last tuesday", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseBefore(tt.in, now, time.UTC)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestDaemonArgs(t *testing.T) {
	cfgFile = ""
	assert.Equal(t, []string{"run"}, daemonArgs(false, 0))
	assert.Equal(t, []string{"serve"}, daemonArgs(true, 0))
	assert.Equal(t, []string{"serve", "--port", "9000"}, daemonArgs(false, 9000))

	cfgFile = "/etc/hustle.yaml"
	t.Cleanup(func() { cfgFile = "" })
	assert.Equal(t, []string{"run", "--config", "/etc/hustle.yaml"}, daemonArgs(false, 0))
}

func TestSessionDetail(t *testing.T) {
	tests := []struct {
		name string
		s    models.Session
		want string
	}{
		{
			name: "browser",
			s: models.Session{ParsedData: models.ParsedData{
				BrowserPageTitle: models.String("Inbox"),
				BrowserURL:       models.String("Gmail"),
			}},
			want: "Inbox @ Gmail",
		},
		{
			name: "renamed page",
			s: models.Session{
				ParsedData: models.ParsedData{BrowserPageTitle: models.String("Inbox")},
				Overrides:  models.Overrides{BrowserPageTitleRenamed: models.String("Email")},
			},
			want: "Email",
		},
		{
			name: "editor",
			s:    models.Session{ParsedData: models.ParsedData{EditorFilename: models.String("main.go")}},
			want: "main.go",
		},
		{
			name: "tmux",
			s:    models.Session{ParsedData: models.ParsedData{TmuxWindowName: models.String("build")}},
			want: "tmux: build",
		},
		{
			name: "raw title",
			s:    models.Session{WindowName: models.String("Calculator")},
			want: "Calculator",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sessionDetail(&tt.s))
		})
	}
}

func TestRenameAndCategorize(t *testing.T) {
	_, out := testEnv(t)
	repo := seedSessions(t)
	ctx := context.Background()

	overrideField = "app"
	renameCategory = "Deep Work"
	t.Cleanup(func() { overrideField, renameCategory = models.FieldAppName, "" })

	require.NoError(t, renameRun("code", "VS Code"))
	assert.Contains(t, out.String(), `"VS Code" (1 sessions updated)`)

	cat, err := repo.GetAppCategory(ctx, "code")
	require.NoError(t, err)
	assert.Equal(t, "Deep Work", cat)

	overrideField = "page"
	renameCategory = ""
	require.NoError(t, renameRun("Inbox", "Email"))
	require.NoError(t, categorizeRun("Inbox", "Admin"))

	sessions, err := repo.GetRecentSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "VS Code", sessions[1].AppName)
	assert.Equal(t, "Deep Work", models.Deref(sessions[1].Category))
	assert.Equal(t, "Email", models.Deref(sessions[0].BrowserPageTitleRenamed))
	assert.Equal(t, "Admin", models.Deref(sessions[0].BrowserPageTitleCategory))

	renameCategory = "Admin"
	assert.Error(t, renameRun("Inbox", "Mail"), "category flag is app-only")

	out.Reset()
	listOverrides = true
	t.Cleanup(func() { listOverrides = false })
	require.NoError(t, categoriesRun())
	assert.Contains(t, out.String(), "Deep Work")
	assert.Contains(t, out.String(), "Development")
	assert.Contains(t, out.String(), "browser_page_title")
}

func TestRecentAndReport(t *testing.T) {
	_, out := testEnv(t)

	recentLimit = 20
	require.NoError(t, recentRun())
	assert.Contains(t, out.String(), "No sessions recorded yet")

	seedSessions(t)
	out.Reset()
	require.NoError(t, recentRun())
	assert.Contains(t, out.String(), "firefox")
	assert.Contains(t, out.String(), "Inbox")
	assert.Contains(t, out.String(), "End")

	out.Reset()
	reportJSON = true
	t.Cleanup(func() { reportJSON = false })
	require.NoError(t, reportRun("week"))

	var report struct {
		TotalSeconds int64 `json:"total_seconds"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, int64(1800), report.TotalSeconds)

	assert.Error(t, reportRun("decade"))
}

func TestShowLastSession(t *testing.T) {
	_, out := testEnv(t)
	repo := seedSessions(t)

	showLastSession(repo, cfg)
	assert.Contains(t, out.String(), "firefox")
	assert.NotContains(t, out.String(), "Custom:")
	assert.Contains(t, out.String(), "10m 00s")

	overrideField = "app"
	t.Cleanup(func() { overrideField = models.FieldAppName })
	require.NoError(t, categorizeRun("firefox", "Admin"))

	out.Reset()
	showLastSession(repo, cfg)
	assert.Contains(t, out.String(), "Custom:")
	assert.Contains(t, out.String(), "Admin")
}

func TestClear(t *testing.T) {
	_, out := testEnv(t)
	repo := seedSessions(t)
	ctx := context.Background()

	clearYes = false
	clearBefore = ""
	require.NoError(t, clearRun(strings.NewReader("no\n")))
	assert.Contains(t, out.String(), "Operation cancelled")

	clearBefore = "90m"
	t.Cleanup(func() { clearBefore = "" })
	require.NoError(t, clearRun(strings.NewReader("yes\n")))
	assert.Contains(t, out.String(), "Deleted 1 sessions")

	sessions, err := repo.GetRecentSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "firefox", sessions[0].AppName)

	clearBefore = ""
	clearYes = true
	t.Cleanup(func() { clearYes = false })
	require.NoError(t, clearRun(nil))

	sessions, err = repo.GetRecentSessions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
