package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/models"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := Connect(filepath.Join(t.TempDir(), "hustle.db"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db)
	repo.SetLocation(time.UTC)
	return repo
}

func insert(t *testing.T, repo *Repository, s *models.Session) *models.Session {
	t.Helper()
	_, err := repo.InsertSession(context.Background(), s)
	require.NoError(t, err)
	return s
}

func TestConnectMemory(t *testing.T) {
	db, err := Connect(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Initialize())

	repo := NewRepository(db)
	_, err = repo.InsertSession(context.Background(), &models.Session{AppName: "x", StartTime: time.Now()})
	assert.NoError(t, err)
}

func TestInsertSessionAssignsKeyAndID(t *testing.T) {
	repo := setupTestRepo(t)

	s := insert(t, repo, &models.Session{AppName: "code", StartTime: time.Now(), Duration: 10})
	assert.NotZero(t, s.ID)
	assert.Len(t, s.SessionKey, 26)

	other := insert(t, repo, &models.Session{AppName: "code", StartTime: time.Now(), Duration: 10})
	assert.NotEqual(t, s.ID, other.ID)
	assert.NotEqual(t, s.SessionKey, other.SessionKey)
}

func TestInsertSessionUpsertsOnKey(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	s := &models.Session{SessionKey: NewSessionKey(), AppName: "code", StartTime: start, Duration: 3600}
	id1, err := repo.InsertSession(ctx, s)
	require.NoError(t, err)

	s.Duration = 3700
	s.WindowName = models.String("main.go - Visual Studio Code")
	id2, err := repo.InsertSession(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	sessions, err := repo.GetRecentSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(3700), sessions[0].Duration)
	assert.Equal(t, "main.go - Visual Studio Code", sessions[0].Window())
	assert.True(t, sessions[0].StartTime.Equal(start))
}

func TestApplyRenamesAndCategories(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.RenameApp(ctx, "code", "VS Code", "Deep Work")
	require.NoError(t, err)
	_, err = repo.RenameField(ctx, models.FieldBrowserPageTitle, "Inbox", "Email")
	require.NoError(t, err)
	_, err = repo.CategorizeField(ctx, models.FieldTerminalDirectory, "/srv/api", "Backend")
	require.NoError(t, err)
	// Same value under a different field must not leak across.
	_, err = repo.RenameField(ctx, models.FieldTmuxWindowName, "/srv/api", "wrong")
	require.NoError(t, err)

	s := &models.Session{
		AppName:  "code",
		Category: models.String("Development"),
		ParsedData: models.ParsedData{
			BrowserPageTitle:  models.String("Inbox"),
			TerminalDirectory: models.String("/srv/api"),
			EditorFilename:    models.String("main.go"),
		},
	}
	require.NoError(t, repo.ApplyRenamesAndCategories(ctx, s))

	assert.Equal(t, "VS Code", s.AppName)
	assert.Equal(t, "Deep Work", models.Deref(s.Category))
	assert.Equal(t, "Email", models.Deref(s.BrowserPageTitleRenamed))
	assert.Nil(t, s.BrowserPageTitleCategory)
	assert.Equal(t, "Backend", models.Deref(s.TerminalDirectoryCategory))
	assert.Nil(t, s.TerminalDirectoryRenamed)
	assert.Nil(t, s.EditorFilenameRenamed)
	assert.Nil(t, s.TmuxWindowNameRenamed)

	// Idempotent: the renamed app has no override of its own.
	require.NoError(t, repo.ApplyRenamesAndCategories(ctx, s))
	assert.Equal(t, "VS Code", s.AppName)
	assert.Equal(t, "Email", models.Deref(s.BrowserPageTitleRenamed))
}

func TestApplyWithoutOverridesLeavesSession(t *testing.T) {
	repo := setupTestRepo(t)

	s := &models.Session{AppName: "gimp", Category: models.String("Other")}
	require.NoError(t, repo.ApplyRenamesAndCategories(context.Background(), s))
	assert.Equal(t, "gimp", s.AppName)
	assert.Equal(t, "Other", models.Deref(s.Category))
}

func TestRenameAppRewritesHistory(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	insert(t, repo, &models.Session{AppName: "code", StartTime: now, Duration: 10})
	insert(t, repo, &models.Session{AppName: "code", StartTime: now.Add(time.Second), Duration: 20})
	insert(t, repo, &models.Session{AppName: "firefox", StartTime: now.Add(2 * time.Second), Duration: 50})

	n, err := repo.RenameApp(ctx, "code", "Editor", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Chained rename: older overrides follow the new name.
	n, err = repo.RenameApp(ctx, "Editor", "VS Code", "Development")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	s := &models.Session{AppName: "code"}
	require.NoError(t, repo.ApplyRenamesAndCategories(ctx, s))
	assert.Equal(t, "VS Code", s.AppName)

	usage, err := repo.GetAppUsageSince(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, usage, 2)
	assert.Equal(t, "VS Code", usage[1].AppName)
	assert.Equal(t, "Development", usage[1].Category)
	assert.Equal(t, int64(30), usage[1].TotalSeconds)

	_, err = repo.RenameApp(ctx, "", "x", "")
	assert.Error(t, err)
}

func TestSetAppCategory(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	insert(t, repo, &models.Session{AppName: "slack", StartTime: time.Now()})
	n, err := repo.SetAppCategory(ctx, "slack", "Meetings")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	cat, err := repo.GetAppCategory(ctx, "slack")
	require.NoError(t, err)
	assert.Equal(t, "Meetings", cat)

	cat, err = repo.GetAppCategory(ctx, "unknown-app")
	require.NoError(t, err)
	assert.Empty(t, cat)

	_, err = repo.SetAppCategory(ctx, "slack", "")
	assert.Error(t, err)
}

func TestFieldOverridesRewriteHistory(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	insert(t, repo, &models.Session{
		AppName:    "gnome-terminal",
		StartTime:  time.Now(),
		ParsedData: models.ParsedData{TerminalDirectory: models.String("/srv/api")},
	})

	n, err := repo.RenameField(ctx, models.FieldTerminalDirectory, "/srv/api", "API")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.CategorizeField(ctx, models.FieldTerminalDirectory, "/srv/api", "Backend")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// A second write updates the same override row.
	_, err = repo.RenameField(ctx, models.FieldTerminalDirectory, "/srv/api", "Public API")
	require.NoError(t, err)

	sessions, err := repo.GetRecentSessions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Public API", models.Deref(sessions[0].TerminalDirectoryRenamed))
	assert.Equal(t, "Backend", models.Deref(sessions[0].TerminalDirectoryCategory))

	overrides, err := repo.ListOverrides(ctx)
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, "Public API", models.Deref(overrides[0].RenamedValue))
	assert.Equal(t, "Backend", models.Deref(overrides[0].Category))

	_, err = repo.RenameField(ctx, "window_name", "x", "y")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestGetCustomCategories(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	insert(t, repo, &models.Session{AppName: "code", StartTime: time.Now(), Category: models.String("Development")})
	insert(t, repo, &models.Session{AppName: "notion", StartTime: time.Now(), Category: models.String("Planning")})
	_, err := repo.CategorizeField(ctx, models.FieldEditorFilename, "todo.md", "Admin")
	require.NoError(t, err)
	_, err = repo.SetAppCategory(ctx, "notion", "Planning")
	require.NoError(t, err)

	custom, err := repo.GetCustomCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Admin", "Planning"}, custom)
}

func TestPeriodQueries(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	today := DayStart(now, time.UTC)

	day := 24 * time.Hour
	for _, offset := range []time.Duration{
		time.Hour,
		-time.Hour,
		-6 * day,
		-7 * day,
		-29 * day,
		-30 * day,
	} {
		insert(t, repo, &models.Session{AppName: "code", StartTime: today.Add(offset), Duration: 60})
	}

	daily, err := repo.GetDailySessions(ctx)
	require.NoError(t, err)
	assert.Len(t, daily, 1)

	weekly, err := repo.GetWeeklySessions(ctx)
	require.NoError(t, err)
	assert.Len(t, weekly, 3)

	monthly, err := repo.GetMonthlySessions(ctx)
	require.NoError(t, err)
	require.Len(t, monthly, 5)
	for i := 1; i < len(monthly); i++ {
		assert.True(t, monthly[i-1].StartTime.After(monthly[i].StartTime), "newest first")
	}
}

func TestGetSessionsSinceAcrossZones(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	berlin := time.FixedZone("CET", 3600)
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, berlin)
	insert(t, repo, &models.Session{AppName: "code", StartTime: start})

	got, err := repo.GetSessionsSince(ctx, start.Add(-time.Minute).UTC())
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = repo.GetSessionsSince(ctx, start.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetAppUsageSinceExcludesAFKAndIdle(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	insert(t, repo, &models.Session{AppName: "code", StartTime: now, Duration: 300, IsAFK: models.Bool(false)})
	insert(t, repo, &models.Session{AppName: "code", StartTime: now, Duration: 100})
	insert(t, repo, &models.Session{AppName: "firefox", StartTime: now, Duration: 100})
	insert(t, repo, &models.Session{AppName: models.AFKAppName, StartTime: now, Duration: 900, IsAFK: models.Bool(true)})
	insert(t, repo, &models.Session{AppName: models.AFKAppName, StartTime: now, Duration: 900, IsAFK: models.Bool(true), IsIdle: models.Bool(true)})

	usage, err := repo.GetAppUsageSince(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, usage, 2)

	assert.Equal(t, "code", usage[0].AppName)
	assert.Equal(t, int64(400), usage[0].TotalSeconds)
	assert.Equal(t, 2, usage[0].SessionCount)
	assert.InDelta(t, 80.0, usage[0].Percentage, 0.01)
	assert.InDelta(t, 400.0/60, usage[0].TotalMinutes, 0.001)
}

func TestGetLatest(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	latest, err := repo.GetLatest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	now := time.Now()
	insert(t, repo, &models.Session{AppName: "older", StartTime: now.Add(-time.Minute)})
	insert(t, repo, &models.Session{AppName: "newer", StartTime: now})

	latest, err = repo.GetLatest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "newer", latest.AppName)
}

func TestErrorLogs(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.LogError(ctx, "inspector", "no display"))
	require.NoError(t, repo.LogError(ctx, "store", "disk full"))

	logs, err := repo.GetRecentErrors(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "store", logs[0].Source)
}

func TestDeleteOldSessionsAndClear(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	insert(t, repo, &models.Session{AppName: "old", StartTime: now.Add(-48 * time.Hour)})
	insert(t, repo, &models.Session{AppName: "new", StartTime: now})
	_, err := repo.SetAppCategory(ctx, "new", "Keep")
	require.NoError(t, err)

	n, err := repo.DeleteOldSessions(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	sessions, err := repo.GetRecentSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "new", sessions[0].AppName)

	require.NoError(t, repo.LogError(ctx, "store", "x"))
	require.NoError(t, repo.Clear(ctx))

	sessions, err = repo.GetRecentSessions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	logs, err := repo.GetRecentErrors(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, logs)

	overrides, err := repo.ListOverrides(ctx)
	require.NoError(t, err)
	assert.Len(t, overrides, 1, "overrides survive a clear")
}
