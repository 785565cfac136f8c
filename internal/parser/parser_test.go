package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/models"
)

func str(s string) *string { return &s }

func TestParseBrowser(t *testing.T) {
	p := New("/home/adolfo")

	d := p.Parse("firefox", "(11) WhatsApp Business — Mozilla Firefox")
	require.NotNil(t, d.BrowserNotificationCount)
	assert.Equal(t, 11, *d.BrowserNotificationCount)
	assert.Equal(t, str("WhatsApp Business"), d.BrowserPageTitle)
	assert.Equal(t, str("WhatsApp"), d.BrowserURL)
	assert.True(t, d.ParsingSuccess)
}

func TestParseBrowserWithoutCount(t *testing.T) {
	p := New("/home/adolfo")

	d := p.Parse("chrome", "Pull requests · acme/api · GitHub — Google Chrome")
	assert.Nil(t, d.BrowserNotificationCount)
	assert.Equal(t, str("Pull requests · acme/api · GitHub"), d.BrowserPageTitle)
	assert.Equal(t, str("GitHub"), d.BrowserURL)

	d = p.Parse("firefox", "Some blog post — Mozilla Firefox")
	assert.Nil(t, d.BrowserURL)
	assert.Equal(t, str("Some blog post"), d.BrowserPageTitle)
}

func TestParseBrowserNonNumericParen(t *testing.T) {
	d := New("").Parse("brave", "(draft) Notes — Brave")
	assert.Nil(t, d.BrowserNotificationCount)
	assert.Equal(t, str("Notes"), d.BrowserPageTitle)
}

func TestDetectService(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"WhatsApp Business", "WhatsApp"},
		{"GitHub - Repository", "GitHub"},
		{"Gmail - Inbox", "Gmail"},
		{"Home / X.com", "Twitter/X"},
		{"How to exit vim - Stack Overflow", "Stack Overflow"},
		{"localhost:3000", "Localhost"},
		{"Lo-fi beats - YouTube", "YouTube"},
		{"An ordinary page", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectService(tt.title))
		})
	}
}

func TestParseTerminal(t *testing.T) {
	p := New("/home/adolfo")

	d := p.Parse("gnome-terminal", "adolfo@adolfo-ubuntu-pro25: /srv/rs/neura-hustle-tracker")
	assert.Equal(t, str("adolfo"), d.TerminalUsername)
	assert.Equal(t, str("adolfo-ubuntu-pro25"), d.TerminalHostname)
	assert.Equal(t, str("/srv/rs/neura-hustle-tracker"), d.TerminalDirectory)
	assert.Equal(t, str("neura-hustle-tracker"), d.TerminalProjectName)
	assert.Nil(t, d.TmuxWindowName)
}

func TestParseTerminalTilde(t *testing.T) {
	p := New("/home/adolfo")

	d := p.Parse("terminal", "adolfo@box: ~/projects/api")
	assert.Equal(t, str("/home/adolfo/projects/api"), d.TerminalDirectory)
	assert.Equal(t, str("api"), d.TerminalProjectName)

	d = p.Parse("terminal", "adolfo@box: ~")
	assert.Equal(t, str("/home/adolfo"), d.TerminalDirectory)
	assert.Equal(t, str("Home"), d.TerminalProjectName)
}

func TestParseTerminalFallback(t *testing.T) {
	p := New("/home/adolfo")

	d := p.Parse("alacritty", "~/code/web")
	assert.Nil(t, d.TerminalUsername)
	assert.Equal(t, str("/home/adolfo/code/web"), d.TerminalDirectory)
	assert.Equal(t, str("web"), d.TerminalProjectName)

	d = p.Parse("kitty", "nvim /srv/app/main.go")
	assert.Equal(t, str("/srv/app/main.go"), d.TerminalDirectory)

	d = p.Parse("kitty", "kitty")
	assert.Nil(t, d.TerminalDirectory)
	assert.False(t, d.ParsingSuccess)
}

func TestExtractTmux(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		wantCleaned string
		wantWindow  string
		wantOK      bool
	}{
		{"colon prefix", "tmux: editor - adolfo@box: ~/api", "adolfo@box: ~/api", "editor", true},
		{"bracket bar", "[tmux] logs | adolfo@box: /var/log", "adolfo@box: /var/log", "logs", true},
		{"suffix parens", "adolfo@box: ~/api - tmux (build)", "adolfo@box: ~/api", "build", true},
		{"plain suffix", "server - tmux", "", "server", true},
		{"bracket name", "tmux [dev] adolfo@box: ~/x", "adolfo@box: ~/x", "dev", true},
		{"heuristic", "api_work - Alacritty tmux", "Alacritty tmux", "api_work", true},
		{"no tmux", "adolfo@box: ~/x", "adolfo@box: ~/x", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaned, window, ok := extractTmux(tt.title)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantWindow, window)
			assert.Equal(t, tt.wantCleaned, cleaned)
		})
	}
}

func TestParseTerminalWithTmux(t *testing.T) {
	p := New("/home/adolfo")

	d := p.Parse("gnome-terminal", "tmux: editor - adolfo@box: ~/projects/hustle")
	assert.Equal(t, str("tmux"), d.TerminalMultiplexer)
	assert.Equal(t, str("editor"), d.TmuxWindowName)
	assert.Equal(t, str("adolfo"), d.TerminalUsername)
	assert.Equal(t, str("box"), d.TerminalHostname)
	assert.Equal(t, str("/home/adolfo/projects/hustle"), d.TerminalDirectory)
	assert.Equal(t, str("hustle"), d.TerminalProjectName)
	assert.Nil(t, d.TmuxPaneCount)
}

func TestParseEditor(t *testing.T) {
	p := New("/home/adolfo")

	d := p.Parse("texteditor", "commands.md (/srv/rs/neura-hustle-tracker) - Text Editor")
	assert.Equal(t, str("commands.md"), d.EditorFilename)
	assert.Equal(t, str("/srv/rs/neura-hustle-tracker"), d.EditorFilepath)
	assert.Equal(t, str("neura-hustle-tracker"), d.EditorProjectPath)
	assert.Equal(t, str("Markdown"), d.EditorLanguage)
}

func TestParseEditorSlashPath(t *testing.T) {
	p := New("/home/adolfo")

	d := p.Parse("editor", "~/code/api/main.go - NVIM")
	assert.Equal(t, str("main.go"), d.EditorFilename)
	assert.Equal(t, str("/home/adolfo/code/api"), d.EditorFilepath)
	assert.Equal(t, str("api"), d.EditorProjectPath)
	assert.Equal(t, str("Go"), d.EditorLanguage)
}

func TestParseEditorIDETitle(t *testing.T) {
	d := New("/home/adolfo").Parse("vscode", "● handler.ts - billing - Visual Studio Code")
	assert.Equal(t, str("handler.ts"), d.EditorFilename)
	assert.Equal(t, str("TypeScript"), d.EditorLanguage)
	assert.Equal(t, str("billing"), d.IDEProjectName)
	assert.Equal(t, str("handler.ts"), d.IDEFileOpen)
}

func TestParseEditorUnknownExtension(t *testing.T) {
	d := New("").Parse("gedit", "notes.xyz (/tmp/scratch) - gedit")
	assert.Equal(t, str("notes.xyz"), d.EditorFilename)
	assert.Nil(t, d.EditorLanguage)
	assert.Equal(t, str("scratch"), d.EditorProjectPath)
}

func TestParseEditorUnclosedPath(t *testing.T) {
	d := New("/home/adolfo").Parse("texteditor", "main.go (/srv/api - Text Editor")
	assert.Equal(t, str("main.go"), d.EditorFilename)
	assert.Nil(t, d.EditorLanguage)
	assert.Nil(t, d.EditorFilepath)
	assert.Nil(t, d.EditorProjectPath)
}

func TestHomeDir(t *testing.T) {
	t.Setenv("HOME", "/home/adolfo")
	assert.Equal(t, "/home/adolfo", HomeDir())
}

func TestDetectLanguage(t *testing.T) {
	tests := map[string]string{
		"main.rs":       "Rust",
		"app.py":        "Python",
		"index.js":      "JavaScript",
		"component.tsx": "React TypeScript",
		"server.GO":     "Go",
		"Makefile":      "",
		"config.yml":    "YAML",
		"lib.hpp":       "Header",
	}

	for file, want := range tests {
		assert.Equal(t, want, DetectLanguage(file), file)
	}
}

func TestParseFileManager(t *testing.T) {
	p := New("/home/adolfo")

	d := p.Parse("nautilus", "/srv/rs/neura-hustle-tracker")
	assert.Equal(t, str("/srv/rs/neura-hustle-tracker"), d.TerminalDirectory)
	assert.Equal(t, str("neura-hustle-tracker"), d.TerminalProjectName)

	d = p.Parse("file-manager", "file:///home/adolfo/Documents")
	assert.Equal(t, str("/home/adolfo/Documents"), d.TerminalDirectory)
	assert.Equal(t, str("Documents"), d.TerminalProjectName)

	d = p.Parse("dolphin", "Downloads")
	assert.Nil(t, d.TerminalDirectory)
}

func TestParseUnroutedApp(t *testing.T) {
	d := New("/home/adolfo").Parse("spotify", "Daft Punk - One More Time")
	assert.Equal(t, models.ParsedData{ParsingSuccess: true}, d)
}

func TestParseDeterministic(t *testing.T) {
	p := New("/home/adolfo")
	title := "tmux: editor - adolfo@box: ~/projects/hustle"
	assert.Equal(t, p.Parse("terminal", title), p.Parse("terminal", title))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		app  string
		want Class
	}{
		{"firefox", ClassBrowser},
		{"Google-Chrome", ClassBrowser},
		{"gnome-terminal", ClassTerminal},
		{"texteditor", ClassEditor},
		{"vscode", ClassEditor},
		{"file-manager", ClassFileManager},
		{"spotify", ClassNone},
	}

	for _, tt := range tests {
		t.Run(tt.app, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.app))
		})
	}
}

func TestProjectName(t *testing.T) {
	p := New("/home/adolfo")

	tests := []struct {
		path string
		want string
	}{
		{"~", "Home"},
		{"/home/adolfo", "Home"},
		{"/home/adolfo/Documents", "Documents"},
		{"/home/adolfo/projects/myapp", "myapp"},
		{"/home/adolfo/projects/x", "projects"},
		{"/srv/rs/neura-hustle-tracker", "neura-hustle-tracker"},
		{"/usr/local/bin", "local"},
		{"/var/tmp", ""},
		{"/opt/2024", "opt"},
		{"/srv/9", "srv"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ProjectName(tt.path))
		})
	}
}

func TestExpandTilde(t *testing.T) {
	p := New("/home/adolfo/")
	assert.Equal(t, "/home/adolfo", p.ExpandTilde("~"))
	assert.Equal(t, "/home/adolfo/x", p.ExpandTilde("~/x"))
	assert.Equal(t, "~bob/x", p.ExpandTilde("~bob/x"))
	assert.Equal(t, "~/x", New("").ExpandTilde("~/x"))
}
