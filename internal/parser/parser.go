// Package parser recovers structured fields (browser service, terminal
// directory, edited file, tmux window) from raw window titles.
package parser

import (
	"os"
	"strings"

	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/models"
)

// Class is the kind of application a title belongs to.
type Class int

const (
	ClassNone Class = iota
	ClassBrowser
	ClassTerminal
	ClassEditor
	ClassFileManager
)

func (c Class) String() string {
	switch c {
	case ClassBrowser:
		return "browser"
	case ClassTerminal:
		return "terminal"
	case ClassEditor:
		return "editor"
	case ClassFileManager:
		return "file-manager"
	default:
		return "none"
	}
}

var classKeywords = []struct {
	class    Class
	keywords []string
}{
	{ClassBrowser, []string{"firefox", "chrome", "chromium", "brave", "safari", "edge"}},
	{ClassTerminal, []string{"terminal", "gnome-terminal", "alacritty", "kitty", "wezterm", "konsole"}},
	{ClassEditor, []string{"editor", "texteditor", "vim", "nvim", "emacs", "vscode", "code", "gedit", "kate"}},
	{ClassFileManager, []string{"nautilus", "file-manager", "files", "dolphin", "thunar", "nemo"}},
}

// Classify routes an app name to the extractor that understands its titles.
func Classify(appName string) Class {
	app := lowerASCII(appName)
	for _, c := range classKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(app, kw) {
				return c.class
			}
		}
	}
	return ClassNone
}

// Parser turns (app, title) pairs into models.ParsedData. The zero value
// does not expand "~"; use New to bind a home directory.
type Parser struct {
	home string
}

// New returns a Parser that expands "~" to home.
func New(home string) *Parser {
	return &Parser{home: strings.TrimRight(home, "/")}
}

// HomeDir is the user's home directory, or "" when it cannot be found.
func HomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.Getenv("HOME")
}

var defaultParser = New(HomeDir())

// Parse uses a parser bound to HomeDir.
func Parse(appName, windowTitle string) models.ParsedData {
	return defaultParser.Parse(appName, windowTitle)
}

// ProjectName uses a parser bound to HomeDir.
func ProjectName(path string) string {
	return defaultParser.ProjectName(path)
}

// Parse never fails. Fields the title does not carry are left nil.
// ParsingSuccess is false only when the app was routed to an extractor and
// that extractor found nothing.
func (p *Parser) Parse(appName, windowTitle string) models.ParsedData {
	data := models.ParsedData{ParsingSuccess: true}

	class := Classify(appName)
	switch class {
	case ClassBrowser:
		parseBrowser(windowTitle, &data)
	case ClassTerminal:
		p.parseTerminal(windowTitle, &data)
	case ClassEditor:
		p.parseEditor(windowTitle, &data)
	case ClassFileManager:
		p.parseFileManager(windowTitle, &data)
	default:
		return data
	}

	data.ParsingSuccess = hasFields(&data)
	return data
}

func hasFields(d *models.ParsedData) bool {
	strs := []*string{
		d.BrowserURL, d.BrowserPageTitle,
		d.TerminalUsername, d.TerminalHostname, d.TerminalDirectory, d.TerminalProjectName,
		d.EditorFilename, d.EditorFilepath, d.EditorProjectPath, d.EditorLanguage,
		d.TmuxWindowName, d.TerminalMultiplexer,
		d.IDEProjectName, d.IDEFileOpen, d.IDEWorkspace,
	}
	for _, s := range strs {
		if s != nil {
			return true
		}
	}
	return d.BrowserNotificationCount != nil || d.TmuxPaneCount != nil
}

// lowerASCII lower-cases ASCII letters only so byte offsets into the result
// stay valid for the original string.
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
