// Package category maps application names to the built-in activity
// categories used in reports.
package category

import "strings"

const (
	Development   = "Development"
	Browsing      = "Browsing"
	Communication = "Communication"
	Media         = "Media"
	Files         = "Files"
	Email         = "Email"
	Office        = "Office"
	Other         = "Other"
)

type rule struct {
	label    string
	keywords []string
}

// Order matters: the first matching rule wins and Other is the fallback.
var rules = []rule{
	{Development, []string{"code", "vim", "nvim", "terminal", "alacritty", "kitty", "rust", "cargo", "editor", "vscode", "vscodium", "gedit", "nano", "emacs", "atom", "sublime", "console", "iterm"}},
	{Browsing, []string{"browser", "chrome", "firefox", "brave", "edge", "chromium"}},
	{Communication, []string{"slack", "zoom", "teams", "discord", "telegram", "chat", "signal", "element", "video-call", "skype", "jitsi"}},
	{Media, []string{"spotify", "vlc", "music", "media", "rhythmbox", "audacious", "clementine"}},
	{Files, []string{"nautilus", "files", "dolphin", "file-manager", "thunar", "nemo"}},
	{Email, []string{"thunderbird", "evolution", "geary", "email"}},
	{Office, []string{"libreoffice", "soffice"}},
}

// Labels returns every built-in label, Other last.
func Labels() []string {
	labels := make([]string, 0, len(rules)+1)
	for _, r := range rules {
		labels = append(labels, r.label)
	}
	return append(labels, Other)
}

// Categorize never returns an empty label.
func Categorize(appName string) string {
	app := strings.ToLower(appName)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(app, kw) {
				return r.label
			}
		}
	}
	return Other
}

// IsBuiltin reports whether label is one of the built-in categories.
func IsBuiltin(label string) bool {
	for _, l := range Labels() {
		if l == label {
			return true
		}
	}
	return false
}
