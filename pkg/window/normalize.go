package window

import "strings"

var canonicalApps = []struct {
	keywords []string
	name     string
}{
	{[]string{"chrome", "chromium"}, "chrome"},
	{[]string{"firefox"}, "firefox"},
	{[]string{"code", "vscode", "vscodium"}, "vscode"},
	{[]string{"slack"}, "slack"},
	{[]string{"discord"}, "discord"},
	{[]string{"telegram"}, "telegram"},
	{[]string{"zoom"}, "zoom"},
	{[]string{"teams"}, "teams"},
	{[]string{"skype"}, "skype"},
	{[]string{"spotify"}, "spotify"},
	{[]string{"vlc"}, "vlc"},
	{[]string{"gnome-terminal", "terminal"}, "gnome-terminal"},
	{[]string{"nautilus", "files", "thunar", "dolphin", "nemo"}, "file-manager"},
	{[]string{"alacritty", "kitty", "wezterm", "konsole"}, "terminal"},
	{[]string{"vim", "nvim", "emacs", "nano", "gedit", "kate", "mousepad"}, "editor"},
	{[]string{"rhythmbox", "audacious", "clementine"}, "media"},
	{[]string{"thunderbird", "evolution", "geary"}, "email"},
	{[]string{"signal", "element", "matrix"}, "chat"},
}

// NormalizeAppName lower-cases an application identifier, reduces reverse-DNS
// and snap style WM_CLASS values ("org.gnome.Nautilus", "firefox_firefox")
// to their meaningful segment, and maps well known apps to canonical names.
func NormalizeAppName(app string) string {
	lower := strings.ToLower(strings.TrimSpace(app))
	if lower == "" {
		return ""
	}

	name := lower
	if i := strings.LastIndexByte(lower, '.'); i >= 0 {
		name = lower[i+1:]
	} else if i := strings.IndexByte(lower, '_'); i >= 0 {
		name = lower[:i]
	}
	if !hasLetter(name) {
		name = lower
	}

	if name == "soffice" || lower == "soffice.bin" {
		return "libreoffice"
	}
	for _, c := range canonicalApps {
		for _, kw := range c.keywords {
			if strings.Contains(name, kw) {
				return c.name
			}
		}
	}
	return name
}

func hasLetter(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return true
		}
	}
	return false
}

// NormalizeTitle drops titles that carry no information beyond the app.
func NormalizeTitle(app, title string) string {
	title = strings.TrimSpace(title)
	if title == "" || strings.EqualFold(title, app) || title == "Unknown" {
		return ""
	}
	return title
}
