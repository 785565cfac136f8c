package parser

import (
	"strings"
	"unicode"

	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/models"
)

const multiplexerTmux = "tmux"

// parseTerminal handles "user@host: directory", optionally wrapped in tmux
// decoration, and bare paths.
func (p *Parser) parseTerminal(title string, d *models.ParsedData) {
	cleaned, window, ok := extractTmux(title)
	if ok {
		d.TmuxWindowName = models.String(window)
		d.TerminalMultiplexer = models.String(multiplexerTmux)
	}

	if at := strings.IndexByte(cleaned, '@'); at >= 0 {
		d.TerminalUsername = models.String(strings.TrimSpace(cleaned[:at]))

		rest := cleaned[at+1:]
		if colon := strings.IndexByte(rest, ':'); colon >= 0 {
			d.TerminalHostname = models.String(strings.TrimSpace(rest[:colon]))
			p.setDirectory(strings.TrimSpace(rest[colon+1:]), d)
		}
		return
	}

	if dir, ok := directoryFallback(cleaned); ok {
		p.setDirectory(dir, d)
	}
}

func (p *Parser) setDirectory(raw string, d *models.ParsedData) {
	dir := p.ExpandTilde(raw)
	if dir == "" {
		return
	}
	d.TerminalDirectory = models.String(dir)
	d.TerminalProjectName = models.String(p.ProjectName(dir))
}

// extractTmux strips tmux decoration from a terminal title. It returns the
// remaining title and the tmux window name when one was recognised.
func extractTmux(title string) (string, string, bool) {
	lower := lowerASCII(title)

	// "tmux: name - rest"
	if i := strings.Index(lower, "tmux:"); i >= 0 {
		after := strings.TrimSpace(title[i+len("tmux:"):])
		if dash := strings.Index(after, " - "); dash >= 0 {
			name := strings.TrimSpace(after[:dash])
			cleaned := strings.TrimSpace(after[dash+3:])
			if prefix := strings.TrimSpace(title[:i]); prefix != "" {
				cleaned = prefix + " " + cleaned
			}
			return strings.TrimSpace(cleaned), name, true
		}
	}

	// "[tmux] name | rest"
	if i := strings.Index(lower, "[tmux]"); i >= 0 {
		after := strings.TrimSpace(title[i+len("[tmux]"):])
		if bar := strings.Index(after, " | "); bar >= 0 {
			name := strings.TrimSpace(after[:bar])
			cleaned := strings.TrimSpace(title[:i]) + after[bar+3:]
			return strings.TrimSpace(cleaned), name, true
		}
	}

	// "rest - tmux (name)"
	if i := strings.Index(lower, " - tmux ("); i >= 0 {
		if end := strings.IndexByte(title[i:], ')'); end >= 0 {
			name := strings.TrimSpace(title[i+len(" - tmux (") : i+end])
			return strings.TrimSpace(title[:i]), name, true
		}
	}

	// "name - tmux"
	if i := strings.Index(lower, " - tmux"); i >= 0 {
		return "", strings.TrimSpace(title[:i]), true
	}

	// "tmux [name] rest"
	if i := strings.Index(lower, "tmux ["); i >= 0 {
		if end := strings.IndexByte(title[i:], ']'); end >= 0 {
			name := strings.TrimSpace(title[i+len("tmux [") : i+end])
			cleaned := strings.TrimSpace(title[:i]) + title[i+end+1:]
			return strings.TrimSpace(cleaned), name, true
		}
	}

	// "name - <something mentioning tmux or alacritty>"
	if strings.Contains(lower, "tmux") {
		if dash := strings.Index(title, " - "); dash >= 0 {
			before := strings.TrimSpace(title[:dash])
			after := strings.TrimSpace(title[dash+3:])
			afterLower := lowerASCII(after)
			if isWindowName(before) && (strings.Contains(afterLower, "tmux") || strings.Contains(afterLower, "alacritty")) {
				return after, before, true
			}
		}
	}

	return title, "", false
}

func isWindowName(s string) bool {
	if len(s) < 2 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' {
			return false
		}
	}
	return true
}

// directoryFallback finds the first path-looking substring: an absolute path
// or a "~" followed by "/" or a letter, whichever starts first.
func directoryFallback(title string) (string, bool) {
	slash := strings.IndexByte(title, '/')
	tilde := -1
	if i := strings.IndexByte(title, '~'); i >= 0 && i+1 < len(title) {
		next := rune(title[i+1])
		if next == '/' || unicode.IsLetter(next) {
			tilde = i
		}
	}

	switch {
	case tilde >= 0 && (slash < 0 || tilde < slash):
		return strings.TrimSpace(title[tilde:]), true
	case slash >= 0:
		return strings.TrimSpace(title[slash:]), true
	default:
		return "", false
	}
}
