package parser

import (
	"strings"
	"unicode"
)

const homeProject = "Home"

var skipDirs = map[string]bool{
	"bin": true, "usr": true, "etc": true, "var": true, "tmp": true,
	"dev": true, "proc": true, "sys": true, "home": true, "root": true,
}

// ExpandTilde replaces a leading "~" with the parser's home directory.
func (p *Parser) ExpandTilde(path string) string {
	if p.home == "" {
		return path
	}
	if path == "~" {
		return p.home
	}
	if strings.HasPrefix(path, "~/") {
		return p.home + path[1:]
	}
	return path
}

// ProjectName derives a project name from a directory path, or "" when the
// path has nothing that looks like one.
func (p *Parser) ProjectName(path string) string {
	if path == "~" {
		return homeProject
	}

	if p.home != "" {
		if path == p.home {
			return homeProject
		}
		if strings.HasPrefix(path, p.home+"/") {
			parts := strings.Split(path[len(p.home)+1:], "/")
			for i := len(parts) - 1; i >= 0; i-- {
				if meaningful(parts[i]) && len(parts[i]) >= 2 {
					return parts[i]
				}
			}
			if parts[0] != "" {
				return parts[0]
			}
		}
	}

	parts := strings.Split(path, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		part := parts[i]
		if !meaningful(part) || skipDirs[strings.ToLower(part)] {
			continue
		}
		if first := []rune(part)[0]; unicode.IsLetter(first) && len(part) >= 2 {
			return part
		}
	}
	for i := len(parts) - 1; i >= 0; i-- {
		if meaningful(parts[i]) && !skipDirs[strings.ToLower(parts[i])] {
			return parts[i]
		}
	}

	return ""
}

func meaningful(part string) bool {
	return part != "" && part != "." && part != ".."
}
