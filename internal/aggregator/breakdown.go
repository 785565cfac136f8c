package aggregator

import (
	"sort"

	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/models"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/parser"
)

// Default number of children shown per parent in each breakdown.
const (
	BrowserChildren  = 5
	ProjectChildren  = 3
	TerminalChildren = 3
	FileChildren     = 10
)

const otherGroup = "Other"

// Entry is a named duration.
type Entry struct {
	Name     string `json:"name"`
	Duration int64  `json:"duration"`
}

// Breakdown is a parent group with its top children.
type Breakdown struct {
	Name     string  `json:"name"`
	Duration int64   `json:"duration"`
	Children []Entry `json:"children"`
}

// FileEntry is one edited file with its language.
type FileEntry struct {
	Project  string `json:"project"`
	Filename string `json:"filename"`
	Language string `json:"language"`
	Duration int64  `json:"duration"`
}

type tree map[string]map[string]int64

func (t tree) add(parent, child string, d int64) {
	children, ok := t[parent]
	if !ok {
		children = make(map[string]int64)
		t[parent] = children
	}
	children[child] += d
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Duration != entries[j].Duration {
			return entries[i].Duration > entries[j].Duration
		}
		return entries[i].Name < entries[j].Name
	})
}

// flatten orders parents by total and keeps the top limit children of each.
func (t tree) flatten(limit int) []Breakdown {
	out := make([]Breakdown, 0, len(t))
	for parent, children := range t {
		b := Breakdown{Name: parent}
		for name, d := range children {
			b.Duration += d
			b.Children = append(b.Children, Entry{Name: name, Duration: d})
		}
		sortEntries(b.Children)
		if len(b.Children) > limit {
			b.Children = b.Children[:limit]
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Duration != out[j].Duration {
			return out[i].Duration > out[j].Duration
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// BrowserBreakdown groups page titles under their recognised service.
// Pages with no recognised service are left to the app view.
func BrowserBreakdown(sessions []*models.Session, limit int) []Breakdown {
	t := tree{}
	for _, s := range sessions {
		if s == nil || s.AFK() || s.BrowserPageTitle == nil || s.BrowserURL == nil {
			continue
		}
		t.add(*s.BrowserURL, *s.BrowserPageTitle, s.Duration)
	}
	return t.flatten(limit)
}

// ProjectBreakdown groups terminal directories under their project, and IDE
// sessions under their workspace project.
func ProjectBreakdown(sessions []*models.Session, limit int) []Breakdown {
	t := tree{}
	for _, s := range sessions {
		if s == nil || s.AFK() {
			continue
		}
		switch {
		case s.TerminalProjectName != nil && s.TerminalDirectory != nil:
			t.add(*s.TerminalProjectName, *s.TerminalDirectory, s.Duration)
		case s.IDEProjectName != nil:
			t.add(*s.IDEProjectName, "(IDE)", s.Duration)
		}
	}
	return t.flatten(limit)
}

// TerminalBreakdown groups terminal time by tmux window or project.
func TerminalBreakdown(sessions []*models.Session, limit int) []Breakdown {
	t := tree{}
	for _, s := range sessions {
		if s == nil || s.AFK() {
			continue
		}
		if s.TmuxWindowName == nil && s.TerminalProjectName == nil && s.TerminalDirectory == nil {
			if parser.Classify(s.AppName) != parser.ClassTerminal {
				continue
			}
		}

		project := otherGroup
		switch {
		case s.TmuxWindowName != nil:
			project = *s.TmuxWindowName
		case s.TerminalProjectName != nil:
			project = *s.TerminalProjectName
		case s.TerminalDirectory != nil:
			if p := parser.ProjectName(*s.TerminalDirectory); p != "" {
				project = p
			}
		}

		child := "terminal"
		switch {
		case s.TmuxWindowName != nil && s.TerminalDirectory != nil:
			dirProject := parser.ProjectName(*s.TerminalDirectory)
			if dirProject == "" {
				dirProject = *s.TerminalDirectory
			}
			child = dirProject + " (" + *s.TmuxWindowName + ")"
		case s.TmuxWindowName != nil:
			child = "tmux: " + *s.TmuxWindowName
		case s.TerminalDirectory != nil:
			child = *s.TerminalDirectory
		}

		t.add(project, child, s.Duration)
	}
	return t.flatten(limit)
}

// FileBreakdown lists the top edited files per project, projects ordered by
// total time.
func FileBreakdown(sessions []*models.Session, limit int) []FileEntry {
	type key struct{ file, lang string }
	projects := make(map[string]map[key]int64)
	totals := make(map[string]int64)

	for _, s := range sessions {
		if s == nil || s.AFK() || s.EditorFilename == nil || s.EditorLanguage == nil {
			continue
		}
		project := otherGroup
		if s.EditorProjectPath != nil {
			project = *s.EditorProjectPath
		}
		files, ok := projects[project]
		if !ok {
			files = make(map[key]int64)
			projects[project] = files
		}
		files[key{*s.EditorFilename, *s.EditorLanguage}] += s.Duration
		totals[project] += s.Duration
	}

	names := make([]string, 0, len(projects))
	for name := range projects {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if totals[names[i]] != totals[names[j]] {
			return totals[names[i]] > totals[names[j]]
		}
		return names[i] < names[j]
	})

	var out []FileEntry
	for _, project := range names {
		var files []FileEntry
		for k, d := range projects[project] {
			files = append(files, FileEntry{Project: project, Filename: k.file, Language: k.lang, Duration: d})
		}
		sort.Slice(files, func(i, j int) bool {
			if files[i].Duration != files[j].Duration {
				return files[i].Duration > files[j].Duration
			}
			if files[i].Filename != files[j].Filename {
				return files[i].Filename < files[j].Filename
			}
			return files[i].Language < files[j].Language
		})
		if len(files) > limit {
			files = files[:limit]
		}
		out = append(out, files...)
	}
	return out
}
