// Package aggregator reduces sessions into hierarchical usage views for
// reporting. Every function here is pure and skips AFK sessions.
package aggregator

import (
	"sort"
	"strings"

	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/models"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/parser"
)

// General is the sub-entry of sessions that carry no finer descriptor.
const General = "(general)"

const appIDPrefix = "app_name:"

// SubEntry is the summed time of one descriptor within an app.
type SubEntry struct {
	ID          string  `json:"id"` // "<field>:<original value>"
	DisplayName string  `json:"display_name"`
	Category    *string `json:"category,omitempty"`
	Duration    int64   `json:"duration"`
}

// AppUsage is the summed time of one app and all of its sub-entries.
type AppUsage struct {
	AppName  string     `json:"app_name"`
	Duration int64      `json:"duration"`
	Entries  []SubEntry `json:"entries"` // sorted, includes General
}

// Item is one row of the flattened hierarchical view.
type Item struct {
	DisplayName   string  `json:"display_name"`
	UniqueID      string  `json:"unique_id"`
	Duration      int64   `json:"duration"`
	Category      *string `json:"category,omitempty"`
	ParentAppName string  `json:"parent_app_name"`
	IsSubEntry    bool    `json:"is_sub_entry"`
}

// subEntryOf picks the most specific descriptor available on a session:
// page title, terminal directory, editor filename, tmux window, window title.
func subEntryOf(s *models.Session) SubEntry {
	switch {
	case s.BrowserPageTitle != nil:
		title := *s.BrowserPageTitle
		return SubEntry{
			ID:          models.FieldBrowserPageTitle + ":" + title,
			DisplayName: orDefault(s.BrowserPageTitleRenamed, title),
			Category:    s.BrowserPageTitleCategory,
		}
	case s.TerminalDirectory != nil:
		dir := *s.TerminalDirectory
		project := models.Deref(s.TerminalProjectName)
		if project == "" {
			project = parser.ProjectName(dir)
		}
		if project == "" {
			project = dir
		}
		return SubEntry{
			ID:          models.FieldTerminalDirectory + ":" + dir,
			DisplayName: orDefault(s.TerminalDirectoryRenamed, project),
			Category:    s.TerminalDirectoryCategory,
		}
	case s.EditorFilename != nil:
		file := *s.EditorFilename
		display := file
		if s.EditorLanguage != nil {
			display = file + " (" + *s.EditorLanguage + ")"
		}
		return SubEntry{
			ID:          models.FieldEditorFilename + ":" + file,
			DisplayName: orDefault(s.EditorFilenameRenamed, display),
			Category:    s.EditorFilenameCategory,
		}
	case s.TmuxWindowName != nil:
		window := *s.TmuxWindowName
		return SubEntry{
			ID:          models.FieldTmuxWindowName + ":" + window,
			DisplayName: orDefault(s.TmuxWindowNameRenamed, window),
			Category:    s.TmuxWindowNameCategory,
		}
	case s.WindowName != nil && *s.WindowName != "":
		return SubEntry{ID: "window_name:" + *s.WindowName, DisplayName: *s.WindowName}
	default:
		return SubEntry{ID: General, DisplayName: General}
	}
}

func orDefault(p *string, def string) string {
	if p != nil && *p != "" {
		return *p
	}
	return def
}

// Group sums non-AFK session durations per app and per sub-entry. Apps and
// their entries are sorted by duration descending, ties by name.
func Group(sessions []*models.Session) []AppUsage {
	type bucket struct {
		entries map[string]*SubEntry
		total   int64
	}
	apps := make(map[string]*bucket)

	for _, s := range sessions {
		if s == nil || s.AFK() {
			continue
		}
		app := strings.TrimSpace(s.AppName)
		b, ok := apps[app]
		if !ok {
			b = &bucket{entries: make(map[string]*SubEntry)}
			apps[app] = b
		}

		sub := subEntryOf(s)
		e, ok := b.entries[sub.ID]
		if !ok {
			e = &sub
			b.entries[sub.ID] = e
		}
		e.Duration += s.Duration
		b.total += s.Duration
	}

	usage := make([]AppUsage, 0, len(apps))
	for name, b := range apps {
		entries := make([]SubEntry, 0, len(b.entries))
		for _, e := range b.entries {
			entries = append(entries, *e)
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Duration != entries[j].Duration {
				return entries[i].Duration > entries[j].Duration
			}
			return entries[i].ID < entries[j].ID
		})
		usage = append(usage, AppUsage{AppName: name, Duration: b.total, Entries: entries})
	}

	sort.Slice(usage, func(i, j int) bool {
		if usage[i].Duration != usage[j].Duration {
			return usage[i].Duration > usage[j].Duration
		}
		return usage[i].AppName < usage[j].AppName
	})
	return usage
}

// Hierarchical flattens Group into app headers each followed by its top
// topN sub-entries. General counts toward the app total but is not listed.
func Hierarchical(sessions []*models.Session, topN int) []Item {
	var items []Item
	for _, app := range Group(sessions) {
		items = append(items, Item{
			DisplayName:   app.AppName,
			UniqueID:      appIDPrefix + app.AppName,
			Duration:      app.Duration,
			ParentAppName: app.AppName,
		})

		listed := 0
		for _, e := range app.Entries {
			if listed >= topN {
				break
			}
			if e.ID == General {
				continue
			}
			listed++
			items = append(items, Item{
				DisplayName:   "└─ " + strings.TrimSpace(e.DisplayName),
				UniqueID:      e.ID,
				Duration:      e.Duration,
				Category:      e.Category,
				ParentAppName: app.AppName,
				IsSubEntry:    true,
			})
		}
	}
	return items
}

// Total is the summed duration of every non-AFK session.
func Total(sessions []*models.Session) int64 {
	var total int64
	for _, s := range sessions {
		if s != nil && !s.AFK() {
			total += s.Duration
		}
	}
	return total
}
