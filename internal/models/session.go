package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	// AFKAppName is the app name of the synthetic session opened while away.
	AFKAppName = "AFK"
	// AFKWindowName is the window title of the synthetic AFK session.
	AFKWindowName = "Away from keyboard"
	// UnknownAppName is used when the focused window cannot be inspected.
	UnknownAppName = "Unknown"
)

// ParsedData holds the structured fields recovered from a window title.
// Every field is optional; nil means the parser found nothing for it.
type ParsedData struct {
	BrowserURL               *string `gorm:"column:browser_url" json:"browser_url,omitempty"`
	BrowserPageTitle         *string `gorm:"column:browser_page_title" json:"browser_page_title,omitempty"`
	BrowserNotificationCount *int    `gorm:"column:browser_notification_count" json:"browser_notification_count,omitempty"`

	TerminalUsername    *string `gorm:"column:terminal_username" json:"terminal_username,omitempty"`
	TerminalHostname    *string `gorm:"column:terminal_hostname" json:"terminal_hostname,omitempty"`
	TerminalDirectory   *string `gorm:"column:terminal_directory" json:"terminal_directory,omitempty"`
	TerminalProjectName *string `gorm:"column:terminal_project_name" json:"terminal_project_name,omitempty"`

	EditorFilename    *string `gorm:"column:editor_filename" json:"editor_filename,omitempty"`
	EditorFilepath    *string `gorm:"column:editor_filepath" json:"editor_filepath,omitempty"`
	EditorProjectPath *string `gorm:"column:editor_project_path" json:"editor_project_path,omitempty"`
	EditorLanguage    *string `gorm:"column:editor_language" json:"editor_language,omitempty"`

	TmuxWindowName      *string `gorm:"column:tmux_window_name" json:"tmux_window_name,omitempty"`
	TmuxPaneCount       *int    `gorm:"column:tmux_pane_count" json:"tmux_pane_count,omitempty"`
	TerminalMultiplexer *string `gorm:"column:terminal_multiplexer" json:"terminal_multiplexer,omitempty"`

	IDEProjectName *string `gorm:"column:ide_project_name" json:"ide_project_name,omitempty"`
	IDEFileOpen    *string `gorm:"column:ide_file_open" json:"ide_file_open,omitempty"`
	IDEWorkspace   *string `gorm:"column:ide_workspace" json:"ide_workspace,omitempty"`

	ParsingSuccess bool `gorm:"column:parsing_success;not null" json:"parsing_success"`
}

// Overrides carries the user supplied display names and categories of the
// sub-entry fields. They are filled from stored overrides before persisting.
type Overrides struct {
	BrowserPageTitleRenamed   *string `gorm:"column:browser_page_title_renamed" json:"browser_page_title_renamed,omitempty"`
	BrowserPageTitleCategory  *string `gorm:"column:browser_page_title_category" json:"browser_page_title_category,omitempty"`
	TerminalDirectoryRenamed  *string `gorm:"column:terminal_directory_renamed" json:"terminal_directory_renamed,omitempty"`
	TerminalDirectoryCategory *string `gorm:"column:terminal_directory_category" json:"terminal_directory_category,omitempty"`
	EditorFilenameRenamed     *string `gorm:"column:editor_filename_renamed" json:"editor_filename_renamed,omitempty"`
	EditorFilenameCategory    *string `gorm:"column:editor_filename_category" json:"editor_filename_category,omitempty"`
	TmuxWindowNameRenamed     *string `gorm:"column:tmux_window_name_renamed" json:"tmux_window_name_renamed,omitempty"`
	TmuxWindowNameCategory    *string `gorm:"column:tmux_window_name_category" json:"tmux_window_name_category,omitempty"`
}

// Session is a contiguous interval attributed to one app, window and
// activity state.
type Session struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SessionKey string    `gorm:"uniqueIndex;not null" json:"session_key"`
	AppName    string    `gorm:"not null;index" json:"app_name"`
	WindowName *string   `json:"window_name,omitempty"`
	StartTime  time.Time `gorm:"not null;index" json:"start_time"`
	Duration   int64     `gorm:"not null;default:0" json:"duration"` // seconds
	Category   *string   `json:"category,omitempty"`

	ParsedData `gorm:"embedded"`
	Overrides  `gorm:"embedded"`

	IsAFK      *bool  `gorm:"column:is_afk" json:"is_afk,omitempty"`
	IsIdle     *bool  `gorm:"column:is_idle" json:"is_idle,omitempty"`
	ParsedJSON string `gorm:"column:parsed_data;type:text" json:"parsed_data,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// AFK reports whether the session was recorded while away.
func (s *Session) AFK() bool {
	return s.IsAFK != nil && *s.IsAFK
}

// Idle reports whether the session was promoted to IDLE.
func (s *Session) Idle() bool {
	return s.IsIdle != nil && *s.IsIdle
}

// State is IDLE, AFK or ACTIVE.
func (s *Session) State() string {
	switch {
	case s.Idle():
		return "IDLE"
	case s.AFK():
		return "AFK"
	default:
		return "ACTIVE"
	}
}

// Window returns the window title or an empty string.
func (s *Session) Window() string {
	if s.WindowName == nil {
		return ""
	}
	return *s.WindowName
}

// EndTime is StartTime plus the recorded duration.
func (s *Session) EndTime() time.Time {
	return s.StartTime.Add(time.Duration(s.Duration) * time.Second)
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

// String returns a pointer to s, or nil for an empty string.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the value of p or an empty string.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

type AppSummary struct {
	AppName      string  `json:"app_name"`
	Category     string  `json:"category,omitempty"`
	TotalSeconds int64   `json:"total_seconds"`
	TotalMinutes float64 `json:"total_minutes"`
	TotalHours   float64 `json:"total_hours"`
	SessionCount int     `json:"session_count"`
	Percentage   float64 `json:"percentage,omitempty"`
}

type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "day", "week", "month"
}
