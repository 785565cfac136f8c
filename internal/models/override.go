package models

import "time"

// Field types an override can be keyed by.
const (
	FieldAppName           = "app_name"
	FieldBrowserPageTitle  = "browser_page_title"
	FieldTerminalDirectory = "terminal_directory"
	FieldEditorFilename    = "editor_filename"
	FieldTmuxWindowName    = "tmux_window_name"
)

// OverrideFields lists every field type in the order overrides are applied.
var OverrideFields = []string{
	FieldAppName,
	FieldBrowserPageTitle,
	FieldTerminalDirectory,
	FieldEditorFilename,
	FieldTmuxWindowName,
}

// IsOverrideField reports whether field can carry a rename or category.
func IsOverrideField(field string) bool {
	for _, f := range OverrideFields {
		if f == field {
			return true
		}
	}
	return false
}

// Override is a user supplied rename and/or category for one original value
// of one field type.
type Override struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	FieldType     string    `gorm:"not null;uniqueIndex:idx_override_key" json:"field_type"`
	OriginalValue string    `gorm:"not null;uniqueIndex:idx_override_key" json:"original_value"`
	RenamedValue  *string   `json:"renamed_value,omitempty"`
	Category      *string   `json:"category,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
