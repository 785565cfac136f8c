package database

import (
	"context"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/category"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/models"
)

// ErrUnknownField is returned for override fields other than the five
// supported ones.
var ErrUnknownField = errors.New("unknown override field")

// activeOnly excludes AFK and IDLE sessions.
const activeOnly = "COALESCE(is_afk, 0) = 0 AND COALESCE(is_idle, 0) = 0"

// Repository handles all database operations for sessions, overrides and
// error logs
type Repository struct {
	db  *DB
	now func() time.Time
	loc *time.Location
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db, now: time.Now, loc: time.Local}
}

// SetLocation sets the zone used for day boundaries in period queries.
func (r *Repository) SetLocation(loc *time.Location) {
	if loc != nil {
		r.loc = loc
	}
}

// NewSessionKey returns a fresh sortable session key.
func NewSessionKey() string {
	return ulid.Make().String()
}

// InsertSession upserts a session on its session_key and returns the row
// id. Writing the same session twice updates the row in place, so an
// auto-save checkpoint and the final close end up as one row.
func (r *Repository) InsertSession(ctx context.Context, s *models.Session) (uint, error) {
	if s.SessionKey == "" {
		s.SessionKey = NewSessionKey()
	}

	row := *s
	row.ID = 0
	row.StartTime = s.StartTime.UTC()

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_key"}},
			UpdateAll: true,
		}).
		Create(&row)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to insert session")
	}

	if row.ID == 0 {
		var existing models.Session
		if err := r.db.WithContext(ctx).Select("id").Where("session_key = ?", s.SessionKey).First(&existing).Error; err != nil {
			return 0, errors.Wrap(err, "failed to read back session id")
		}
		row.ID = existing.ID
	}

	s.ID = row.ID
	return row.ID, nil
}

// ApplyRenamesAndCategories copies stored overrides onto s. Only fields
// with a stored override are touched, so applying twice is harmless.
func (r *Repository) ApplyRenamesAndCategories(ctx context.Context, s *models.Session) error {
	keys := map[string]*string{
		models.FieldBrowserPageTitle:  s.BrowserPageTitle,
		models.FieldTerminalDirectory: s.TerminalDirectory,
		models.FieldEditorFilename:    s.EditorFilename,
		models.FieldTmuxWindowName:    s.TmuxWindowName,
	}

	q := r.db.WithContext(ctx).Where("field_type = ? AND original_value = ?", models.FieldAppName, s.AppName)
	for field, value := range keys {
		if value != nil {
			q = q.Or("field_type = ? AND original_value = ?", field, *value)
		}
	}

	var overrides []models.Override
	if err := q.Find(&overrides).Error; err != nil {
		return errors.Wrap(err, "failed to load overrides")
	}

	for _, o := range overrides {
		// Or-ed lookups can match another field with the same value.
		if o.FieldType != models.FieldAppName {
			if v := keys[o.FieldType]; v == nil || *v != o.OriginalValue {
				continue
			}
		}

		renamed, cat := overrideTargets(s, o.FieldType)
		if o.RenamedValue != nil && renamed != nil {
			*renamed = o.RenamedValue
		}
		if o.Category != nil && cat != nil {
			*cat = o.Category
		}
		if o.FieldType == models.FieldAppName && o.RenamedValue != nil {
			s.AppName = *o.RenamedValue
		}
	}
	return nil
}

// overrideTargets returns the session columns an override of field writes.
func overrideTargets(s *models.Session, field string) (renamed **string, cat **string) {
	switch field {
	case models.FieldAppName:
		return nil, &s.Category
	case models.FieldBrowserPageTitle:
		return &s.BrowserPageTitleRenamed, &s.BrowserPageTitleCategory
	case models.FieldTerminalDirectory:
		return &s.TerminalDirectoryRenamed, &s.TerminalDirectoryCategory
	case models.FieldEditorFilename:
		return &s.EditorFilenameRenamed, &s.EditorFilenameCategory
	case models.FieldTmuxWindowName:
		return &s.TmuxWindowNameRenamed, &s.TmuxWindowNameCategory
	}
	return nil, nil
}

func upsertOverride(tx *gorm.DB, field, original string, columns []string, o *models.Override) error {
	o.FieldType = field
	o.OriginalValue = original
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "field_type"}, {Name: "original_value"}},
		DoUpdates: clause.AssignmentColumns(append(columns, "updated_at")),
	}).Create(o).Error
}

// RenameApp renames an app in history and for future sessions, optionally
// assigning a category. Returns the number of historical sessions changed.
func (r *Repository) RenameApp(ctx context.Context, original, renamed, cat string) (int64, error) {
	if original == "" || renamed == "" {
		return 0, errors.New("app names cannot be empty")
	}

	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o := &models.Override{RenamedValue: models.String(renamed), Category: models.String(cat)}
		columns := []string{"renamed_value"}
		if cat != "" {
			columns = append(columns, "category")
		}
		if err := upsertOverride(tx, models.FieldAppName, original, columns, o); err != nil {
			return err
		}

		// Earlier renames that pointed at original now follow it.
		if err := tx.Model(&models.Override{}).
			Where("field_type = ? AND renamed_value = ?", models.FieldAppName, original).
			Update("renamed_value", renamed).Error; err != nil {
			return err
		}

		updates := map[string]any{"app_name": renamed}
		if cat != "" {
			updates["category"] = cat
		}
		result := tx.Model(&models.Session{}).Where("app_name = ?", original).Updates(updates)
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to rename app")
	}
	return affected, nil
}

// SetAppCategory assigns a category to every session of app, past and
// future.
func (r *Repository) SetAppCategory(ctx context.Context, app, cat string) (int64, error) {
	if cat == "" {
		return 0, errors.New("category cannot be empty")
	}

	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o := &models.Override{Category: models.String(cat)}
		if err := upsertOverride(tx, models.FieldAppName, app, []string{"category"}, o); err != nil {
			return err
		}
		result := tx.Model(&models.Session{}).Where("app_name = ?", app).Update("category", cat)
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to set app category")
	}
	return affected, nil
}

func subEntryField(field string) error {
	switch field {
	case models.FieldBrowserPageTitle, models.FieldTerminalDirectory,
		models.FieldEditorFilename, models.FieldTmuxWindowName:
		return nil
	}
	return errors.Wrapf(ErrUnknownField, "%q", field)
}

// RenameField sets the display name of one sub-entry value, e.g. a page
// title, in history and for future sessions.
func (r *Repository) RenameField(ctx context.Context, field, original, renamed string) (int64, error) {
	if field == models.FieldAppName {
		return r.RenameApp(ctx, original, renamed, "")
	}
	if err := subEntryField(field); err != nil {
		return 0, err
	}

	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o := &models.Override{RenamedValue: models.String(renamed)}
		if err := upsertOverride(tx, field, original, []string{"renamed_value"}, o); err != nil {
			return err
		}
		result := tx.Model(&models.Session{}).Where(field+" = ?", original).Update(field+"_renamed", models.String(renamed))
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, errors.Wrapf(err, "failed to rename %s", field)
	}
	return affected, nil
}

// CategorizeField assigns a category to one sub-entry value, or to an app
// when field is app_name.
func (r *Repository) CategorizeField(ctx context.Context, field, original, cat string) (int64, error) {
	if field == models.FieldAppName {
		return r.SetAppCategory(ctx, original, cat)
	}
	if err := subEntryField(field); err != nil {
		return 0, err
	}
	if cat == "" {
		return 0, errors.New("category cannot be empty")
	}

	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o := &models.Override{Category: models.String(cat)}
		if err := upsertOverride(tx, field, original, []string{"category"}, o); err != nil {
			return err
		}
		result := tx.Model(&models.Session{}).Where(field+" = ?", original).Update(field+"_category", cat)
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, errors.Wrapf(err, "failed to categorize %s", field)
	}
	return affected, nil
}

// GetAppCategory returns the stored category override of app, or "".
func (r *Repository) GetAppCategory(ctx context.Context, app string) (string, error) {
	var o models.Override
	err := r.db.WithContext(ctx).
		Where("field_type = ? AND original_value = ? AND category IS NOT NULL", models.FieldAppName, app).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", errors.Wrap(err, "failed to get app category")
	}
	return models.Deref(o.Category), nil
}

// ListOverrides returns every stored override.
func (r *Repository) ListOverrides(ctx context.Context) ([]models.Override, error) {
	var overrides []models.Override
	if err := r.db.WithContext(ctx).Order("field_type, original_value").Find(&overrides).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list overrides")
	}
	return overrides, nil
}

// GetCustomCategories lists user defined category labels in use.
func (r *Repository) GetCustomCategories(ctx context.Context) ([]string, error) {
	var fromSessions, fromOverrides []string

	if err := r.db.WithContext(ctx).Model(&models.Session{}).
		Distinct("category").Where("category IS NOT NULL").
		Pluck("category", &fromSessions).Error; err != nil {
		return nil, errors.Wrap(err, "failed to query session categories")
	}
	if err := r.db.WithContext(ctx).Model(&models.Override{}).
		Distinct("category").Where("category IS NOT NULL").
		Pluck("category", &fromOverrides).Error; err != nil {
		return nil, errors.Wrap(err, "failed to query override categories")
	}

	seen := make(map[string]bool)
	var custom []string
	for _, c := range append(fromSessions, fromOverrides...) {
		if c == "" || seen[c] || category.IsBuiltin(c) {
			continue
		}
		seen[c] = true
		custom = append(custom, c)
	}
	sort.Strings(custom)
	return custom, nil
}

// LogError records a non-fatal tracker failure.
func (r *Repository) LogError(ctx context.Context, source, msg string) error {
	return r.CreateErrorLog(ctx, &models.ErrorLog{
		Timestamp: r.now().UTC(),
		Source:    source,
		ErrorMsg:  msg,
	})
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(ctx context.Context, errorLog *models.ErrorLog) error {
	result := r.db.WithContext(ctx).Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// GetRecentErrors returns the latest error log entries.
func (r *Repository) GetRecentErrors(ctx context.Context, limit int) ([]models.ErrorLog, error) {
	var logs []models.ErrorLog
	if err := r.db.WithContext(ctx).Order("timestamp DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to query error logs")
	}
	return logs, nil
}

func (r *Repository) findSessions(ctx context.Context, q *gorm.DB, what string) ([]*models.Session, error) {
	var sessions []*models.Session
	if err := q.WithContext(ctx).Order("start_time DESC").Order("id DESC").Find(&sessions).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to query %s sessions", what)
	}
	for _, s := range sessions {
		s.StartTime = s.StartTime.In(r.loc)
	}
	return sessions, nil
}

// GetRecentSessions returns the latest limit sessions.
func (r *Repository) GetRecentSessions(ctx context.Context, limit int) ([]*models.Session, error) {
	return r.findSessions(ctx, r.db.Limit(limit), "recent")
}

// GetSessionsSince returns sessions started at or after since.
func (r *Repository) GetSessionsSince(ctx context.Context, since time.Time) ([]*models.Session, error) {
	return r.findSessions(ctx, r.db.Where("start_time >= ?", since.UTC()), "period")
}

// DayStart returns local midnight of the day containing t.
func DayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// GetDailySessions returns sessions since local midnight.
func (r *Repository) GetDailySessions(ctx context.Context) ([]*models.Session, error) {
	return r.GetSessionsSince(ctx, DayStart(r.now(), r.loc))
}

// GetWeeklySessions returns sessions of today and the previous six days.
func (r *Repository) GetWeeklySessions(ctx context.Context) ([]*models.Session, error) {
	return r.GetSessionsSince(ctx, DayStart(r.now(), r.loc).AddDate(0, 0, -6))
}

// GetMonthlySessions returns sessions of today and the previous 29 days.
func (r *Repository) GetMonthlySessions(ctx context.Context) ([]*models.Session, error) {
	return r.GetSessionsSince(ctx, DayStart(r.now(), r.loc).AddDate(0, 0, -29))
}

// GetAppUsageSince sums active time per app, excluding AFK and IDLE
// sessions. The zero time means all history.
func (r *Repository) GetAppUsageSince(ctx context.Context, since time.Time) ([]models.AppSummary, error) {
	var summaries []models.AppSummary

	result := r.db.WithContext(ctx).Model(&models.Session{}).
		Select("app_name, COALESCE(MAX(category), '') as category, SUM(duration) as total_seconds, COUNT(*) as session_count").
		Where("start_time >= ?", since.UTC()).
		Where(activeOnly).
		Group("app_name").
		Order("total_seconds DESC").
		Scan(&summaries)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query app usage")
	}

	var total int64
	for _, s := range summaries {
		total += s.TotalSeconds
	}
	for i := range summaries {
		s := &summaries[i]
		s.TotalMinutes = float64(s.TotalSeconds) / 60
		s.TotalHours = float64(s.TotalSeconds) / 3600
		if total > 0 {
			s.Percentage = float64(s.TotalSeconds) / float64(total) * 100
		}
	}
	return summaries, nil
}

// GetLatest retrieves the most recent session
func (r *Repository) GetLatest(ctx context.Context) (*models.Session, error) {
	var session models.Session
	result := r.db.WithContext(ctx).Order("start_time DESC").Order("id DESC").First(&session)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get latest session")
	}
	session.StartTime = session.StartTime.In(r.loc)
	return &session, nil
}

// DeleteOldSessions deletes sessions started before a cutoff (soft delete)
func (r *Repository) DeleteOldSessions(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("start_time < ?", before.UTC()).Delete(&models.Session{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old sessions")
	}
	return result.RowsAffected, nil
}

// Clear removes all sessions and error logs. Overrides are kept.
func (r *Repository) Clear(ctx context.Context) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM sessions").Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM error_logs").Error
	})
	if err != nil {
		return errors.Wrap(err, "failed to clear sessions")
	}
	return nil
}
