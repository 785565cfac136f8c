package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/aggregator"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/models"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/output"
	"github.com/adolfousier/neura-hustle-tracker-sub000/pkg/utils"
)

// Store is the read side of the session database.
type Store interface {
	GetAppUsageSince(ctx context.Context, since time.Time) ([]models.AppSummary, error)
	GetSessionsSince(ctx context.Context, since time.Time) ([]*models.Session, error)
}

// Report is the usage summary of one period.
type Report struct {
	Period       models.ReportPeriod    `json:"period"`
	Apps         []models.AppSummary    `json:"apps"`
	Hierarchy    []aggregator.Item      `json:"hierarchy"`
	Browsers     []aggregator.Breakdown `json:"browsers,omitempty"`
	Projects     []aggregator.Breakdown `json:"projects,omitempty"`
	Terminals    []aggregator.Breakdown `json:"terminals,omitempty"`
	Files        []aggregator.FileEntry `json:"files,omitempty"`
	TotalSeconds int64                  `json:"total_seconds"` // active time
	TotalMinutes float64                `json:"total_minutes"`
	TotalHours   float64                `json:"total_hours"`
	AFKSeconds   int64                  `json:"afk_seconds"`
	IdleSeconds  int64                  `json:"idle_seconds"`
	GeneratedAt  time.Time              `json:"generated_at"`
}

// Reporter handles report generation
type Reporter struct {
	store Store
	topN  int
	loc   *time.Location
	now   func() time.Time
}

// New creates a new reporter listing topN sub-entries per app, with day
// boundaries in loc.
func New(store Store, topN int, loc *time.Location) *Reporter {
	if loc == nil {
		loc = time.Local
	}
	return &Reporter{
		store: store,
		topN:  topN,
		loc:   loc,
		now:   time.Now,
	}
}

// GenerateReport generates a report for the specified period
func (r *Reporter) GenerateReport(ctx context.Context, periodType string) (*Report, error) {
	period, err := r.getPeriod(periodType)
	if err != nil {
		return nil, err
	}

	// SQL does the per-app sums; the session list feeds the hierarchy.
	summaries, err := r.store.GetAppUsageSince(ctx, period.Start)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get app usage")
	}

	sessions, err := r.store.GetSessionsSince(ctx, period.Start)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sessions")
	}

	report := &Report{
		Period:      *period,
		Apps:        summaries,
		Hierarchy:   aggregator.Hierarchical(sessions, r.topN),
		Browsers:    aggregator.BrowserBreakdown(sessions, aggregator.BrowserChildren),
		Projects:    aggregator.ProjectBreakdown(sessions, aggregator.ProjectChildren),
		Terminals:   aggregator.TerminalBreakdown(sessions, aggregator.TerminalChildren),
		Files:       aggregator.FileBreakdown(sessions, aggregator.FileChildren),
		GeneratedAt: r.now(),
	}

	report.TotalSeconds = aggregator.Total(sessions)
	report.TotalMinutes = float64(report.TotalSeconds) / 60.0
	report.TotalHours = float64(report.TotalSeconds) / 3600.0

	for _, s := range sessions {
		switch {
		case s.Idle():
			report.IdleSeconds += s.Duration
		case s.AFK():
			report.AFKSeconds += s.Duration
		}
	}

	return report, nil
}

// Periods lists the accepted period names.
var Periods = []string{"day", "week", "month"}

// Period returns the time range a report of periodType covers.
func (r *Reporter) Period(periodType string) (*models.ReportPeriod, error) {
	return r.getPeriod(periodType)
}

// getPeriod calculates the time range for the report: today, the last 7
// days or the last 30 days, each ending at the next local midnight.
func (r *Reporter) getPeriod(periodType string) (*models.ReportPeriod, error) {
	now := r.now().In(r.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.loc)
	end := today.AddDate(0, 0, 1)

	var start time.Time
	switch periodType {
	case "day", "today":
		periodType = "day"
		start = today
	case "week":
		start = today.AddDate(0, 0, -6)
	case "month":
		start = today.AddDate(0, 0, -29)
	default:
		return nil, errors.Errorf("invalid period type: %s (valid: %s)", periodType, strings.Join(Periods, ", "))
	}

	return &models.ReportPeriod{
		Start: start,
		End:   end,
		Type:  periodType,
	}, nil
}

// FormatReportText formats the report as human-readable text. With
// breakdown set the browser, project, terminal and file views follow the
// app tables.
func (r *Reporter) FormatReportText(report *Report, breakdown bool) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", output.Bold("Activity Report - "+report.Period.Type))
	fmt.Fprintf(&buf, "Period: %s to %s\n",
		report.Period.Start.Format("2006-01-02 15:04"),
		report.Period.End.Format("2006-01-02 15:04"))
	fmt.Fprintf(&buf, "Active: %s   %s: %s   %s: %s\n\n",
		output.Green(utils.FormatDuration(report.TotalSeconds)),
		output.StateColor("AFK"), utils.FormatDuration(report.AFKSeconds),
		output.StateColor("IDLE"), utils.FormatDuration(report.IdleSeconds))

	if len(report.Apps) == 0 {
		buf.WriteString("No activity recorded for this period.\n")
		return buf.String()
	}

	table := output.NewTable(&buf, []string{"Application", "Category", "Time", "Share", "Sessions"})
	for _, app := range report.Apps {
		_ = table.Append([]string{
			utils.Truncate(app.AppName, 30),
			output.CategoryColor(app.Category),
			utils.FormatDuration(app.TotalSeconds),
			fmt.Sprintf("%.1f%%", app.Percentage),
			fmt.Sprintf("%d", app.SessionCount),
		})
	}
	_ = table.Render()

	buf.WriteString("\n" + output.Bold("Details") + "\n")
	table = output.NewTable(&buf, []string{"Activity", "Time", "Category"})
	for _, item := range report.Hierarchy {
		name := output.Cyan(utils.Truncate(item.DisplayName, 40))
		if item.IsSubEntry {
			name = "  " + utils.Truncate(item.DisplayName, 38)
		}
		_ = table.Append([]string{
			name,
			utils.FormatDuration(item.Duration),
			output.CategoryColor(models.Deref(item.Category)),
		})
	}
	_ = table.Render()

	if breakdown {
		writeBreakdown(&buf, "Browsing", report.Browsers)
		writeBreakdown(&buf, "Projects", report.Projects)
		writeBreakdown(&buf, "Terminals", report.Terminals)
		writeFiles(&buf, report.Files)
	}

	return buf.String()
}

func writeBreakdown(buf *bytes.Buffer, title string, groups []aggregator.Breakdown) {
	if len(groups) == 0 {
		return
	}

	buf.WriteString("\n" + output.Bold(title) + "\n")
	table := output.NewTable(buf, []string{"Name", "Time"})
	for _, g := range groups {
		_ = table.Append([]string{output.Cyan(utils.Truncate(g.Name, 40)), utils.FormatDuration(g.Duration)})
		for _, c := range g.Children {
			_ = table.Append([]string{"  " + utils.Truncate(c.Name, 38), utils.FormatDuration(c.Duration)})
		}
	}
	_ = table.Render()
}

func writeFiles(buf *bytes.Buffer, files []aggregator.FileEntry) {
	if len(files) == 0 {
		return
	}

	buf.WriteString("\n" + output.Bold("Files") + "\n")
	table := output.NewTable(buf, []string{"Project", "File", "Language", "Time"})
	for _, f := range files {
		_ = table.Append([]string{
			f.Project,
			utils.Truncate(f.Filename, 40),
			f.Language,
			utils.FormatDuration(f.Duration),
		})
	}
	_ = table.Render()
}

// FormatReportJSON formats the report as JSON
func (r *Reporter) FormatReportJSON(report *Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal JSON")
	}
	return string(data), nil
}
