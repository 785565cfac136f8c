package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/models"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/output"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/reporter"
	"github.com/adolfousier/neura-hustle-tracker-sub000/pkg/utils"
)

var (
	reportJSON      bool
	reportTop       int
	reportBreakdown bool

	recentLimit int
)

var reportCmd = &cobra.Command{
	Use:       "report [day|week|month]",
	Short:     "Show where the time went",
	Long:      `Summarize active time per app for today, the last 7 days or the last 30 days.`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: append([]string{"today"}, reporter.Periods...),
	RunE: func(cmd *cobra.Command, args []string) error {
		period := "day"
		if len(args) == 1 {
			period = args[0]
		}
		return reportRun(period)
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recent sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return recentRun()
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Output as JSON")
	reportCmd.Flags().IntVar(&reportTop, "top", 0, "Sub-entries shown per app (default from config)")
	reportCmd.Flags().BoolVar(&reportBreakdown, "breakdown", false, "Include browser, project, terminal and file breakdowns")
	recentCmd.Flags().IntVarP(&recentLimit, "limit", "l", 20, "Number of sessions to show")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(recentCmd)
}

func reportRun(period string) error {
	repo, err := getRepo()
	if err != nil {
		return err
	}

	topN := cfg.Report.TopN
	if reportTop > 0 {
		topN = reportTop
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	rep := reporter.New(repo, topN, loc)
	report, err := rep.GenerateReport(context.Background(), period)
	if err != nil {
		return errors.Wrap(err, "failed to generate report")
	}

	if reportJSON {
		out, err := rep.FormatReportJSON(report)
		if err != nil {
			return err
		}
		fmt.Fprintln(ui.Out, out)
		return nil
	}

	fmt.Fprint(ui.Out, rep.FormatReportText(report, reportBreakdown))
	return nil
}

func recentRun() error {
	if recentLimit < 1 {
		return errors.Errorf("limit must be at least 1, got %d", recentLimit)
	}

	repo, err := getRepo()
	if err != nil {
		return err
	}

	sessions, err := repo.GetRecentSessions(context.Background(), recentLimit)
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		ui.Info("No sessions recorded yet. Use '%s start' to begin tracking.", rootCmd.Name())
		return nil
	}

	table := ui.Table([]string{"Start", "End", "Length", "State", "App", "Detail", "Category"})
	for _, s := range sessions {
		_ = table.Append([]string{
			s.StartTime.Format("01-02 15:04:05"),
			s.EndTime().Format("15:04:05"),
			utils.FormatDuration(s.Duration),
			output.StateColor(s.State()),
			utils.Truncate(s.AppName, 20),
			utils.Truncate(sessionDetail(s), 50),
			output.CategoryColor(models.Deref(s.Category)),
		})
	}
	_ = table.Render()
	return nil
}

// sessionDetail is the most specific thing the parser recovered from the
// title, falling back to the raw window title.
func sessionDetail(s *models.Session) string {
	pd := s.ParsedData
	switch {
	case pd.BrowserPageTitle != nil:
		parts := []string{models.Deref(firstOf(s.BrowserPageTitleRenamed, pd.BrowserPageTitle))}
		if pd.BrowserURL != nil {
			parts = append(parts, *pd.BrowserURL)
		}
		return strings.Join(parts, " @ ")
	case pd.EditorFilename != nil:
		return models.Deref(firstOf(s.EditorFilenameRenamed, pd.EditorFilename))
	case pd.TmuxWindowName != nil:
		return "tmux: " + models.Deref(firstOf(s.TmuxWindowNameRenamed, pd.TmuxWindowName))
	case pd.TerminalDirectory != nil:
		return models.Deref(firstOf(s.TerminalDirectoryRenamed, pd.TerminalDirectory))
	case pd.IDEProjectName != nil:
		return *pd.IDEProjectName
	default:
		return s.Window()
	}
}

func firstOf(values ...*string) *string {
	for _, v := range values {
		if v != nil && *v != "" {
			return v
		}
	}
	return nil
}
