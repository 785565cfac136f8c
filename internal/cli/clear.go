package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	clearBefore string
	clearYes    bool
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete tracking data",
	Long: `Delete every session and error log, or with --before only the sessions
that started before a cutoff. Renames and categories are kept.`,
	Example: `  hustle-tracker clear --before 90d
  hustle-tracker clear --before 2025-01-01
  hustle-tracker clear --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return clearRun(cmd.InOrStdin())
	},
}

func init() {
	clearCmd.Flags().StringVar(&clearBefore, "before", "", "Only delete sessions older than this (e.g. 30d, 12h, 2025-01-01)")
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(clearCmd)
}

// parseBefore accepts a day count ("30d"), a Go duration ("36h") or a
// local date ("2006-01-02") and returns the cutoff time.
func parseBefore(s string, now time.Time, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty cutoff")
	}

	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return time.Time{}, errors.Errorf("invalid day count %q", s)
		}
		return now.AddDate(0, 0, -n), nil
	}

	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			return time.Time{}, errors.Errorf("negative duration %q", s)
		}
		return now.Add(-d), nil
	}

	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, errors.Errorf("invalid cutoff %q (use 30d, 12h or 2006-01-02)", s)
	}
	return t, nil
}

func confirm(in io.Reader, prompt string) bool {
	fmt.Fprintf(ui.Out, "%s (yes/no): ", prompt)
	var response string
	_, _ = fmt.Fscanln(in, &response)
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "yes" || response == "y"
}

func clearRun(in io.Reader) error {
	c, err := getConfig()
	if err != nil {
		return err
	}
	loc, err := c.Location()
	if err != nil {
		return err
	}

	var cutoff time.Time
	if clearBefore != "" {
		cutoff, err = parseBefore(clearBefore, time.Now(), loc)
		if err != nil {
			return err
		}
	}

	prompt := "This will delete all tracking data. Are you sure?"
	if !cutoff.IsZero() {
		prompt = fmt.Sprintf("This will delete sessions started before %s. Are you sure?", cutoff.In(loc).Format("2006-01-02 15:04"))
	}
	if !clearYes && !confirm(in, prompt) {
		ui.Info("Operation cancelled")
		return nil
	}

	repo, err := getRepo()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if cutoff.IsZero() {
		if err := repo.Clear(ctx); err != nil {
			return err
		}
		ui.Success("Database cleared")
		return nil
	}

	n, err := repo.DeleteOldSessions(ctx, cutoff)
	if err != nil {
		return err
	}
	ui.Success("Deleted %d sessions", n)
	return nil
}
