package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/config"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/daemon"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/database"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/models"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/output"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/tracker"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/web"
	"github.com/adolfousier/neura-hustle-tracker-sub000/pkg/detector"
	"github.com/adolfousier/neura-hustle-tracker-sub000/pkg/utils"
)

const stopTimeout = 10 * time.Second

var (
	servePort int
	startWeb  bool
	startPort int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the tracker in the foreground",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTracker(false, 0)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tracker with the web dashboard in the foreground",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTracker(true, servePort)
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the tracker as a background daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startRun()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopRun()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status, the last session and the focused window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statusRun()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Web server port (default from config)")
	startCmd.Flags().BoolVar(&startWeb, "web", false, "Also serve the web dashboard")
	startCmd.Flags().IntVarP(&startPort, "port", "p", 0, "Web server port, implies --web")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
}

// runTracker tracks focus until SIGINT or SIGTERM, optionally serving the
// dashboard from the same process.
func runTracker(withWeb bool, port int) error {
	c, err := getConfig()
	if err != nil {
		return err
	}

	if daemon.IsChild() {
		restore, err := daemon.RedirectLog(c.Daemon.LogFile)
		if err != nil {
			return err
		}
		defer restore()
	}

	dm := daemon.New(c.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return errors.Wrap(err, "failed to check daemon status")
	}
	if running {
		return errors.Errorf("tracker is already running (PID: %d)", pid)
	}

	repo, err := getRepo()
	if err != nil {
		return err
	}

	det, err := detector.New(c.Tracker.InputPollInterval)
	if err != nil {
		return errors.Wrap(err, "failed to initialize window detector")
	}
	defer det.Close()

	log.Printf("Window detector initialized: %s (%s)", det.DisplayServer, det.Inspector.Name())

	if err := dm.WritePID(); err != nil {
		return err
	}
	defer func() {
		if err := dm.RemovePID(); err != nil {
			log.Printf("Failed to remove PID file: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			log.Println("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	go det.Monitor.Run(ctx)

	trackerSvc := tracker.NewService(c.Tracker, repo, det.Inspector, det.Monitor)

	var webServer *web.Server
	if withWeb {
		webServer = web.NewServer(c, repo, trackerSvc, port)
		go func() {
			if err := webServer.Start(); err != nil && err != http.ErrServerClosed {
				log.Printf("Web server error: %v", err)
				cancel()
			}
		}()
		log.Printf("Web dashboard available at: http://%s", webServer.GetAddress())
	}

	log.Println("Starting hustle-tracker...")
	log.Printf("Configuration:\n%s", c.String())

	err = trackerSvc.Start(ctx)

	if webServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), stopTimeout)
		defer shutdownCancel()
		if err := webServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down web server: %v", err)
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "tracker error")
	}

	log.Println("Tracker stopped")
	return nil
}

// daemonArgs is the command line the detached child runs with.
func daemonArgs(withWeb bool, port int) []string {
	args := []string{"run"}
	if withWeb || port > 0 {
		args = []string{"serve"}
		if port > 0 {
			args = append(args, "--port", strconv.Itoa(port))
		}
	}
	if cfgFile != "" {
		args = append(args, "--config", cfgFile)
	}
	return args
}

func startRun() error {
	c, err := getConfig()
	if err != nil {
		return err
	}

	dm := daemon.New(c.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return errors.Wrap(err, "failed to check daemon status")
	}
	if running {
		ui.Warning("Daemon is already running (PID: %d)", pid)
		return nil
	}

	args := daemonArgs(startWeb, startPort)
	ui.VerboseLog("Spawning: %v", args)

	pid, err = daemon.Spawn(args)
	if err != nil {
		return err
	}

	ui.Success("Daemon started (PID: %d)", pid)
	if startWeb || startPort > 0 {
		port := c.Web.Port
		if startPort > 0 {
			port = startPort
		}
		ui.Info("Web dashboard: http://%s:%d", c.Web.Host, port)
	}
	ui.Info("Logs: %s", c.Daemon.LogFile)
	return nil
}

func stopRun() error {
	c, err := getConfig()
	if err != nil {
		return err
	}

	dm := daemon.New(c.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return errors.Wrap(err, "failed to check daemon status")
	}
	if !running {
		ui.Info("Daemon is not running")
		return nil
	}

	ui.Info("Stopping daemon (PID: %d)...", pid)
	if err := dm.Stop(stopTimeout); err != nil {
		return err
	}
	ui.Success("Daemon stopped")
	return nil
}

func statusRun() error {
	c, err := getConfig()
	if err != nil {
		return err
	}

	dm := daemon.New(c.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return errors.Wrap(err, "failed to check daemon status")
	}

	w := ui.Out
	if running {
		fmt.Fprintf(w, "Status:   %s (PID: %d)\n", output.Green("running"), pid)
	} else {
		fmt.Fprintf(w, "Status:   %s\n", output.Yellow("not running"))
	}

	if path, err := c.DatabasePath(); err == nil {
		fmt.Fprintf(w, "Database: %s\n", path)
	}
	fmt.Fprintf(w, "Logs:     %s\n", c.Daemon.LogFile)

	repo, err := getRepo()
	if err != nil {
		ui.Warning("Could not open database: %v", err)
	} else {
		showLastSession(repo, c)
	}

	showCurrentWindow(c.Tracker.InputPollInterval, c.Tracker.InspectTimeout)
	return nil
}

func showLastSession(repo *database.Repository, c *config.Config) {
	ctx := context.Background()
	loc, err := c.Location()
	if err != nil {
		loc = time.Local
	}

	latest, err := repo.GetLatest(ctx)
	if err != nil {
		ui.Warning("Could not read last session: %v", err)
		return
	}
	if latest == nil {
		return
	}

	w := ui.Out
	fmt.Fprintf(w, "\n%s\n", output.Bold("Last Session"))
	fmt.Fprintf(w, "  App:     %s\n", latest.AppName)
	if title := latest.Window(); title != "" {
		fmt.Fprintf(w, "  Window:  %s\n", utils.Truncate(title, 60))
	}
	fmt.Fprintf(w, "  State:   %s\n", output.StateColor(latest.State()))
	if label, err := repo.GetAppCategory(ctx, latest.AppName); err == nil && label != "" {
		fmt.Fprintf(w, "  Custom:  %s\n", output.CategoryColor(label))
	}
	fmt.Fprintf(w, "  Started: %s\n", latest.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  Length:  %s\n", utils.FormatDuration(latest.Duration))

	usage, err := repo.GetAppUsageSince(ctx, database.DayStart(time.Now(), loc))
	if err != nil {
		return
	}
	var total int64
	for _, app := range usage {
		total += app.TotalSeconds
	}
	fmt.Fprintf(w, "  Today:   %s active\n", output.Green(utils.FormatDuration(total)))
}

func showCurrentWindow(inputPoll, timeout time.Duration) {
	det, err := detector.New(inputPoll)
	if err != nil {
		ui.Warning("Could not detect current window: %v", err)
		return
	}
	defer det.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	w := ui.Out
	fmt.Fprintf(w, "\n%s\n", output.Bold("Current Window"))
	fmt.Fprintf(w, "  Display: %s\n", det.DisplayServer)

	info, err := det.Inspector.Probe(ctx)
	if err != nil {
		fmt.Fprintf(w, "  App:     %s (%v)\n", models.UnknownAppName, err)
	} else {
		fmt.Fprintf(w, "  App:     %s\n", info.AppName)
		if info.WindowTitle != "" {
			fmt.Fprintf(w, "  Title:   %s\n", utils.Truncate(info.WindowTitle, 60))
		}
		fmt.Fprintf(w, "  Via:     %s\n", det.Inspector.LastMethod())
	}

	det.Monitor.Poll(ctx)
	idle := time.Since(det.Monitor.LastInput()).Round(time.Second)
	fmt.Fprintf(w, "  Idle:    %s\n", utils.FormatDuration(int64(idle/time.Second)))
}
