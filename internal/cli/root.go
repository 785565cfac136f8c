// Package cli implements the hustle-tracker command line.
package cli

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/config"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/database"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/output"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui     *output.UI
	cfg    *config.Config
	cfgErr error
	db     *database.DB

	cfgFile string
	verbose bool
)

var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   config.AppName,
	Short: "Track where your desk time goes",
	Long: `hustle-tracker records which application and window has focus,
splits time into ACTIVE, AFK and IDLE sessions, and reports where the
time went per app, page, project, terminal and file.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	err := rootCmd.Execute()
	closeDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.config/hustle-tracker/config.yaml)")
}

func initConfig() {
	cfg, cfgErr = config.Load(cfgFile)
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose

	// The database is opened lazily so config and version work without one.
}

// getConfig returns the loaded configuration or the error that stopped it
// from loading.
func getConfig() (*config.Config, error) {
	if cfgErr != nil {
		return nil, cfgErr
	}
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}

// getRepo opens and migrates the database on first use.
func getRepo() (*database.Repository, error) {
	c, err := getConfig()
	if err != nil {
		return nil, err
	}

	if db == nil {
		path, err := c.DatabasePath()
		if err != nil {
			return nil, err
		}
		ui.VerboseLog("Database: %s", path)

		conn, err := database.Connect(path)
		if err != nil {
			return nil, errors.Wrap(err, "open database")
		}
		if err := conn.Initialize(); err != nil {
			_ = conn.Close()
			return nil, errors.Wrap(err, "migrate database")
		}
		db = conn
	}

	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	repo := database.NewRepository(db)
	repo.SetLocation(loc)
	return repo, nil
}

func closeDB() {
	if db != nil {
		_ = db.Close()
		db = nil
	}
}
