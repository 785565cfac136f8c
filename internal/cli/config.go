package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/config"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = config.ConfigDir

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration after defaults, the config file,
.env and HUSTLE_* environment variables are applied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(ui.Out, "%s version %s\n", config.AppName, buildVersion)
		fmt.Fprintf(ui.Out, "  commit: %s\n", buildCommit)
		fmt.Fprintf(ui.Out, "  built:  %s\n", buildDate)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func configFilePath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configShowRun() error {
	c, err := getConfig()
	if err != nil {
		return err
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	if path, err := c.DatabasePath(); err == nil {
		ui.Info("Database: %s", path)
	}
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, c.String())
	return nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return errors.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	body := "# hustle-tracker configuration\n# See: hustle-tracker config (for effective values)\n\n" + config.Default().String()
	if err := os.WriteFile(cfgPath, []byte(body), 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	ui.Success("Config file created: %s", cfgPath)
	return nil
}
