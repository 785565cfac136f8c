package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppName names the config directory, env prefix and runtime files.
const AppName = "hustle-tracker"

// Poll interval bounds accepted by SetPollInterval and Validate.
const (
	MinPollInterval = 10 * time.Millisecond
	MaxPollInterval = 10 * time.Second
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Tracker  TrackerConfig  `mapstructure:"tracker" yaml:"tracker"`
	Daemon   DaemonConfig   `mapstructure:"daemon" yaml:"daemon"`
	Report   ReportConfig   `mapstructure:"report" yaml:"report"`
	Web      WebConfig      `mapstructure:"web" yaml:"web"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"` // empty means ~/.config/hustle-tracker/hustle.db
}

// TrackerConfig holds tracking behavior configuration
type TrackerConfig struct {
	PollInterval      time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	AFKCheckInterval  time.Duration `mapstructure:"afk_check_interval" yaml:"afk_check_interval"`
	AFKThreshold      time.Duration `mapstructure:"afk_threshold" yaml:"afk_threshold"`
	IdleThreshold     time.Duration `mapstructure:"idle_threshold" yaml:"idle_threshold"`
	AutoSaveInterval  time.Duration `mapstructure:"auto_save_interval" yaml:"auto_save_interval"`
	InspectTimeout    time.Duration `mapstructure:"inspect_timeout" yaml:"inspect_timeout"`
	InputPollInterval time.Duration `mapstructure:"input_poll_interval" yaml:"input_poll_interval"`
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string `mapstructure:"pid_file" yaml:"pid_file"`
	LogFile string `mapstructure:"log_file" yaml:"log_file"`
}

// ReportConfig holds report generation configuration
type ReportConfig struct {
	TopN     int    `mapstructure:"top_n" yaml:"top_n"` // sub-entries shown per app
	TimeZone string `mapstructure:"time_zone" yaml:"time_zone"`
}

// WebConfig holds web server configuration
type WebConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Tracker: TrackerConfig{
			PollInterval:      100 * time.Millisecond,
			AFKCheckInterval:  time.Second,
			AFKThreshold:      300 * time.Second,
			IdleThreshold:     600 * time.Second,
			AutoSaveInterval:  time.Hour,
			InspectTimeout:    2 * time.Second,
			InputPollInterval: time.Second,
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/%s-%d.pid", AppName, os.Getuid()),
			LogFile: fmt.Sprintf("/tmp/%s-%d.log", AppName, os.Getuid()),
		},
		Report: ReportConfig{
			TopN:     3,
			TimeZone: "Local",
		},
		Web: WebConfig{
			Host: "localhost",
			Port: 10000 + os.Getuid()%50000, // per-user default port
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	t := c.Tracker
	if t.PollInterval < MinPollInterval || t.PollInterval > MaxPollInterval {
		return errors.Errorf("poll interval (%v) must be between %v and %v",
			t.PollInterval, MinPollInterval, MaxPollInterval)
	}
	if t.AFKCheckInterval <= 0 {
		return errors.New("AFK check interval must be positive")
	}
	if t.AFKThreshold <= 0 {
		return errors.New("AFK threshold must be positive")
	}
	if t.IdleThreshold < t.AFKThreshold {
		return errors.Errorf("idle threshold (%v) cannot be less than AFK threshold (%v)",
			t.IdleThreshold, t.AFKThreshold)
	}
	if t.AutoSaveInterval <= 0 {
		return errors.New("auto-save interval must be positive")
	}
	if t.InspectTimeout <= 0 {
		return errors.New("inspect timeout must be positive")
	}
	if t.InputPollInterval <= 0 {
		return errors.New("input poll interval must be positive")
	}

	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return errors.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}
	if c.Web.Host == "" {
		return errors.New("web host cannot be empty")
	}

	if c.Daemon.PIDFile == "" {
		return errors.New("PID file path cannot be empty")
	}

	if c.Report.TopN < 1 {
		return errors.Errorf("report top-n must be at least 1, got %d", c.Report.TopN)
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// SetPollInterval sets the poll interval with validation
func (c *Config) SetPollInterval(interval time.Duration) error {
	if interval < MinPollInterval {
		return fmt.Errorf("poll interval cannot be less than %v", MinPollInterval)
	}
	if interval > MaxPollInterval {
		return fmt.Errorf("poll interval cannot be greater than %v", MaxPollInterval)
	}
	c.Tracker.PollInterval = interval
	return nil
}

// SetWebPort sets the web server port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	c.Web.Port = port
	return nil
}

// Location resolves the report time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Report.TimeZone == "" || c.Report.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Report.TimeZone)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid time zone %q", c.Report.TimeZone)
	}
	return loc, nil
}

// ConfigDir returns ~/.config/hustle-tracker.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, ".config", AppName), nil
}

// DatabasePath returns the configured database path or the default one.
func (c *Config) DatabasePath() (string, error) {
	if c.Database.Path != "" {
		return c.Database.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "hustle.db"), nil
}

// String renders the config as YAML.
func (c *Config) String() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return string(out)
}
