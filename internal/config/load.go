package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// HUSTLE_TRACKER_AFK_THRESHOLD=10m.
const EnvPrefix = "HUSTLE"

// Load layers defaults, the YAML config file, a .env file in the working
// directory and HUSTLE_* environment variables, then validates the result.
// An empty file means ~/.config/hustle-tracker/config.yaml if present.
func Load(file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to read .env")
	}

	v := viper.New()
	setDefaults(v, Default())

	if file != "" {
		v.SetConfigFile(file)
	} else if dir, err := ConfigDir(); err == nil {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("database.path", EnvPrefix+"_DATABASE_PATH", EnvPrefix+"_DB_PATH")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}

	if cfg.Database.Path != "" {
		cfg.Database.Path = expandHome(cfg.Database.Path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("tracker.poll_interval", d.Tracker.PollInterval)
	v.SetDefault("tracker.afk_check_interval", d.Tracker.AFKCheckInterval)
	v.SetDefault("tracker.afk_threshold", d.Tracker.AFKThreshold)
	v.SetDefault("tracker.idle_threshold", d.Tracker.IdleThreshold)
	v.SetDefault("tracker.auto_save_interval", d.Tracker.AutoSaveInterval)
	v.SetDefault("tracker.inspect_timeout", d.Tracker.InspectTimeout)
	v.SetDefault("tracker.input_poll_interval", d.Tracker.InputPollInterval)

	v.SetDefault("daemon.pid_file", d.Daemon.PIDFile)
	v.SetDefault("daemon.log_file", d.Daemon.LogFile)

	v.SetDefault("report.top_n", d.Report.TopN)
	v.SetDefault("report.time_zone", d.Report.TimeZone)

	v.SetDefault("web.host", d.Web.Host)
	v.SetDefault("web.port", d.Web.Port)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
