package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/Veraticus/tally/internal/common"
)

// Configuration keys.
const (
	KeyDatabasePath        = "database.path"
	KeyLogLevel            = "logging.level"
	KeyLogFormat           = "logging.format"
	KeyHistoryDefaultLimit = "history.default_limit"
)

// DefaultDatabasePath is where the ledger lives unless configured otherwise.
const DefaultDatabasePath = "~/.local/share/tally/tally.db"

// Config is the typed view of the loaded configuration.
type Config struct {
	DatabasePath        string
	LogLevel            string
	LogFormat           string
	HistoryDefaultLimit int
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, DefaultDatabasePath)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyHistoryDefaultLimit, 0)
}

// Load reads the configuration from v, expands the database path and
// validates the result.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		DatabasePath:        ExpandPath(v.GetString(KeyDatabasePath)),
		LogLevel:            v.GetString(KeyLogLevel),
		LogFormat:           v.GetString(KeyLogFormat),
		HistoryDefaultLimit: v.GetInt(KeyHistoryDefaultLimit),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: %s must be set", common.ErrMissingConfig, KeyDatabasePath)
	}
	if _, err := common.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: %s must be console or json, got %q", common.ErrInvalidConfig, KeyLogFormat, c.LogFormat)
	}
	if c.HistoryDefaultLimit < 0 {
		return fmt.Errorf("%w: %s must not be negative", common.ErrInvalidConfig, KeyHistoryDefaultLimit)
	}
	return nil
}
