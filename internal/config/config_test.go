package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/tally/internal/common"
)

func TestLoad_Defaults(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".local/share/tally/tally.db"), cfg.DatabasePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Zero(t, cfg.HistoryDefaultLimit)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: $TALLY_TEST_DIR/ledger.db
logging:
  level: debug
  format: json
history:
  default_limit: 25
`), 0o600))
	t.Setenv("TALLY_TEST_DIR", dir)

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ledger.db"), cfg.DatabasePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 25, cfg.HistoryDefaultLimit)
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{DatabasePath: "/tmp/x.db", LogLevel: "info", LogFormat: "console"}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "empty path", mutate: func(c *Config) { c.DatabasePath = "" }, want: common.ErrMissingConfig},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, want: common.ErrInvalidConfig},
		{name: "bad format", mutate: func(c *Config) { c.LogFormat = "xml" }, want: common.ErrInvalidConfig},
		{name: "negative limit", mutate: func(c *Config) { c.HistoryDefaultLimit = -1 }, want: common.ErrInvalidConfig},
	}

	require.NoError(t, valid.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("TALLY_X", "/data")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "a/b"), ExpandPath("~/a/b"))
	assert.Equal(t, "/data/ledger.db", ExpandPath("$TALLY_X/ledger.db"))
}
