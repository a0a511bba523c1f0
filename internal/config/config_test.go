package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 20, cfg.Match.StartingHP)
	assert.Equal(t, 2, cfg.Match.StartingMaxMana)
	assert.Equal(t, 10, cfg.Match.ManaCap)
	assert.Equal(t, 5, cfg.Match.OpeningHand)
	assert.Equal(t, 30, cfg.Match.DeckSize)
	assert.Equal(t, 1, cfg.Match.DrawsPerTurn)
	assert.Equal(t, 100, cfg.Match.RoundLimit)
	assert.Equal(t, 100, cfg.Match.ActionLimit)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, ":8080", cfg.Server.WebSocket.Address)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hearth.yaml")
	data := []byte(`
match:
  starting_hp: 30
  round_limit: 10
logging:
  level: debug
  format: json
database:
  driver: sqlite
  dsn: results.db
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Match.StartingHP)
	assert.Equal(t, 10, cfg.Match.RoundLimit)
	assert.Equal(t, 100, cfg.Match.ActionLimit, "unset keys keep defaults")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "results.db", cfg.Database.DSN)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HEARTH_MATCH_STARTING_HP", "15")
	t.Setenv("HEARTH_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Match.StartingHP)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero hp", func(c *Config) { c.Match.StartingHP = 0 }},
		{"mana above cap", func(c *Config) { c.Match.StartingMaxMana = 11 }},
		{"negative opening hand", func(c *Config) { c.Match.OpeningHand = -1 }},
		{"empty deck", func(c *Config) { c.Match.DeckSize = 0 }},
		{"no round limit", func(c *Config) { c.Match.RoundLimit = 0 }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mongo" }},
		{"sqlite without dsn", func(c *Config) { c.Database.Driver = "sqlite" }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
