// Package config loads server and match settings from file, environment
// and flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. HEARTH_MATCH_ROUND_LIMIT.
const EnvPrefix = "HEARTH"

// Config is the complete application configuration.
type Config struct {
	Match    MatchConfig    `mapstructure:"match"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
}

// MatchConfig holds the rules numbers every new match is created with.
type MatchConfig struct {
	StartingHP      int    `mapstructure:"starting_hp"`
	StartingMaxMana int    `mapstructure:"starting_max_mana"`
	ManaCap         int    `mapstructure:"mana_cap"`
	OpeningHand     int    `mapstructure:"opening_hand"`
	DeckSize        int    `mapstructure:"deck_size"`
	DrawsPerTurn    int    `mapstructure:"draws_per_turn"`
	RoundLimit      int    `mapstructure:"round_limit"`
	ActionLimit     int    `mapstructure:"action_limit"`
	Seed            uint64 `mapstructure:"seed"`
}

// CatalogConfig points at card data. Empty paths use the built-in catalog
// and random decks.
type CatalogConfig struct {
	Path     string `mapstructure:"path"`
	DeckList string `mapstructure:"deck_list"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig selects the match result store.
type DatabaseConfig struct {
	// Driver is one of memory, sqlite or postgres.
	Driver         string        `mapstructure:"driver"`
	DSN            string        `mapstructure:"dsn"`
	MaxConnections int32         `mapstructure:"max_connections"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// ServerConfig configures the websocket server.
type ServerConfig struct {
	WebSocket       WebSocketConfig `mapstructure:"websocket"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
}

// WebSocketConfig holds websocket listener settings.
type WebSocketConfig struct {
	Address        string        `mapstructure:"address"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Defaults always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("match.starting_hp", 20)
	v.SetDefault("match.starting_max_mana", 2)
	v.SetDefault("match.mana_cap", 10)
	v.SetDefault("match.opening_hand", 5)
	v.SetDefault("match.deck_size", 30)
	v.SetDefault("match.draws_per_turn", 1)
	v.SetDefault("match.round_limit", 100)
	v.SetDefault("match.action_limit", 100)
	v.SetDefault("match.seed", 0)

	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.deck_list", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_connections", 4)
	v.SetDefault("database.connect_timeout", 5*time.Second)

	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.websocket.read_timeout", 60*time.Second)
	v.SetDefault("server.websocket.write_timeout", 10*time.Second)
	v.SetDefault("server.websocket.max_message_size", 64*1024)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
}

// New returns a viper instance with defaults and environment overrides
// applied. Callers may bind flags to it before passing it to Decode.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional YAML file at path on top of the defaults and
// environment. A missing file is not an error when path is empty.
func Load(path string) (*Config, error) {
	v := New()
	return ReadInto(v, path)
}

// ReadInto reads the file at path into v, then decodes and validates.
func ReadInto(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return Decode(v)
}

// Decode unmarshals v and validates the result.
func Decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no match could be played with.
func (c *Config) Validate() error {
	var errs []error
	m := c.Match
	if m.StartingHP <= 0 {
		errs = append(errs, fmt.Errorf("match.starting_hp must be positive, got %d", m.StartingHP))
	}
	if m.StartingMaxMana < 0 || m.ManaCap <= 0 || m.StartingMaxMana > m.ManaCap {
		errs = append(errs, fmt.Errorf("match mana must satisfy 0 <= starting_max_mana (%d) <= mana_cap (%d)", m.StartingMaxMana, m.ManaCap))
	}
	if m.OpeningHand < 0 || m.DrawsPerTurn < 0 {
		errs = append(errs, errors.New("match.opening_hand and match.draws_per_turn must not be negative"))
	}
	if m.DeckSize <= 0 {
		errs = append(errs, fmt.Errorf("match.deck_size must be positive, got %d", m.DeckSize))
	}
	if m.RoundLimit <= 0 || m.ActionLimit <= 0 {
		errs = append(errs, errors.New("match.round_limit and match.action_limit must be positive"))
	}

	switch c.Database.Driver {
	case "memory":
	case "sqlite", "postgres":
		if c.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database.driver %q", c.Database.Driver))
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.format %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}
