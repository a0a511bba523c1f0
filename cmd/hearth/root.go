package main

import (
	"fmt"

	"github.com/magefree/hearth-server-go/internal/config"
	"github.com/magefree/hearth-server-go/internal/game"
	"github.com/magefree/hearth-server-go/internal/game/catalog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "dev" // set via ldflags during build

var rootCmd = &cobra.Command{
	Use:           "hearth",
	Short:         "Hearthgathering match engine",
	Long:          "Play Hearthgathering hot-seat matches in the terminal or serve them over websockets.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
}

// loadConfig reads the config file named by --config with flag overrides
// applied. keys maps config keys to flag names on cmd.
func loadConfig(cmd *cobra.Command, keys map[string]string) (*config.Config, error) {
	v := config.New()
	keys["logging.level"] = "log-level"
	if err := bindFlags(v, cmd.Flags(), keys); err != nil {
		return nil, err
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.ReadInto(v, path)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("unknown flag %q", name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

func matchConfig(cfg config.MatchConfig) game.MatchConfig {
	return game.MatchConfig{
		StartingHP:      cfg.StartingHP,
		StartingMaxMana: cfg.StartingMaxMana,
		ManaCap:         cfg.ManaCap,
		OpeningHand:     cfg.OpeningHand,
		DeckSize:        cfg.DeckSize,
		DrawsPerTurn:    cfg.DrawsPerTurn,
		RoundLimit:      cfg.RoundLimit,
		ActionLimit:     cfg.ActionLimit,
	}
}

// newEngine builds the engine from the catalog and deck list settings. It
// returns the loaded deck lists so callers can pick one by name.
func newEngine(cfg *config.Config, logger *zap.Logger) (*game.Engine, []catalog.DeckList, error) {
	var (
		cat *catalog.Catalog
		err error
	)
	if cfg.Catalog.Path != "" {
		cat, err = catalog.Load(cfg.Catalog.Path)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		return nil, nil, err
	}

	engine, err := game.NewEngine(cat, matchConfig(cfg.Match), logger)
	if err != nil {
		return nil, nil, err
	}
	engine.SetSeed(cfg.Match.Seed)

	var lists []catalog.DeckList
	if cfg.Catalog.DeckList != "" {
		lists, err = cat.LoadDeckList(cfg.Catalog.DeckList)
		if err != nil {
			return nil, nil, err
		}
		engine.SetDeckLists(lists)
		logger.Info("deck lists loaded",
			zap.String("path", cfg.Catalog.DeckList),
			zap.Int("decks", len(lists)),
		)
	}
	return engine, lists, nil
}
