package main

import (
	"fmt"

	"github.com/magefree/hearth-server-go/internal/console"
	"github.com/magefree/hearth-server-go/internal/game"
	"github.com/magefree/hearth-server-go/internal/repository"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a hot-seat match in the terminal",
	Long: `Play a two-player hot-seat match. Both players share the terminal and
pick moves from numbered menus. The finished match is saved to the
configured result store.`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().String("p1", "Player 1", "name of the first player")
	playCmd.Flags().String("p2", "Player 2", "name of the second player")
	playCmd.Flags().Uint64("seed", 0, "seed for decks and the coin toss (0 = time based)")
	playCmd.Flags().String("deck-list", "", "YAML file with fixed deck lists")
	playCmd.Flags().String("deck", "", "deck list entry both players use (default: first entry)")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{
		"match.seed":        "seed",
		"catalog.deck_list": "deck-list",
	})
	if err != nil {
		return err
	}
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	engine, lists, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	store, err := repository.Open(cmd.Context(), cfg.Database, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	engine.SetResultStore(store)

	p1, _ := cmd.Flags().GetString("p1")
	p2, _ := cmd.Flags().GetString("p2")
	deck, _ := cmd.Flags().GetString("deck")
	if deck == "" && len(lists) > 0 {
		deck = lists[0].Name
	}

	m, err := engine.CreateMatch(game.CreateMatchRequest{
		Players: [2]game.SeatRequest{
			{ID: "p1", Name: p1, DeckName: deck},
			{ID: "p2", Name: p2, DeckName: deck},
		},
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=========================================")
	fmt.Fprintln(out, "             HEARTHGATHERING")
	fmt.Fprintln(out, "=========================================")

	res, err := console.New(engine, cmd.InOrStdin(), out, logger).Play(m.ID)
	if err != nil {
		logger.Warn("match abandoned", zap.String("match_id", m.ID), zap.Error(err))
		return err
	}

	fmt.Fprintf(out, "\nMatch over after %d rounds.\n", res.Round)
	for _, id := range m.PlayerIDs() {
		p, _ := m.Player(id)
		st := m.Stats(id)
		fmt.Fprintf(out, "%s: %d cards played (%d units, %d spells), %d damage dealt, %d damage taken, %d creatures lost\n",
			p.Name, st.CardsPlayed, st.UnitsPlayed, st.SpellsCast, st.DamageDealt, st.DamageTaken, st.CreaturesLost)
	}
	return nil
}
