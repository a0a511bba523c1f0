package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/magefree/hearth-server-go/internal/repository"
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "List stored match results",
	RunE:  runResults,
}

func init() {
	resultsCmd.Flags().Int("limit", 20, "maximum number of results to list")
	resultsCmd.Flags().String("player", "", "show the win/loss record of one player")
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{})
	if err != nil {
		return err
	}
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	store, err := repository.Open(cmd.Context(), cfg.Database, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if player, _ := cmd.Flags().GetString("player"); player != "" {
		st, err := store.PlayerRecord(cmd.Context(), player)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d matches, %d wins, %d losses, %d draws\n",
			st.Player, st.Matches, st.Wins, st.Losses, st.Draws)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	records, err := store.ListResults(cmd.Context(), limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ENDED\tPLAYERS\tWINNER\tREASON\tROUNDS\tSPELLS\tDEATHS\tDAMAGE")
	for _, r := range records {
		winner := r.Winner
		if winner == "" {
			winner = "-"
		}
		fmt.Fprintf(w, "%s\t%s vs %s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.EndedAt.Format("2006-01-02 15:04"), r.Players[0], r.Players[1], winner, r.Reason,
			r.Rounds, r.SpellsCast, r.CreaturesDied, r.DamageDealt)
	}
	return w.Flush()
}
