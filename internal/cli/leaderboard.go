package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"codequest-quiz-service/internal/app"
	"codequest-quiz-service/internal/domain"
	"github.com/spf13/cobra"
)

// NewLeaderboardCmd inspects and maintains the configured leaderboard store.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show or clear leaderboards",
	}
	cmd.AddCommand(newLeaderboardShowCmd(configPath), newLeaderboardClearCmd(configPath))
	return cmd
}

func newLeaderboardShowCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "show [subject]",
		Short: "Print ranked scores for one subject, or for every subject",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, cleanup, err := openLeaderboard(cmd, *configPath)
			if err != nil {
				return err
			}
			defer cleanup.Close()

			var boards []domain.Leaderboard
			if len(args) == 1 {
				entries, err := board.FetchRanked(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				boards = []domain.Leaderboard{{Subject: args[0], Entries: entries}}
			} else {
				boards, err = board.Overview(cmd.Context())
				if err != nil {
					return err
				}
			}
			return printBoards(cmd.OutOrStdout(), boards, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many entries per subject (0 = all)")
	return cmd
}

func newLeaderboardClearCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <subject>",
		Short: "Delete every score of a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, cleanup, err := openLeaderboard(cmd, *configPath)
			if err != nil {
				return err
			}
			defer cleanup.Close()

			if err := board.Clear(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared leaderboard %q\n", args[0])
			return nil
		},
	}
}

func openLeaderboard(cmd *cobra.Command, configPath string) (*app.Leaderboard, closers, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	var cleanup closers
	store, err := newScoreStore(cmd.Context(), cfg, &cleanup)
	if err != nil {
		cleanup.Close()
		return nil, nil, err
	}
	return app.NewLeaderboard(store), cleanup, nil
}

func printBoards(out io.Writer, boards []domain.Leaderboard, limit int) error {
	if len(boards) == 0 {
		_, err := fmt.Fprintln(out, "no scores yet")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, board := range boards {
		fmt.Fprintf(tw, "== %s ==\n", board.Subject)
		fmt.Fprintln(tw, "RANK\tUSERNAME\tSCORE\tDATE\tTIME")
		for i, e := range board.Entries {
			if limit > 0 && i >= limit {
				break
			}
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", e.Rank, e.Username, e.Score, e.Date, e.Time)
		}
	}
	return tw.Flush()
}
