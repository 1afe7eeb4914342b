package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fadilmartias/scandid/internal/app"
	"github.com/fadilmartias/scandid/internal/config"
	"github.com/fadilmartias/scandid/internal/export"
	"github.com/fadilmartias/scandid/internal/leaderboard"
	"github.com/spf13/cobra"
)

var (
	boardRole  string
	boardLimit int
	boardOut   string
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show or export the top candidates of a role",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runLeaderboard(cmd.Context(), cmd)
	},
}

func init() {
	leaderboardCmd.Flags().StringVar(&boardRole, "role", "", "role whose leaderboard to show")
	leaderboardCmd.Flags().IntVar(&boardLimit, "limit", 10, "number of rows, 0 for all")
	leaderboardCmd.Flags().StringVar(&boardOut, "out", "", "export to a .csv or .xlsx file instead of printing")
	_ = leaderboardCmd.MarkFlagRequired("role")
}

func runLeaderboard(ctx context.Context, cmd *cobra.Command) error {
	c, err := app.BuildLeaderboard(ctx, settings, zlog)
	if err != nil {
		return err
	}
	defer c.Close()

	job, err := c.Jobs.Get(boardRole)
	if err != nil {
		return err
	}
	standings, total, err := c.Board.TopN(ctx, job.Role, boardLimit)
	if err != nil {
		return err
	}

	if boardOut == "" {
		return printStandings(cmd, job, standings, total)
	}
	return writeStandings(boardOut, job, standings, total)
}

func printStandings(cmd *cobra.Command, job config.Job, standings []leaderboard.Standing, total int) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s): top %d of %d\n\n", job.Title, job.Role, len(standings), total)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tCANDIDATE\tFINAL\tSIMILARITY\tNARRATIVE\tSUBMITTED")
	for _, s := range standings {
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%.4f\t%.4f\t%s\n",
			s.Rank, s.CandidateID, s.FinalScore, s.SimilarityScore, s.NarrativeScore, s.Timestamp.Format(time.RFC3339))
	}
	return w.Flush()
}

func writeStandings(path string, job config.Job, standings []leaderboard.Standing, total int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		err = export.WriteLeaderboardCSV(f, standings)
	case ".xlsx":
		err = export.WriteLeaderboardXLSX(f, job, standings, total, time.Now())
	default:
		err = fmt.Errorf("unsupported export format %q, use .csv or .xlsx", ext)
	}

	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
	}
	return err
}
