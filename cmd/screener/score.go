package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fadilmartias/scandid/internal/app"
	"github.com/fadilmartias/scandid/internal/apperr"
	"github.com/fadilmartias/scandid/internal/dto"
	"github.com/spf13/cobra"
)

var (
	scoreRole       string
	scoreCandidate  string
	scoreResume     string
	scoreAnswer     string
	scoreAnswerFile string
	scoreReportOut  string
	scoreJSON       bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Screen one resume PDF against a role and record the result",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runScore(cmd.Context(), cmd)
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreRole, "role", "", "role to screen against, see the jobs command")
	scoreCmd.Flags().StringVar(&scoreCandidate, "candidate", "", "candidate identifier")
	scoreCmd.Flags().StringVar(&scoreResume, "resume", "", "path to the resume PDF")
	scoreCmd.Flags().StringVar(&scoreAnswer, "answer", "", "answer to the open question")
	scoreCmd.Flags().StringVar(&scoreAnswerFile, "answer-file", "", "read the answer from a file instead")
	scoreCmd.Flags().StringVar(&scoreReportOut, "report", "", "write the evaluation report to this file")
	scoreCmd.Flags().BoolVar(&scoreJSON, "output-json", false, "print the full result as JSON")

	for _, f := range []string{"role", "candidate", "resume"} {
		_ = scoreCmd.MarkFlagRequired(f)
	}
	scoreCmd.MarkFlagsMutuallyExclusive("answer", "answer-file")
}

func runScore(ctx context.Context, cmd *cobra.Command) error {
	answer := scoreAnswer
	if scoreAnswerFile != "" {
		b, err := os.ReadFile(scoreAnswerFile)
		if err != nil {
			return fmt.Errorf("read answer: %w", err)
		}
		answer = string(b)
	}

	resume, err := os.Open(scoreResume)
	if err != nil {
		return fmt.Errorf("open resume: %w", err)
	}
	defer resume.Close()

	c, err := app.Build(ctx, settings, zlog)
	if err != nil {
		return err
	}
	defer c.Close()

	result, err := c.Screening.ScreenDocument(ctx, scoreRole, scoreCandidate, resume, answer)
	if err != nil {
		return userError(err)
	}

	if scoreReportOut != "" {
		if err := os.WriteFile(scoreReportOut, []byte(result.ReportText), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if scoreJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(cmd, result)
	return nil
}

func printResult(cmd *cobra.Command, r *dto.ScreeningResultDTO) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Role:             %s\n", r.Role)
	fmt.Fprintf(out, "Candidate:        %s\n", r.CandidateID)
	fmt.Fprintf(out, "Similarity score: %.4f\n", r.SimilarityScore)
	fmt.Fprintf(out, "Narrative score:  %.4f (%d sub-scores)\n", r.NarrativeScore, len(r.SubScores))
	fmt.Fprintf(out, "Final score:      %.4f\n", r.FinalScore)
	fmt.Fprintf(out, "Rank:             %d of %d\n", r.Rank, r.TotalCandidates)
	for _, w := range r.Warnings {
		fmt.Fprintf(out, "Warning:          %s\n", w)
	}
	if scoreReportOut == "" {
		fmt.Fprintf(out, "\n%s\n", strings.TrimSpace(r.ReportText))
	}
}

// userError prefixes the candidate-facing message to a pipeline error.
func userError(err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		return err
	}
	return fmt.Errorf("%s\n  cause: %w", apperr.Message(err), err)
}
