package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fadilmartias/scandid/internal/leaderboard"
)

var leaderboardHeader = []string{"rank", "candidate_id", "final_score", "similarity_score", "narrative_score", "timestamp"}

// WriteLeaderboardCSV writes standings as CSV with a header row.
func WriteLeaderboardCSV(w io.Writer, standings []leaderboard.Standing) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(leaderboardHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, s := range standings {
		row := []string{
			strconv.Itoa(s.Rank),
			s.CandidateID,
			strconv.FormatFloat(s.FinalScore, 'f', -1, 64),
			strconv.FormatFloat(s.SimilarityScore, 'f', -1, 64),
			strconv.FormatFloat(s.NarrativeScore, 'f', -1, 64),
			s.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
