package leaderboard

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/fadilmartias/scandid/internal/model"
	"github.com/google/uuid"
)

// Standing is one leaderboard row.
type Standing struct {
	ID              uuid.UUID `json:"-"`
	Rank            int       `json:"rank"`
	CandidateID     string    `json:"candidate_id"`
	FinalScore      float64   `json:"final_score"`
	SimilarityScore float64   `json:"similarity_score"`
	NarrativeScore  float64   `json:"narrative_score"`
	Timestamp       time.Time `json:"timestamp"`
}

// Rank orders records by final score, best first, and assigns min-style
// ranks: equal final scores share a rank and the next distinct score ranks
// one past the number of records strictly ahead of it. Ties keep the earlier
// submission first. The final score is always recomputed from the two
// component scores.
func Rank(records []model.SubmissionRecord) []Standing {
	standings := make([]Standing, len(records))
	for i, r := range records {
		standings[i] = Standing{
			ID:              r.ID,
			CandidateID:     r.CandidateID,
			FinalScore:      r.ComputeFinalScore(),
			SimilarityScore: r.SimilarityScore,
			NarrativeScore:  r.NarrativeScore,
			Timestamp:       r.Timestamp,
		}
	}

	slices.SortStableFunc(standings, func(a, b Standing) int {
		if c := cmp.Compare(b.FinalScore, a.FinalScore); c != 0 {
			return c
		}
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.CandidateID, b.CandidateID)
	})

	for i := range standings {
		if i > 0 && standings[i].FinalScore == standings[i-1].FinalScore {
			standings[i].Rank = standings[i-1].Rank
			continue
		}
		standings[i].Rank = i + 1
	}
	return standings
}

// Top returns the first n standings; n <= 0 returns all of them.
func Top(standings []Standing, n int) []Standing {
	if n <= 0 || n >= len(standings) {
		return standings
	}
	return standings[:n]
}

// Find returns the standing of the record with the given id.
func Find(standings []Standing, id uuid.UUID) (Standing, bool) {
	for _, s := range standings {
		if s.ID == id {
			return s, true
		}
	}
	return Standing{}, false
}
