package dto

import (
	"time"

	"github.com/google/uuid"
)

// ScreeningResultDTO is what a candidate sees after a screening run.
type ScreeningResultDTO struct {
	ID              uuid.UUID `json:"id"`
	Role            string    `json:"role"`
	CandidateID     string    `json:"candidate_id"`
	SimilarityScore float64   `json:"similarity_score"`
	NarrativeScore  float64   `json:"narrative_score"`
	FinalScore      float64   `json:"final_score"`
	ReportText      string    `json:"report_text"`
	SubScores       []float64 `json:"sub_scores"`
	Warnings        []string  `json:"warnings,omitempty"`
	Rank            int       `json:"rank"`
	TotalCandidates int       `json:"total_candidates"`
	EmbeddingModel  string    `json:"embedding_model"`
	ReportModel     string    `json:"report_model"`
	Timestamp       time.Time `json:"timestamp"`
}
