package model

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionRecord is one fully scored screening run. Rows are written once
// and never updated; rank is derived on every leaderboard read.
type SubmissionRecord struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id" firestore:"-"`
	Role            string    `gorm:"type:varchar(100);index" json:"role" firestore:"role"`
	CandidateID     string    `gorm:"type:varchar(255);index" json:"candidate_id" firestore:"candidate_id"`
	Timestamp       time.Time `gorm:"index" json:"timestamp" firestore:"timestamp"`
	SimilarityScore float64   `gorm:"type:double precision" json:"similarity_score" firestore:"similarity_score"`
	NarrativeScore  float64   `gorm:"type:double precision" json:"narrative_score" firestore:"narrative_score"`
	// FinalScore is informational; rankings recompute it from the two scores.
	FinalScore float64 `gorm:"type:double precision" json:"final_score" firestore:"final_score"`
}

func (r *SubmissionRecord) TableName() string {
	return "submission_records"
}

// ComputeFinalScore is the arithmetic mean of the similarity and narrative scores.
func (r SubmissionRecord) ComputeFinalScore() float64 {
	return FinalScore(r.SimilarityScore, r.NarrativeScore)
}

// FinalScore averages a similarity and a narrative score.
func FinalScore(similarity, narrative float64) float64 {
	return (similarity + narrative) / 2
}
