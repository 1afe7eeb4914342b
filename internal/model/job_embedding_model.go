package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// JobEmbedding caches the embedding of a job description for one embedding
// model. Key is derived from the model name and the exact text.
type JobEmbedding struct {
	Key        string          `gorm:"type:char(64);primaryKey" json:"key"`
	Model      string          `gorm:"type:varchar(100);index" json:"model"`
	Dimensions int             `json:"dimensions"`
	Embedding  pgvector.Vector `gorm:"type:vector" json:"embedding"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (j *JobEmbedding) TableName() string {
	return "job_embeddings"
}
