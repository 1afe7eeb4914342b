package repository

import (
	"context"
	"errors"

	"github.com/fadilmartias/scandid/internal/model"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobEmbeddingRepository caches job description embeddings in a pgvector
// column. It implements scoring.VectorCache.
type JobEmbeddingRepository struct {
	db *gorm.DB
}

func NewJobEmbeddingRepository(db *gorm.DB) *JobEmbeddingRepository {
	return &JobEmbeddingRepository{db}
}

func (r *JobEmbeddingRepository) Get(ctx context.Context, key string) ([]float32, bool, error) {
	var row model.JobEmbedding
	err := r.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row.Embedding.Slice(), true, nil
}

func (r *JobEmbeddingRepository) Put(ctx context.Context, key, embeddingModel string, vec []float32) error {
	row := model.JobEmbedding{
		Key:        key,
		Model:      embeddingModel,
		Dimensions: len(vec),
		Embedding:  pgvector.NewVector(vec),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}
