package repository

import (
	"context"

	"github.com/fadilmartias/scandid/internal/apperr"
	"github.com/fadilmartias/scandid/internal/model"
	"gorm.io/gorm"
)

// SubmissionRecordRepository stores records in postgres. Each append is a
// single INSERT, so concurrent writers never overwrite each other.
type SubmissionRecordRepository struct {
	db *gorm.DB
}

func NewSubmissionRecordRepository(db *gorm.DB) *SubmissionRecordRepository {
	return &SubmissionRecordRepository{db}
}

func (r *SubmissionRecordRepository) Append(ctx context.Context, rec model.SubmissionRecord) ([]model.SubmissionRecord, error) {
	const op = "postgres.append"
	if err := validateRole(op, rec.Role); err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, apperr.Wrap(op, apperr.ErrStorageWrite, err)
	}

	rows, err := r.Snapshot(ctx, rec.Role)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.ErrStorageWrite, err)
	}
	return rows, nil
}

func (r *SubmissionRecordRepository) Snapshot(ctx context.Context, role string) ([]model.SubmissionRecord, error) {
	if err := validateRole("postgres.snapshot", role); err != nil {
		return nil, err
	}

	var rows []model.SubmissionRecord
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order(`"timestamp" ASC`).
		Find(&rows).Error
	return rows, err
}
