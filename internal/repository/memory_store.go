package repository

import (
	"context"
	"sync"

	"github.com/fadilmartias/scandid/internal/model"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string][]model.SubmissionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string][]model.SubmissionRecord)}
}

func (s *MemoryStore) Append(_ context.Context, rec model.SubmissionRecord) ([]model.SubmissionRecord, error) {
	if err := validateRole("memory.append", rec.Role); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[rec.Role] = append(s.rows[rec.Role], rec)
	return cloneRecords(s.rows[rec.Role]), nil
}

func (s *MemoryStore) Snapshot(_ context.Context, role string) ([]model.SubmissionRecord, error) {
	if err := validateRole("memory.snapshot", role); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecords(s.rows[role]), nil
}

func cloneRecords(rows []model.SubmissionRecord) []model.SubmissionRecord {
	return append([]model.SubmissionRecord(nil), rows...)
}
