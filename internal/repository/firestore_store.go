package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/fadilmartias/scandid/internal/apperr"
	"github.com/fadilmartias/scandid/internal/model"
	"github.com/google/uuid"
)

// FirestoreStore writes one document per record, keyed by the record id.
// Create fails on an existing id, so appends never overwrite.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	return &FirestoreStore{client: client, collection: collection}
}

func (s *FirestoreStore) Append(ctx context.Context, rec model.SubmissionRecord) ([]model.SubmissionRecord, error) {
	const op = "firestore.append"
	if err := validateRole(op, rec.Role); err != nil {
		return nil, err
	}

	if _, err := s.client.Collection(s.collection).Doc(rec.ID.String()).Create(ctx, rec); err != nil {
		return nil, apperr.Wrap(op, apperr.ErrStorageWrite, err)
	}

	rows, err := s.Snapshot(ctx, rec.Role)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.ErrStorageWrite, err)
	}
	return rows, nil
}

func (s *FirestoreStore) Snapshot(ctx context.Context, role string) ([]model.SubmissionRecord, error) {
	if err := validateRole("firestore.snapshot", role); err != nil {
		return nil, err
	}

	docs, err := s.client.Collection(s.collection).
		Where("role", "==", role).
		OrderBy("timestamp", firestore.Asc).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, err
	}

	rows := make([]model.SubmissionRecord, 0, len(docs))
	for _, doc := range docs {
		var rec model.SubmissionRecord
		if err := doc.DataTo(&rec); err != nil {
			return nil, err
		}
		if id, err := uuid.Parse(doc.Ref.ID); err == nil {
			rec.ID = id
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
