package repository

import (
	"context"
	"regexp"

	"github.com/fadilmartias/scandid/internal/apperr"
	"github.com/fadilmartias/scandid/internal/model"
)

// ResultStore is the durable, append-only table of scored submissions, one
// storage target per role.
type ResultStore interface {
	// Append writes rec and returns the role's table including it. The
	// returned copy of rec keeps the ID it was given.
	Append(ctx context.Context, rec model.SubmissionRecord) ([]model.SubmissionRecord, error)
	// Snapshot returns every record of role in insertion order.
	Snapshot(ctx context.Context, role string) ([]model.SubmissionRecord, error)
}

var rolePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,99}$`)

func validateRole(op, role string) error {
	if !rolePattern.MatchString(role) {
		return apperr.Errorf(op, apperr.ErrInvalidInput, "invalid role %q", role)
	}
	return nil
}
