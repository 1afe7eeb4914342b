package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/fadilmartias/scandid/internal/apperr"
	"github.com/fadilmartias/scandid/internal/model"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

var csvHeader = []string{"candidate_id", "timestamp", "similarity_score", "narrative_score", "final_score"}

// csvNamespace derives stable record ids for rows read back from CSV, which
// has no id column.
var csvNamespace = uuid.MustParse("6f1c2a8e-4b7d-4f3a-9a51-2d8c0e7b5f10")

const lockRetryDelay = 10 * time.Millisecond

// CSVStore keeps one results file per role under Dir. Each append rewrites
// the file through a temp file and rename while holding an in-process mutex
// and an advisory lock on <role>.csv.lock, so processes sharing Dir do not
// lose each other's rows.
type CSVStore struct {
	Dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Wrap("csv.new", apperr.ErrConfig, err)
	}
	return &CSVStore{Dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

func (s *CSVStore) path(role string) string {
	return filepath.Join(s.Dir, role+".csv")
}

func (s *CSVStore) lock(role string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[role]
	if !ok {
		l = &sync.Mutex{}
		s.locks[role] = l
	}
	return l
}

func (s *CSVStore) Append(ctx context.Context, rec model.SubmissionRecord) ([]model.SubmissionRecord, error) {
	const op = "csv.append"
	if err := validateRole(op, rec.Role); err != nil {
		return nil, err
	}

	l := s.lock(rec.Role)
	l.Lock()
	defer l.Unlock()

	fl := flock.New(s.path(rec.Role) + ".lock")
	if _, err := fl.TryLockContext(ctx, lockRetryDelay); err != nil {
		return nil, apperr.Wrap(op, apperr.ErrStorageWrite, fmt.Errorf("lock: %w", err))
	}
	defer fl.Unlock()

	rows, err := s.read(rec.Role)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.ErrStorageWrite, err)
	}
	rows = append(rows, rec)

	if err := s.write(rec.Role, rows); err != nil {
		return nil, apperr.Wrap(op, apperr.ErrStorageWrite, err)
	}
	return rows, nil
}

func (s *CSVStore) Snapshot(ctx context.Context, role string) ([]model.SubmissionRecord, error) {
	const op = "csv.snapshot"
	if err := validateRole(op, role); err != nil {
		return nil, err
	}

	l := s.lock(role)
	l.Lock()
	defer l.Unlock()

	fl := flock.New(s.path(role) + ".lock")
	if _, err := fl.TryRLockContext(ctx, lockRetryDelay); err != nil {
		return nil, fmt.Errorf("%s: lock: %w", op, err)
	}
	defer fl.Unlock()

	rows, err := s.read(role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rows, nil
}

func (s *CSVStore) read(role string) ([]model.SubmissionRecord, error) {
	f, err := os.Open(s.path(role))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !slices.Equal(header, csvHeader) {
		return nil, fmt.Errorf("unexpected header %v in %s", header, f.Name())
	}

	var rows []model.SubmissionRecord
	for line := 2; ; line++ {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec, err := parseRow(role, fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func (s *CSVStore) write(role string, rows []model.SubmissionRecord) error {
	tmp, err := os.CreateTemp(s.Dir, role+"-*.csv.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return err
	}
	for _, rec := range rows {
		if err := w.Write(formatRow(rec)); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(role))
}

func formatRow(rec model.SubmissionRecord) []string {
	return []string{
		rec.CandidateID,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		strconv.FormatFloat(rec.SimilarityScore, 'f', -1, 64),
		strconv.FormatFloat(rec.NarrativeScore, 'f', -1, 64),
		strconv.FormatFloat(rec.FinalScore, 'f', -1, 64),
	}
}

func parseRow(role string, fields []string) (model.SubmissionRecord, error) {
	ts, err := time.Parse(time.RFC3339Nano, fields[1])
	if err != nil {
		return model.SubmissionRecord{}, fmt.Errorf("timestamp: %w", err)
	}

	var scores [3]float64
	for i := range scores {
		v, err := strconv.ParseFloat(fields[2+i], 64)
		if err != nil {
			return model.SubmissionRecord{}, fmt.Errorf("%s: %w", csvHeader[2+i], err)
		}
		scores[i] = v
	}

	return model.SubmissionRecord{
		ID:              uuid.NewSHA1(csvNamespace, []byte(role+"\x00"+fields[0]+"\x00"+fields[1])),
		Role:            role,
		CandidateID:     fields[0],
		Timestamp:       ts,
		SimilarityScore: scores[0],
		NarrativeScore:  scores[1],
		FinalScore:      scores[2],
	}, nil
}
