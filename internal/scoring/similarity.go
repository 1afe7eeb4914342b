package scoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/fadilmartias/scandid/internal/apperr"
	"github.com/fadilmartias/scandid/internal/logger"
	"go.uber.org/zap"
)

// Embedder maps text to a dense vector. Model identifies the model version;
// vectors from different models are never compared.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// VectorCache stores reference-side embeddings (job descriptions) by key.
type VectorCache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Put(ctx context.Context, key, model string, vec []float32) error
}

// SimilarityScorer compares a submission with a reference text through a
// single embedder.
type SimilarityScorer struct {
	embedder Embedder
	cache    VectorCache
	timeout  time.Duration
	logger   *zap.Logger
}

type SimilarityOption func(*SimilarityScorer)

// WithVectorCache reuses reference embeddings across requests.
func WithVectorCache(c VectorCache) SimilarityOption {
	return func(s *SimilarityScorer) { s.cache = c }
}

// WithEmbeddingTimeout bounds each Score call.
func WithEmbeddingTimeout(d time.Duration) SimilarityOption {
	return func(s *SimilarityScorer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithSimilarityLogger(l *zap.Logger) SimilarityOption {
	return func(s *SimilarityScorer) { s.logger = logger.OrNop(l) }
}

func NewSimilarityScorer(embedder Embedder, opts ...SimilarityOption) *SimilarityScorer {
	s := &SimilarityScorer{
		embedder: embedder,
		timeout:  30 * time.Second,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model reports the embedding model behind the scorer.
func (s *SimilarityScorer) Model() string {
	return s.embedder.Model()
}

// Score returns the cosine similarity of the embeddings of submission and
// reference. Blank input on either side scores 0 without calling the model.
func (s *SimilarityScorer) Score(ctx context.Context, submission, reference string) (float64, error) {
	const op = "similarity.score"

	if strings.TrimSpace(submission) == "" || strings.TrimSpace(reference) == "" {
		s.logger.Warn("blank text, similarity defaults to zero",
			zap.Bool("submission_blank", strings.TrimSpace(submission) == ""),
			zap.Bool("reference_blank", strings.TrimSpace(reference) == ""),
		)
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	refVec, err := s.referenceVector(ctx, reference)
	if err != nil {
		return 0, classify(op, err)
	}

	subVec, err := s.embedder.Embed(ctx, submission)
	if err != nil {
		return 0, classify(op, err)
	}

	score, err := Cosine(subVec, refVec)
	if err != nil {
		return 0, apperr.Wrap(op, apperr.ErrSimilarity, err)
	}

	s.logger.Debug("similarity computed",
		zap.String(logger.FieldModel, s.embedder.Model()),
		zap.Int("dimensions", len(subVec)),
		zap.Float64("similarity", score),
	)
	return score, nil
}

func (s *SimilarityScorer) referenceVector(ctx context.Context, reference string) ([]float32, error) {
	if s.cache == nil {
		return s.embedder.Embed(ctx, reference)
	}

	key := CacheKey(s.embedder.Model(), reference)
	if vec, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("vector cache read failed", zap.Error(err))
	} else if ok {
		return vec, nil
	}

	vec, err := s.embedder.Embed(ctx, reference)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Put(ctx, key, s.embedder.Model(), vec); err != nil {
		s.logger.Warn("vector cache write failed", zap.Error(err))
	}
	return vec, nil
}

func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(op, apperr.ErrSimilarity, apperr.Wrap(op, apperr.ErrTimeout, err))
	}
	return apperr.Wrap(op, apperr.ErrSimilarity, err)
}

// CacheKey identifies the embedding of text under model.
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// Cosine returns the cosine similarity of a and b. A zero vector on either
// side yields 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("empty embedding vector")
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimensions differ: %d vs %d", len(a), len(b))
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// rounding can push identical vectors slightly past 1
	return math.Max(-1, math.Min(1, sim)), nil
}

// MemoryVectorCache is a process-local VectorCache.
type MemoryVectorCache struct {
	mu   sync.RWMutex
	vecs map[string][]float32
}

func NewMemoryVectorCache() *MemoryVectorCache {
	return &MemoryVectorCache{vecs: make(map[string][]float32)}
}

func (c *MemoryVectorCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vec, ok := c.vecs[key]
	return vec, ok, nil
}

func (c *MemoryVectorCache) Put(_ context.Context, key, _ string, vec []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vecs[key] = append([]float32(nil), vec...)
	return nil
}
