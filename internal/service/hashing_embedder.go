package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/fadilmartias/scandid/internal/scoring"
)

var _ scoring.Embedder = (*HashingEmbedder)(nil)

// stopwords carry no signal about a job match.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "i": {}, "in": {}, "is": {}, "it": {},
	"its": {}, "of": {}, "on": {}, "or": {}, "our": {}, "that": {}, "the": {}, "their": {},
	"this": {}, "to": {}, "we": {}, "will": {}, "with": {}, "you": {}, "your": {},
}

// HashingEmbedder is an offline embedder: word counts hashed into a fixed
// number of buckets, log-scaled and L2-normalised. All components are
// non-negative, so cosine similarity between two embeddings lies in [0, 1].
type HashingEmbedder struct {
	dims int
}

func NewHashingEmbedder(dims int) (*HashingEmbedder, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("hashing embedder dimensions must be positive, got %d", dims)
	}
	return &HashingEmbedder{dims: dims}, nil
}

func (e *HashingEmbedder) Model() string {
	return fmt.Sprintf("hashing-%d", e.dims)
}

func (e *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counts := make(map[int]float64)
	for _, tok := range tokenize(text) {
		counts[bucket(tok, e.dims)]++
	}

	vec := make([]float32, e.dims)
	var norm float64
	for i, c := range counts {
		w := 1 + math.Log(c)
		vec[i] = float32(w)
		norm += w * w
	}
	if norm == 0 {
		return vec, nil
	}

	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if _, skip := stopwords[f]; skip {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func bucket(token string, dims int) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum64() % uint64(dims))
}
