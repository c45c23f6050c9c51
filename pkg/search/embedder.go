// Package search finds events by free text. Events are embedded into dense
// vectors, kept in a VectorIndex that can be cached on disk, and ranked by
// cosine similarity with a boost for literal title matches.
package search

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/floats"
)

// Provider identifies an embedding backend.
type Provider string

// ProviderHash is a deterministic hashed-token embedder. It is not a true
// semantic model: related words only meet through shared tokens and bigrams.
const ProviderHash Provider = "hash"

// DefaultEmbeddingDim is the vector size used when none is configured.
const DefaultEmbeddingDim = 256

// Embedder produces fixed-size dense vectors for text inputs.
type Embedder interface {
	Provider() Provider
	Dim() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// HashEmbedder hashes tokens and token bigrams into buckets and
// L2-normalizes the result.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder returns a hash embedder; dim <= 0 selects DefaultEmbeddingDim.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultEmbeddingDim
	}
	return &HashEmbedder{dim: dim}
}

// Provider implements Embedder.
func (h *HashEmbedder) Provider() Provider { return ProviderHash }

// Dim implements Embedder.
func (h *HashEmbedder) Dim() int { return h.dim }

// Embed implements Embedder.
func (h *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, h.embedOne(text))
	}
	return out, nil
}

func (h *HashEmbedder) embedOne(text string) []float32 {
	acc := make([]float64, h.dim)
	tokens := Tokenize(text)
	for i, tok := range tokens {
		h.add(acc, tok, 1)
		if i > 0 {
			h.add(acc, tokens[i-1]+" "+tok, 0.5)
		}
	}

	vec := make([]float32, h.dim)
	norm := floats.Norm(acc, 2)
	if norm == 0 {
		return vec
	}
	floats.Scale(1/norm, acc)
	for i, v := range acc {
		vec[i] = float32(v)
	}
	return vec
}

// add spreads one feature into a signed bucket so collisions cancel out on
// average instead of piling up.
func (h *HashEmbedder) add(acc []float64, feature string, weight float64) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(feature))
	sum := f.Sum64()
	bucket := int(sum % uint64(h.dim))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	acc[bucket] += weight
}

// Tokenize lowercases text and splits it on anything that is not a letter
// or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
