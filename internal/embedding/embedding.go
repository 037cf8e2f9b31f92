// Package embedding derives deterministic hashed bag-of-words vectors.
package embedding

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sort"
	"strings"
)

const DefaultDimension = 128

// Service maps text to unit-length vectors of a fixed dimension. Each
// lower-cased whitespace token lands in bucket sha256(token)[:4] mod D.
type Service struct {
	dimension int
}

func New(dimension int) *Service {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Service{dimension: dimension}
}

func (s *Service) Dimension() int {
	return s.dimension
}

// Embed returns the normalized vector for text, or the zero vector when text
// has no tokens.
func (s *Service) Embed(text string) []float64 {
	vector := make([]float64, s.dimension)
	for _, token := range Tokenize(text) {
		digest := sha256.Sum256([]byte(token))
		bucket := binary.BigEndian.Uint32(digest[:4]) % uint32(s.dimension)
		vector[bucket]++
	}
	return normalize(vector)
}

// EmbedKeywords embeds the sorted, de-duplicated keyword set.
func (s *Service) EmbedKeywords(keywords []string) []float64 {
	seen := make(map[string]struct{}, len(keywords))
	unique := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		if _, ok := seen[keyword]; ok {
			continue
		}
		seen[keyword] = struct{}{}
		unique = append(unique, keyword)
	}
	sort.Strings(unique)
	return s.Embed(strings.Join(unique, " "))
}

// Tokenize lower-cases and splits on whitespace.
func Tokenize(text string) []string {
	fields := strings.Fields(text)
	for i, field := range fields {
		fields[i] = strings.ToLower(field)
	}
	return fields
}

// Cosine returns the cosine similarity of a and b, or 0 when either is zero
// or the lengths differ.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func normalize(vector []float64) []float64 {
	var sum float64
	for _, v := range vector {
		sum += v * v
	}
	if sum == 0 {
		return vector
	}
	norm := math.Sqrt(sum)
	for i := range vector {
		vector[i] /= norm
	}
	return vector
}
