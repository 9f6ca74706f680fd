// Package similarity converts pairwise fingerprint comparisons into
// normalized scores in [0,1] and merges them into the single combined score
// used for clustering decisions.
package similarity

import (
	"fmt"
	"math"

	"github.com/filesweep/filesweep/internal/fingerprint"
	"github.com/filesweep/filesweep/internal/types"
)

// DimensionMismatchError indicates two embedding vectors of different
// dimensions were compared. This should be impossible when both vectors come
// from the same collaborator; it is fatal for the pair only.
type DimensionMismatchError struct {
	DimA, DimB int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: %d vs %d", e.DimA, e.DimB)
}

// Result holds the per-signal scores for one pair. A nil score means that
// axis was not comparable. Comparable is false when the pair shares no signal
// at all, in which case the pair must be excluded from clustering rather than
// treated as dissimilar.
type Result struct {
	Exact      *float64
	Perceptual *float64
	Embedding  *float64
	Combined   float64
	Comparable bool
}

// ExactScore is 1.0 if the hashes are equal, else 0.0. No partial credit.
func ExactScore(a, b string) float64 {
	if a == b {
		return 1.0
	}
	return 0.0
}

// Cosine computes cosine similarity between two embedding vectors, clamped to
// [0,1]. Negative cosine is treated as 0: embeddings here measure positive
// semantic alignment, so opposed vectors carry no duplicate evidence.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, &DimensionMismatchError{DimA: len(a), DimB: len(b)}
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0, nil
	}
	if sim > 1 {
		return 1, nil
	}
	return sim, nil
}

// Compare scores two fingerprint sets on every signal present on both sides.
//
// The combined score short-circuits to 1.0 on an exact-hash match regardless
// of other signals. Otherwise it is the maximum of the available non-exact
// scores: perceptual hashes and embeddings are alternative evidence, not
// must-agree evidence (the product's deliberate high-recall policy).
//
// A LengthMismatchError or DimensionMismatchError means the pair's signals
// violate the fingerprint contract; the caller logs it and excludes the pair.
func Compare(a, b *types.FingerprintSet) (Result, error) {
	var res Result

	if a.ExactHash != "" && b.ExactHash != "" {
		s := ExactScore(a.ExactHash, b.ExactHash)
		res.Exact = &s
		res.Comparable = true
		if s == 1.0 {
			res.Combined = 1.0
			// Exact match is decisive; other signals cannot change the outcome
			return res, nil
		}
	}

	if a.PerceptualHash != "" && b.PerceptualHash != "" {
		s, err := fingerprint.HammingSimilarity(a.PerceptualHash, b.PerceptualHash)
		if err != nil {
			return Result{}, err
		}
		res.Perceptual = &s
		res.Comparable = true
		if s > res.Combined {
			res.Combined = s
		}
	}

	if len(a.Embedding) > 0 && len(b.Embedding) > 0 {
		s, err := Cosine(a.Embedding, b.Embedding)
		if err != nil {
			return Result{}, err
		}
		res.Embedding = &s
		res.Comparable = true
		if s > res.Combined {
			res.Combined = s
		}
	}

	return res, nil
}
