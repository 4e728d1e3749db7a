package recommend

import (
	"math"

	"ai-bookrec-be/internal/entity"
)

// CosineSimilarity between two vectors. Returns 0 for mismatched or
// zero-magnitude inputs rather than NaN.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// applyDislikePenalties scales down candidates that resemble disliked
// books. The penalty grows with how far the best dislike-similarity sits
// above the activation threshold, capped at maxPenalty, so a candidate is
// never reduced below similarity x (1 - maxPenalty) and never increased.
func applyDislikePenalties(candidates []*Candidate, disliked []*entity.Book, activation, maxPenalty float64) {
	if len(disliked) == 0 {
		return
	}

	for _, c := range candidates {
		if !c.Book.Retrievable() {
			continue
		}

		best := 0.0
		var bestBook *entity.Book
		for _, d := range disliked {
			if !d.Retrievable() {
				continue
			}
			if sim := CosineSimilarity(c.Book.Embedding, d.Embedding); sim > best {
				best = sim
				bestBook = d
			}
		}

		if bestBook == nil || best < activation {
			continue
		}

		overshoot := (best - activation) / (1 - activation)
		if overshoot > 1 {
			overshoot = 1
		}
		penalty := maxPenalty * overshoot

		c.AdjustedSimilarity *= 1 - penalty
		c.Penalized = true
		c.PenalizedBy = bestBook.Id
	}

	sortByAdjusted(candidates)
}
