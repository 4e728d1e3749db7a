// Package recommend implements the retrieval & refinement engine and the
// generative final selection. The engine turns an enhanced query plus an
// optional rated library into a bounded, ranked candidate set; the
// selector hands that set to an LLM for the final explained top 3.
package recommend

import (
	"errors"

	"ai-bookrec-be/internal/entity"

	"github.com/google/uuid"
)

var (
	// ErrNoCandidates means base retrieval matched nothing, usually an
	// empty or unembedded corpus.
	ErrNoCandidates = errors.New("no candidate books found")

	// ErrSelectionFailed means the LLM could not produce a valid final
	// selection within the retry budget.
	ErrSelectionFailed = errors.New("final selection failed")
)

// Candidate is pipeline-internal scoring state for one retrieved book.
// It lives for the duration of a single request and is never persisted.
type Candidate struct {
	Book *entity.Book

	// RawSimilarity is the cosine similarity from retrieval, before any
	// refinement stage touches it.
	RawSimilarity float64

	QualityScore float64

	// AdjustedSimilarity is raw x quality, further reduced by the dislike
	// penalty. Stages re-sort on it.
	AdjustedSimilarity float64

	Penalized   bool
	PenalizedBy uuid.UUID
}
