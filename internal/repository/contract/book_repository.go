package contract

import (
	"context"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredBook pairs a corpus book with its cosine similarity to some query
// vector (1 - cosine distance, higher is closer).
type ScoredBook struct {
	Book       *entity.Book
	Similarity float64
}

type BookRepository interface {
	// Upsert inserts the book keyed on isbn13. On a duplicate identifier it
	// is a no-op that returns the already stored record with created=false,
	// so concurrent ingestion races resolve to the winner's row.
	Upsert(ctx context.Context, book *entity.Book) (*entity.Book, bool, error)

	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Book, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Book, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// FindByIdentifier resolves a book by ISBN-13/ISBN-10, falling back to
	// normalized title+author when both ISBN lookups miss.
	FindByIdentifier(ctx context.Context, isbn, titleNorm, authorNorm string) (*entity.Book, error)

	// SearchSimilar returns up to limit retrieval-eligible books ordered by
	// cosine similarity to the query embedding, excluding the given ids.
	SearchSimilar(ctx context.Context, embedding []float32, limit int, excludeIds []uuid.UUID) ([]*ScoredBook, error)

	// SetEmbedding populates the embedding of an existing record. The only
	// mutation books undergo after creation.
	SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
}
