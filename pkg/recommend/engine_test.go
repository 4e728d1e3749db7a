package recommend

import (
	"context"
	"math"
	"testing"
	"time"

	"ai-bookrec-be/internal/config"
	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/repository/contract"
	"ai-bookrec-be/internal/repository/specification"
	"ai-bookrec-be/pkg/embedding"
	"ai-bookrec-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		TopK:                        20,
		HighRatingThreshold:         4,
		DislikeThreshold:            2,
		MinRelevantFavorites:        2,
		FavoritesRelevanceThreshold: 0.35,
		MinDislikesForPenalty:       2,
		DislikeActivationThreshold:  0.6,
		MaxDislikePenalty:           0.3,
		MaxFavoritesInContext:       5,
		MaxDislikesInContext:        3,
		CandidateDescriptionMax:     200,
		EmbeddingTextMax:            2000,
		DescriptionMax:              2000,
		ProgressUpdateInterval:      10,
		RequestTimeout:              time.Minute,
	}
}

// unitVec builds a unit vector whose cosine similarity to [1,0,0] is sim.
func unitVec(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim)), 0}
}

// fakeBookRepo serves a fixed corpus and mimics pgvector cosine ordering.
type fakeBookRepo struct {
	books        []*entity.Book
	searchLimits []int
}

func (r *fakeBookRepo) Upsert(ctx context.Context, book *entity.Book) (*entity.Book, bool, error) {
	r.books = append(r.books, book)
	return book, true, nil
}

func (r *fakeBookRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Book, error) {
	return nil, nil
}

func (r *fakeBookRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Book, error) {
	var out []*entity.Book
	for _, spec := range specs {
		if byIds, ok := spec.(specification.ByIDs); ok {
			want := map[uuid.UUID]bool{}
			for _, id := range byIds.IDs {
				want[id] = true
			}
			for _, b := range r.books {
				if want[b.Id] {
					out = append(out, b)
				}
			}
		}
	}
	return out, nil
}

func (r *fakeBookRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.books)), nil
}

func (r *fakeBookRepo) FindByIdentifier(ctx context.Context, isbn, titleNorm, authorNorm string) (*entity.Book, error) {
	return nil, nil
}

func (r *fakeBookRepo) SearchSimilar(ctx context.Context, emb []float32, limit int, excludeIds []uuid.UUID) ([]*contract.ScoredBook, error) {
	r.searchLimits = append(r.searchLimits, limit)

	excluded := map[uuid.UUID]bool{}
	for _, id := range excludeIds {
		excluded[id] = true
	}

	var scored []*contract.ScoredBook
	for _, b := range r.books {
		if !b.Retrievable() || excluded[b.Id] {
			continue
		}
		scored = append(scored, &contract.ScoredBook{
			Book:       b,
			Similarity: CosineSimilarity(emb, b.Embedding),
		})
	}
	for i := 0; i < len(scored); i++ {
		for j := i + 1; j < len(scored); j++ {
			if scored[j].Similarity > scored[i].Similarity {
				scored[i], scored[j] = scored[j], scored[i]
			}
		}
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (r *fakeBookRepo) SetEmbedding(ctx context.Context, id uuid.UUID, emb []float32) error {
	return nil
}

type fakeEmbedder struct {
	vec []float32
}

func (f *fakeEmbedder) Generate(text, taskType string) (*embedding.Response, error) {
	return &embedding.Response{Values: f.vec}, nil
}

// corpusOf builds n retrievable books with decreasing similarity to the
// query direction [1,0,0].
func corpusOf(n int) []*entity.Book {
	desc := "A long description that easily clears the hundred character quality bar for every corpus book used in engine tests."
	books := make([]*entity.Book, n)
	for i := 0; i < n; i++ {
		books[i] = &entity.Book{
			Id:          uuid.New(),
			Title:       "Book",
			Author:      "Author",
			Description: &desc,
			Embedding:   unitVec(0.9 - 0.01*float64(i)),
		}
	}
	return books
}

func newTestEngine(repo *fakeBookRepo) *Engine {
	return NewEngine(repo, &fakeEmbedder{vec: []float32{1, 0, 0}}, testPipelineConfig())
}

func TestEngineRetrieveWithoutLibrary(t *testing.T) {
	repo := &fakeBookRepo{books: corpusOf(30)}
	engine := newTestEngine(repo)

	candidates, err := engine.Retrieve(context.Background(), "space opera", nil, nil)
	require.NoError(t, err)

	assert.Len(t, candidates, 20)
	// One base retrieval call covering the whole budget.
	assert.Equal(t, []int{20}, repo.searchLimits)
	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].AdjustedSimilarity, candidates[i].AdjustedSimilarity)
	}
}

func TestEngineRetrieveEmptyCorpus(t *testing.T) {
	repo := &fakeBookRepo{}
	engine := newTestEngine(repo)

	_, err := engine.Retrieve(context.Background(), "anything", nil, nil)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestEngineCollaborativeSplit(t *testing.T) {
	repo := &fakeBookRepo{books: corpusOf(30)}
	engine := newTestEngine(repo)

	// Two relevant favorites: cap 0.5, w = 0.5*2/5 = 0.2, 4 of 20 slots.
	library := []store.LibraryEntry{
		{BookId: repo.books[0].Id.String(), Title: "Fav 1", UserRating: 5, Shelf: store.ShelfRead},
		{BookId: repo.books[1].Id.String(), Title: "Fav 2", UserRating: 4, Shelf: store.ShelfRead},
	}

	candidates, err := engine.Retrieve(context.Background(), "space opera", library, nil)
	require.NoError(t, err)

	assert.Len(t, candidates, 20)
	assert.Equal(t, []int{4, 16}, repo.searchLimits)

	// Read books never come back, and nothing is retrieved twice.
	seen := map[uuid.UUID]bool{}
	for _, c := range candidates {
		assert.NotEqual(t, repo.books[0].Id, c.Book.Id)
		assert.NotEqual(t, repo.books[1].Id, c.Book.Id)
		assert.False(t, seen[c.Book.Id], "duplicate candidate")
		seen[c.Book.Id] = true
	}
}

func TestEngineDislikePenaltyGating(t *testing.T) {
	t.Run("single dislike is not enough", func(t *testing.T) {
		repo := &fakeBookRepo{books: corpusOf(30)}
		engine := newTestEngine(repo)

		library := []store.LibraryEntry{
			{BookId: repo.books[0].Id.String(), Title: "Hated", UserRating: 1, Shelf: store.ShelfRead},
		}

		candidates, err := engine.Retrieve(context.Background(), "space opera", library, nil)
		require.NoError(t, err)
		for _, c := range candidates {
			assert.False(t, c.Penalized)
		}
	})

	t.Run("two dislikes activate the penalty", func(t *testing.T) {
		repo := &fakeBookRepo{books: corpusOf(30)}
		engine := newTestEngine(repo)

		library := []store.LibraryEntry{
			{BookId: repo.books[0].Id.String(), Title: "Hated 1", UserRating: 1, Shelf: store.ShelfRead},
			{BookId: repo.books[1].Id.String(), Title: "Hated 2", UserRating: 2, Shelf: store.ShelfRead},
		}

		candidates, err := engine.Retrieve(context.Background(), "space opera", library, nil)
		require.NoError(t, err)

		// Neighboring corpus books sit well above the 0.6 activation
		// similarity to the disliked pair.
		penalized := 0
		for _, c := range candidates {
			if c.Penalized {
				penalized++
				assert.Less(t, c.AdjustedSimilarity, c.RawSimilarity*c.QualityScore+1e-9)
			}
		}
		assert.Greater(t, penalized, 0)
	})
}
