package recommend

import (
	"context"
	"fmt"
	"time"

	"ai-bookrec-be/internal/config"
	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/repository/contract"
	"ai-bookrec-be/internal/repository/specification"
	"ai-bookrec-be/pkg/embedding"
	"ai-bookrec-be/pkg/observability"
	"ai-bookrec-be/pkg/store"

	"github.com/google/uuid"
)

// Engine runs the retrieval & refinement pipeline:
// embed_query -> base_retrieval -> favorites_filter -> dynamic_weighting
// -> quality_rerank -> dislike_penalty -> bounded_output.
// Deterministic given identical inputs and embeddings.
type Engine struct {
	books    contract.BookRepository
	embedder embedding.Provider
	cfg      config.PipelineConfig
}

func NewEngine(books contract.BookRepository, embedder embedding.Provider, cfg config.PipelineConfig) *Engine {
	return &Engine{
		books:    books,
		embedder: embedder,
		cfg:      cfg,
	}
}

// Retrieve produces at most TopK refined candidates for the enhanced
// query. Every stage other than base retrieval degrades gracefully: an
// empty seed set means zero collaborative weight, no dislikes means no
// penalty stage.
func (e *Engine) Retrieve(ctx context.Context, enhancedQuery string, library []store.LibraryEntry, trace *observability.Trace) ([]*Candidate, error) {
	stageStart := time.Now()
	queryEmbedding, err := e.embedQuery(enhancedQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	span(trace, "embed_query", stageStart, map[string]interface{}{"dimensions": len(queryEmbedding)})

	// Books already read never come back as candidates. Shelved but
	// unread books stay eligible.
	excludeIds := readBookIds(library)

	// Favorites filter: keep only high-rated read books semantically
	// relevant to this query, so a shelf of beloved but unrelated books
	// cannot hijack the collaborative signal.
	stageStart = time.Now()
	libraryBooks, err := e.fetchLibraryBooks(ctx, library)
	if err != nil {
		return nil, fmt.Errorf("fetch library books: %w", err)
	}

	favorites := e.favoriteBooks(library, libraryBooks)
	relevant := e.relevantFavorites(queryEmbedding, favorites)
	span(trace, "favorites_filter", stageStart, map[string]interface{}{
		"favorites": len(favorites),
		"relevant":  len(relevant),
	})

	// Dynamic weighting: pick the strongest seed tier available and let
	// its size decide how many candidates collaborative retrieval claims.
	stageStart = time.Now()
	tier, seeds := e.seedTier(library, libraryBooks, favorites, relevant)
	w := collaborativeWeight(tier, len(seeds))
	slots := collaborativeSlots(e.cfg.TopK, w)

	var candidates []*Candidate
	if slots > 0 {
		collaborative, err := e.searchSimilarToSeeds(ctx, seeds, slots, excludeIds)
		if err != nil {
			return nil, fmt.Errorf("collaborative retrieval: %w", err)
		}
		candidates = append(candidates, collaborative...)
		for _, c := range collaborative {
			excludeIds = append(excludeIds, c.Book.Id)
		}
	}
	span(trace, "dynamic_weighting", stageStart, map[string]interface{}{
		"tier":   tier.String(),
		"weight": w,
		"slots":  slots,
	})

	// Base retrieval backfills the rest of the budget from the query
	// embedding alone.
	stageStart = time.Now()
	remaining := e.cfg.TopK - len(candidates)
	if remaining > 0 {
		scored, err := e.books.SearchSimilar(ctx, queryEmbedding, remaining, excludeIds)
		if err != nil {
			return nil, fmt.Errorf("base retrieval: %w", err)
		}
		for _, s := range scored {
			candidates = append(candidates, &Candidate{
				Book:               s.Book,
				RawSimilarity:      s.Similarity,
				AdjustedSimilarity: s.Similarity,
			})
		}
	}
	span(trace, "base_retrieval", stageStart, map[string]interface{}{"candidates": len(candidates)})

	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	stageStart = time.Now()
	applyQualityRerank(candidates)
	span(trace, "quality_rerank", stageStart, nil)

	stageStart = time.Now()
	disliked := e.dislikedBooks(library, libraryBooks)
	if len(disliked) >= e.cfg.MinDislikesForPenalty {
		applyDislikePenalties(candidates, disliked, e.cfg.DislikeActivationThreshold, e.cfg.MaxDislikePenalty)
	}
	span(trace, "dislike_penalty", stageStart, map[string]interface{}{"dislikes": len(disliked)})

	if len(candidates) > e.cfg.TopK {
		candidates = candidates[:e.cfg.TopK]
	}
	return candidates, nil
}

// embedQuery truncates the query to the embedding text budget first;
// provider limits are on input size, not output.
func (e *Engine) embedQuery(text string) ([]float32, error) {
	if len(text) > e.cfg.EmbeddingTextMax {
		text = text[:e.cfg.EmbeddingTextMax]
	}
	resp, err := e.embedder.Generate(text, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func readBookIds(library []store.LibraryEntry) []uuid.UUID {
	var ids []uuid.UUID
	for _, e := range library {
		if e.Shelf != store.ShelfRead {
			continue
		}
		if id, err := uuid.Parse(e.BookId); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// fetchLibraryBooks loads the corpus rows behind read library entries in
// one query, keyed by id for the stages that follow.
func (e *Engine) fetchLibraryBooks(ctx context.Context, library []store.LibraryEntry) (map[uuid.UUID]*entity.Book, error) {
	ids := readBookIds(library)
	if len(ids) == 0 {
		return map[uuid.UUID]*entity.Book{}, nil
	}
	books, err := e.books.FindAll(ctx, specification.ByIDs{IDs: ids})
	if err != nil {
		return nil, err
	}
	byId := make(map[uuid.UUID]*entity.Book, len(books))
	for _, b := range books {
		byId[b.Id] = b
	}
	return byId, nil
}

func (e *Engine) favoriteBooks(library []store.LibraryEntry, byId map[uuid.UUID]*entity.Book) []*entity.Book {
	var out []*entity.Book
	for _, entry := range library {
		if entry.Shelf != store.ShelfRead || entry.UserRating < e.cfg.HighRatingThreshold {
			continue
		}
		if id, err := uuid.Parse(entry.BookId); err == nil {
			if b, ok := byId[id]; ok {
				out = append(out, b)
			}
		}
	}
	return out
}

func (e *Engine) dislikedBooks(library []store.LibraryEntry, byId map[uuid.UUID]*entity.Book) []*entity.Book {
	var out []*entity.Book
	for _, entry := range library {
		if entry.Shelf != store.ShelfRead || entry.UserRating <= 0 || entry.UserRating > e.cfg.DislikeThreshold {
			continue
		}
		if id, err := uuid.Parse(entry.BookId); err == nil {
			if b, ok := byId[id]; ok {
				out = append(out, b)
			}
		}
	}
	return out
}

func (e *Engine) relevantFavorites(queryEmbedding []float32, favorites []*entity.Book) []*entity.Book {
	var out []*entity.Book
	for _, b := range favorites {
		if !b.Retrievable() {
			continue
		}
		if CosineSimilarity(queryEmbedding, b.Embedding) >= e.cfg.FavoritesRelevanceThreshold {
			out = append(out, b)
		}
	}
	return out
}

// seedTier walks the fallback ladder: relevant favorites, then all
// favorites, then everything read. Each step down carries a lower weight
// cap because the signal is weaker.
func (e *Engine) seedTier(library []store.LibraryEntry, byId map[uuid.UUID]*entity.Book, favorites, relevant []*entity.Book) (seedTier, []*entity.Book) {
	if len(relevant) >= e.cfg.MinRelevantFavorites {
		return tierRelevantFavorites, relevant
	}
	if len(favorites) > 0 {
		return tierAllFavorites, favorites
	}
	var read []*entity.Book
	for _, b := range byId {
		read = append(read, b)
	}
	if len(read) > 0 {
		return tierAllRead, read
	}
	return tierNone, nil
}

// searchSimilarToSeeds retrieves by similarity to the centroid of the
// seed embeddings: "readers who liked these also liked".
func (e *Engine) searchSimilarToSeeds(ctx context.Context, seeds []*entity.Book, limit int, excludeIds []uuid.UUID) ([]*Candidate, error) {
	centroid := embeddingCentroid(seeds)
	if centroid == nil {
		return nil, nil
	}
	scored, err := e.books.SearchSimilar(ctx, centroid, limit, excludeIds)
	if err != nil {
		return nil, err
	}
	out := make([]*Candidate, 0, len(scored))
	for _, s := range scored {
		out = append(out, &Candidate{
			Book:               s.Book,
			RawSimilarity:      s.Similarity,
			AdjustedSimilarity: s.Similarity,
		})
	}
	return out, nil
}

func embeddingCentroid(books []*entity.Book) []float32 {
	var sum []float64
	count := 0
	for _, b := range books {
		if !b.Retrievable() {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(b.Embedding))
		}
		if len(b.Embedding) != len(sum) {
			continue
		}
		for i, v := range b.Embedding {
			sum[i] += float64(v)
		}
		count++
	}
	if count == 0 {
		return nil
	}
	centroid := make([]float32, len(sum))
	for i, v := range sum {
		centroid[i] = float32(v / float64(count))
	}
	return centroid
}

func span(trace *observability.Trace, name string, started time.Time, output interface{}) {
	if trace != nil {
		trace.Span(name, started, output)
	}
}
