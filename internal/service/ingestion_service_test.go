package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ai-bookrec-be/internal/config"
	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/mapper"
	"ai-bookrec-be/internal/repository/contract"
	"ai-bookrec-be/internal/repository/memory"
	"ai-bookrec-be/internal/repository/specification"
	"ai-bookrec-be/internal/repository/unitofwork"
	"ai-bookrec-be/pkg/booksapi"
	"ai-bookrec-be/pkg/embedding"
	"ai-bookrec-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

// memBookRepo is an in-memory corpus for worker tests.
type memBookRepo struct {
	books []*entity.Book
}

func (r *memBookRepo) Upsert(ctx context.Context, book *entity.Book) (*entity.Book, bool, error) {
	for _, b := range r.books {
		if b.Isbn13 == book.Isbn13 {
			return b, false, nil
		}
	}
	r.books = append(r.books, book)
	return book, true, nil
}

func (r *memBookRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Book, error) {
	return nil, nil
}

func (r *memBookRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Book, error) {
	return r.books, nil
}

func (r *memBookRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.books)), nil
}

func (r *memBookRepo) FindByIdentifier(ctx context.Context, isbn, titleNorm, authorNorm string) (*entity.Book, error) {
	for _, b := range r.books {
		if isbn != "" && b.Isbn13 == isbn {
			return b, nil
		}
	}
	if titleNorm == "" || authorNorm == "" {
		return nil, nil
	}
	for _, b := range r.books {
		if mapper.NormalizeTitle(b.Title) == titleNorm && mapper.NormalizeAuthor(b.Author) == authorNorm {
			return b, nil
		}
	}
	return nil, nil
}

func (r *memBookRepo) SearchSimilar(ctx context.Context, emb []float32, limit int, excludeIds []uuid.UUID) ([]*contract.ScoredBook, error) {
	return nil, nil
}

func (r *memBookRepo) SetEmbedding(ctx context.Context, id uuid.UUID, emb []float32) error {
	return nil
}

type fakeUow struct {
	books contract.BookRepository
	recs  contract.RecommendationRepository
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }
func (u *fakeUow) BookRepository() contract.BookRepository {
	return u.books
}
func (u *fakeUow) RecommendationRepository() contract.RecommendationRepository {
	return u.recs
}

type fakeFactory struct {
	uow unitofwork.UnitOfWork
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type fakeFetcher struct {
	volumes map[string]*booksapi.Volume
	err     error
}

func (f *fakeFetcher) FetchByIsbn(ctx context.Context, isbn string) (*booksapi.Volume, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.volumes[isbn], nil
}

type fixedEmbedder struct{}

func (fixedEmbedder) Generate(text, taskType string) (*embedding.Response, error) {
	return &embedding.Response{Values: []float32{1, 0, 0}}, nil
}

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestIngestion(repo *memBookRepo, sessions contract.SessionRepository, fetcher VolumeFetcher) *ingestionService {
	cfg := config.PipelineConfig{
		DescriptionMax:         2000,
		EmbeddingTextMax:       2000,
		ProgressUpdateInterval: 2,
	}
	svc := NewIngestionService(
		nil, "ingest",
		&fakeFactory{uow: &fakeUow{books: repo}},
		sessions, fetcher, fixedEmbedder{}, nil, cfg, nopLogger{},
	)
	return svc.(*ingestionService)
}

const exportHeader = "Title,Author,ISBN,ISBN13,My Rating,Exclusive Shelf\n"

func TestIngestEndToEnd(t *testing.T) {
	ctx := context.Background()

	desc := "A sweeping desert epic."
	fetcher := &fakeFetcher{volumes: map[string]*booksapi.Volume{
		"9780441005901": {
			Isbn13:      "9780441005901",
			Title:       "Dune",
			Author:      "Frank Herbert",
			Description: &desc,
			Categories:  []string{"Science Fiction"},
		},
	}}

	repo := &memBookRepo{books: []*entity.Book{{
		Id:     uuid.New(),
		Isbn13: "9780306406157",
		Title:  "Known Book",
		Author: "Known Author",
	}}}

	sessions := memory.NewSessionRepository(time.Hour)
	require.NoError(t, sessions.Create(ctx, &store.Session{ID: "sess-1", InitialQuery: "sci-fi"}))

	csv := exportHeader +
		"Dune,Frank Herbert,0441005901,9780441005901,5,read\n" +
		"Dune Reissue,Frank Herbert,,9780441005901,4,read\n" +
		"Known Book,Known Author,,9780306406157,3,read\n" +
		"No Identifier,Somebody,,,2,read\n" +
		"The Hobbit,J.R.R. Tolkien,,9780345339683,5,to-read\n"

	svc := newTestIngestion(repo, sessions, fetcher)
	require.NoError(t, svc.ingest(ctx, "sess-1", writeExport(t, csv)))

	status, err := sessions.GetIngestStatus(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, store.IngestStatusCompleted, status)

	progress, err := sessions.GetIngestProgress(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.Equal(t, 5, progress.Total)
	assert.Equal(t, 5, progress.Processed)
	assert.Equal(t, 2, progress.Added)
	assert.Equal(t, 1, progress.Existing)
	assert.Equal(t, 0, progress.Failed)

	session, err := sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.True(t, session.CsvUploaded)
	require.Len(t, session.Library, 3)

	// API metadata wins for the enriched entry.
	assert.Equal(t, "Dune", session.Library[0].Title)
	assert.Equal(t, 5, session.Library[0].UserRating)
	assert.Equal(t, "read", session.Library[0].Shelf)
	assert.Equal(t, "Known Book", session.Library[1].Title)
	// Catalog miss falls back to the export's metadata, shelf preserved.
	assert.Equal(t, "The Hobbit", session.Library[2].Title)
	assert.Equal(t, "to-read", session.Library[2].Shelf)

	// The new corpus rows got embedded; the pre-existing one was untouched.
	require.Len(t, repo.books, 3)
	assert.True(t, repo.books[1].Retrievable())
	assert.True(t, repo.books[2].Retrievable())
	assert.Equal(t, "google_books", repo.books[1].DataSource)
	assert.Equal(t, "goodreads_csv", repo.books[2].DataSource)
}

func TestIngestMalformedCsvFails(t *testing.T) {
	ctx := context.Background()
	sessions := memory.NewSessionRepository(time.Hour)
	require.NoError(t, sessions.Create(ctx, &store.Session{ID: "sess-1"}))

	svc := newTestIngestion(&memBookRepo{}, sessions, &fakeFetcher{})
	err := svc.ingest(ctx, "sess-1", writeExport(t, "Title,Author\nDune,Herbert\n"))
	assert.Error(t, err)
}

func TestIngestQuotaSkipsRowsWithoutAborting(t *testing.T) {
	ctx := context.Background()
	sessions := memory.NewSessionRepository(time.Hour)
	require.NoError(t, sessions.Create(ctx, &store.Session{ID: "sess-1"}))

	repo := &memBookRepo{books: []*entity.Book{{
		Id:     uuid.New(),
		Isbn13: "9780306406157",
		Title:  "Known Book",
		Author: "Known Author",
	}}}
	fetcher := &fakeFetcher{err: booksapi.ErrQuotaExceeded}
	svc := newTestIngestion(repo, sessions, fetcher)

	csv := exportHeader +
		"Dune,Frank Herbert,,9780441005901,5,read\n" +
		"Known Book,Known Author,,9780306406157,3,read\n"
	require.NoError(t, svc.ingest(ctx, "sess-1", writeExport(t, csv)))

	status, err := sessions.GetIngestStatus(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, store.IngestStatusCompleted, status)

	// The quota-hit row is a skip; the already-known book still resolves.
	progress, err := sessions.GetIngestProgress(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.Equal(t, 2, progress.Processed)
	assert.Equal(t, 1, progress.Failed)
	assert.Equal(t, 1, progress.Existing)
	assert.Equal(t, 0, progress.Added)

	session, err := sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, session.Library, 1)
	assert.Equal(t, "Known Book", session.Library[0].Title)
}

func TestIngestExpiredSessionStopsQuietly(t *testing.T) {
	ctx := context.Background()
	sessions := memory.NewSessionRepository(time.Hour)

	svc := newTestIngestion(&memBookRepo{}, sessions, &fakeFetcher{})

	csv := exportHeader + "Dune,Frank Herbert,,9780441005901,5,read\n"
	assert.NoError(t, svc.ingest(ctx, "gone", writeExport(t, csv)))
}
