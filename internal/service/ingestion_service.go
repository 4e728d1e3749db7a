package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"ai-bookrec-be/internal/config"
	"ai-bookrec-be/internal/dto"
	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/mapper"
	"ai-bookrec-be/internal/pkg/logger"
	"ai-bookrec-be/internal/repository/contract"
	"ai-bookrec-be/internal/repository/unitofwork"
	"ai-bookrec-be/pkg/booksapi"
	"ai-bookrec-be/pkg/csvparse"
	"ai-bookrec-be/pkg/embedding"
	"ai-bookrec-be/pkg/events"
	"ai-bookrec-be/pkg/isbn"
	"ai-bookrec-be/pkg/nats"
	"ai-bookrec-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IIngestionService interface {
	Consume(ctx context.Context) error
}

// VolumeFetcher is the slice of the Google Books client ingestion needs.
type VolumeFetcher interface {
	FetchByIsbn(ctx context.Context, isbn string) (*booksapi.Volume, error)
}

type ingestionService struct {
	pubSub    *gochannel.GoChannel
	topicName string

	uowFactory unitofwork.RepositoryFactory
	sessions   contract.SessionRepository
	booksAPI   VolumeFetcher
	embedder   embedding.Provider
	bus        *nats.Publisher // nil when the bus is unavailable
	cfg        config.PipelineConfig
	logger     logger.ILogger
}

func NewIngestionService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	sessions contract.SessionRepository,
	booksAPI VolumeFetcher,
	embedder embedding.Provider,
	bus *nats.Publisher,
	cfg config.PipelineConfig,
	logger logger.ILogger,
) IIngestionService {
	return &ingestionService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		sessions:   sessions,
		booksAPI:   booksAPI,
		embedder:   embedder,
		bus:        bus,
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *ingestionService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *ingestionService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.logger.Error("ingest", "failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}
	// The upload is single-use; remove it whether the run succeeds or not.
	defer os.Remove(payload.FilePath)

	if err := s.ingest(ctx, payload.SessionId, payload.FilePath); err != nil {
		s.logger.Error("ingest", "library ingestion failed", map[string]interface{}{
			"session_id": payload.SessionId,
			"error":      err.Error(),
		})
		s.markFailed(ctx, payload.SessionId, err)
	}

	// Failures are recorded on the session, not retried: re-running a
	// partially ingested export would double count progress.
	msg.Ack()
}

func (s *ingestionService) markFailed(ctx context.Context, sessionId string, cause error) {
	if err := s.sessions.SetIngestStatus(ctx, sessionId, store.IngestStatusFailed); err != nil {
		s.logger.Error("ingest", "failed to record failure status", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}
	progress, err := s.sessions.GetIngestProgress(ctx, sessionId)
	if err != nil || progress == nil {
		progress = &store.IngestProgress{}
	}
	progress.Error = cause.Error()
	if err := s.sessions.SetIngestProgress(ctx, sessionId, progress); err != nil {
		s.logger.Error("ingest", "failed to record failure progress", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}
	s.publishEvent(ctx, events.NewIngestFailed(sessionId, cause.Error()))
}

// publishEvent ships a lifecycle event when the bus is up. Delivery is
// best effort; ingestion never fails on it.
func (s *ingestionService) publishEvent(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("ingest", "event publish failed", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}

// ingest runs one export end to end: parse, enrich, embed, upsert into the
// shared corpus, and attach the resulting library to the session. The
// session lease is the kill switch: when it expires mid-run the worker
// stops quietly and leaves the corpus rows it already added in place.
func (s *ingestionService) ingest(ctx context.Context, sessionId, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open export: %w", err)
	}
	rows, err := csvparse.ParseGoodreads(file)
	file.Close()
	if err != nil {
		return err
	}

	session, err := s.sessions.Get(ctx, sessionId)
	if err != nil {
		return err
	}
	if session == nil {
		s.logger.Warn("ingest", "session expired before ingestion started", map[string]interface{}{"session_id": sessionId})
		return nil
	}

	if err := s.sessions.SetIngestStatus(ctx, sessionId, store.IngestStatusProcessing); err != nil {
		return err
	}
	progress := &store.IngestProgress{Total: len(rows)}
	if err := s.sessions.SetIngestProgress(ctx, sessionId, progress); err != nil {
		return err
	}
	s.publishEvent(ctx, events.NewIngestStarted(sessionId, len(rows)))

	bookRepo := s.uowFactory.NewUnitOfWork(ctx).BookRepository()

	// Exports routinely list the same work under multiple editions; dedup
	// within the batch by normalized ISBN, falling back to title+author.
	seen := map[string]bool{}
	var library []store.LibraryEntry

	interval := s.cfg.ProgressUpdateInterval
	if interval <= 0 {
		interval = 10
	}

	for i, row := range rows {
		if i > 0 && i%interval == 0 {
			alive, err := s.checkpoint(ctx, sessionId, progress)
			if err != nil {
				return err
			}
			if !alive {
				s.logger.Warn("ingest", "session expired mid-run, stopping", map[string]interface{}{
					"session_id": sessionId,
					"processed":  progress.Processed,
				})
				return nil
			}
		}

		entry, outcome, err := s.processRow(ctx, bookRepo, row, seen)
		if err != nil {
			// Row failures (enrichment miss, quota, embed) are skips, never
			// a run abort. Once the quota breaker opens the remaining new
			// rows fail fast; already-known books still resolve.
			s.logger.Warn("ingest", "row failed", map[string]interface{}{
				"session_id": sessionId,
				"title":      row.Title,
				"error":      err.Error(),
			})
			outcome = rowFailed
		}
		progress.Processed++
		switch outcome {
		case rowAdded:
			progress.Added++
		case rowExisting:
			progress.Existing++
		case rowFailed:
			progress.Failed++
		}
		if entry != nil {
			library = append(library, *entry)
		}
	}

	// Re-read instead of reusing the copy from before the loop: the user
	// may have submitted answers while ingestion was running.
	session, err = s.sessions.Get(ctx, sessionId)
	if err != nil {
		return err
	}
	if session == nil {
		s.logger.Warn("ingest", "session expired before completion", map[string]interface{}{"session_id": sessionId})
		return nil
	}
	session.Library = library
	session.CsvUploaded = true
	if err := s.sessions.Update(ctx, session); err != nil {
		return err
	}

	if err := s.sessions.SetIngestProgress(ctx, sessionId, progress); err != nil {
		return err
	}
	if err := s.sessions.SetIngestStatus(ctx, sessionId, store.IngestStatusCompleted); err != nil {
		return err
	}
	s.publishEvent(ctx, events.NewIngestCompleted(sessionId, progress.Processed, progress.Added, progress.Failed))

	s.logger.Info("ingest", "library ingestion completed", map[string]interface{}{
		"session_id": sessionId,
		"processed":  progress.Processed,
		"added":      progress.Added,
		"existing":   progress.Existing,
		"failed":     progress.Failed,
	})
	return nil
}

// checkpoint persists progress and extends the session lease. Returns
// alive=false when the session is gone.
func (s *ingestionService) checkpoint(ctx context.Context, sessionId string, progress *store.IngestProgress) (bool, error) {
	session, err := s.sessions.Get(ctx, sessionId)
	if err != nil {
		return false, err
	}
	if session == nil {
		return false, nil
	}
	if err := s.sessions.ExtendTTL(ctx, sessionId); err != nil {
		return false, err
	}
	if err := s.sessions.SetIngestProgress(ctx, sessionId, progress); err != nil {
		return false, err
	}
	return true, nil
}

type rowOutcome int

const (
	rowSkipped rowOutcome = iota
	rowAdded
	rowExisting
	rowFailed
)

// processRow resolves one export row to a corpus book and returns the
// library entry linking the session to it. Rows without a valid ISBN and
// in-batch duplicates return (nil, rowSkipped, nil).
func (s *ingestionService) processRow(ctx context.Context, bookRepo contract.BookRepository, row csvparse.Row, seen map[string]bool) (*store.LibraryEntry, rowOutcome, error) {
	isbn13 := isbn.Normalize(row.Isbn13)
	if isbn13 == "" {
		isbn13 = isbn.Normalize(row.Isbn)
	}
	titleNorm := mapper.NormalizeTitle(row.Title)
	authorNorm := mapper.NormalizeAuthor(row.Author)

	if isbn13 == "" {
		return nil, rowSkipped, nil
	}

	key := "isbn:" + isbn13
	taKey := "ta:" + titleNorm + ":" + authorNorm
	if seen[key] || seen[taKey] {
		return nil, rowSkipped, nil
	}
	seen[key] = true
	seen[taKey] = true

	book, err := bookRepo.FindByIdentifier(ctx, isbn13, titleNorm, authorNorm)
	if err != nil {
		return nil, rowFailed, err
	}
	if book != nil {
		return libraryEntry(book, row), rowExisting, nil
	}

	book, err = s.buildBook(ctx, row, isbn13)
	if err != nil {
		return nil, rowFailed, err
	}

	book, created, err := bookRepo.Upsert(ctx, book)
	if err != nil {
		return nil, rowFailed, err
	}
	outcome := rowExisting
	if created {
		outcome = rowAdded
	}
	return libraryEntry(book, row), outcome, nil
}

// buildBook enriches a row from Google Books, falling back to the bare CSV
// metadata when the catalog has no match, and embeds the result.
func (s *ingestionService) buildBook(ctx context.Context, row csvparse.Row, isbn13 string) (*entity.Book, error) {
	volume, err := s.booksAPI.FetchByIsbn(ctx, isbn13)
	if err != nil {
		return nil, err
	}
	if volume == nil {
		if isbn10 := isbn.To10(isbn13); isbn10 != "" {
			volume, err = s.booksAPI.FetchByIsbn(ctx, isbn10)
			if err != nil {
				return nil, err
			}
		}
	}

	book := &entity.Book{
		Id:         uuid.New(),
		Isbn13:     isbn13,
		Title:      row.Title,
		Author:     row.Author,
		DataSource: "goodreads_csv",
	}
	if isbn10 := isbn.To10(isbn13); isbn10 != "" {
		book.Isbn10 = &isbn10
	}

	if volume != nil {
		// API metadata wins over the export's, which carries edition noise.
		if v13 := isbn.Normalize(volume.Isbn13); v13 != "" {
			book.Isbn13 = v13
		}
		if volume.Title != "" && volume.Title != "Unknown Title" {
			book.Title = volume.Title
		}
		if volume.Author != "" && volume.Author != "Unknown Author" {
			book.Author = volume.Author
		}
		book.Description = truncatePtr(volume.Description, s.cfg.DescriptionMax)
		book.Categories = volume.Categories
		book.PageCount = volume.PageCount
		book.Publisher = volume.Publisher
		book.PublicationYear = volume.PublicationYear
		book.Language = volume.Language
		book.AverageRating = volume.AverageRating
		book.RatingsCount = volume.RatingsCount
		book.CoverURL = volume.CoverURL
		book.DataSource = "google_books"
	}

	res, err := s.embedder.Generate(formatBookText(book, s.cfg.EmbeddingTextMax), embedding.TaskRetrievalDocument)
	if err != nil {
		// Store without an embedding rather than losing the book; it stays
		// out of retrieval until backfilled.
		s.logger.Warn("ingest", "embedding failed, storing without", map[string]interface{}{
			"isbn13": book.Isbn13,
			"error":  err.Error(),
		})
	} else {
		book.Embedding = res.Values
	}

	return book, nil
}

// formatBookText renders the text a book is embedded under: title, author
// and description first, then the short metadata tail so it survives
// truncation of a long description.
func formatBookText(book *entity.Book, maxLen int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s by %s", book.Title, book.Author)
	if len(book.Categories) > 0 {
		fmt.Fprintf(&b, ". Categories: %s", strings.Join(book.Categories, ", "))
	}
	if book.PublicationYear != nil {
		fmt.Fprintf(&b, ". Published %d", *book.PublicationYear)
	}
	if book.PageCount != nil {
		fmt.Fprintf(&b, ". %d pages", *book.PageCount)
	}
	if book.Description != nil && *book.Description != "" {
		fmt.Fprintf(&b, ". %s", *book.Description)
	}
	return truncateRunes(b.String(), maxLen)
}

func libraryEntry(book *entity.Book, row csvparse.Row) *store.LibraryEntry {
	return &store.LibraryEntry{
		BookId:     book.Id.String(),
		Title:      book.Title,
		Author:     book.Author,
		UserRating: row.UserRating,
		Shelf:      row.ExclusiveShelf,
	}
}

func truncatePtr(s *string, maxLen int) *string {
	if s == nil {
		return nil
	}
	t := truncateRunes(*s, maxLen)
	return &t
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= maxLen {
		return string(runes)
	}
	return string(runes[:maxLen])
}
