package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"ai-bookrec-be/internal/config"
	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/mapper"
	"ai-bookrec-be/internal/repository/implementation"
	"ai-bookrec-be/pkg/booksapi"
	"ai-bookrec-be/pkg/csvparse"
	"ai-bookrec-be/pkg/database"
	"ai-bookrec-be/pkg/embedding"
	"ai-bookrec-be/pkg/isbn"

	"github.com/google/uuid"
)

// Seeds the shared corpus from the goodbooks-10k dataset
// (https://github.com/zygmuntz/goodbooks-10k books.csv). Each book is
// enriched via Google Books, embedded, and upserted; reruns skip books
// already present.
func main() {
	var (
		filePath = flag.String("file", "books.csv", "path to the goodbooks-10k books.csv")
		limit    = flag.Int("limit", 0, "seed at most N books (0 = all)")
		enrich   = flag.Bool("enrich", true, "fetch metadata from Google Books")
	)
	flag.Parse()

	cfg := config.Load()

	db, err := database.NewGormDB(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Error: Failed to connect to database: %v", err)
	}
	bookRepo := implementation.NewBookRepository(db)

	var embedder embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embedder = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	} else {
		embedder = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}
	booksClient := booksapi.NewClient(cfg.Keys.GoogleBooks)

	file, err := os.Open(*filePath)
	if err != nil {
		log.Fatalf("Error: Failed to open %s: %v", *filePath, err)
	}
	rows, err := csvparse.ParseGoodbooks(file)
	file.Close()
	if err != nil {
		log.Fatalf("Error: Failed to parse %s: %v", *filePath, err)
	}
	log.Printf("Parsed %d seed rows from %s", len(rows), *filePath)

	ctx := context.Background()
	var added, existing, skipped, failed int

	for i, row := range rows {
		if *limit > 0 && added >= *limit {
			break
		}
		if i > 0 && i%100 == 0 {
			log.Printf("Progress: %d/%d (added %d, existing %d, skipped %d, failed %d)",
				i, len(rows), added, existing, skipped, failed)
		}

		isbn13 := isbn.Normalize(row.Isbn13)
		if isbn13 == "" {
			isbn13 = isbn.Normalize(row.Isbn)
		}
		if isbn13 == "" {
			skipped++
			continue
		}

		found, err := bookRepo.FindByIdentifier(ctx, isbn13,
			mapper.NormalizeTitle(row.Title), mapper.NormalizeAuthor(row.Author))
		if err != nil {
			log.Fatalf("Error: Corpus lookup failed: %v", err)
		}
		if found != nil {
			existing++
			continue
		}

		book := &entity.Book{
			Id:         uuid.New(),
			Isbn13:     isbn13,
			Title:      row.Title,
			Author:     row.Author,
			DataSource: "seed",
		}
		if isbn10 := isbn.To10(isbn13); isbn10 != "" {
			book.Isbn10 = &isbn10
		}

		if *enrich {
			volume, err := booksClient.FetchByIsbn(ctx, isbn13)
			if errors.Is(err, booksapi.ErrQuotaExceeded) {
				log.Printf("Google Books quota exceeded at row %d; stopping", i)
				break
			}
			if err != nil {
				failed++
				continue
			}
			if volume != nil {
				applyVolume(book, volume, cfg.Pipeline.DescriptionMax)
			}
		}

		res, err := embedder.Generate(bookText(book, cfg.Pipeline.EmbeddingTextMax), embedding.TaskRetrievalDocument)
		if err != nil {
			log.Printf("Warn: Embedding failed for %s: %v", book.Isbn13, err)
			failed++
			continue
		}
		book.Embedding = res.Values

		_, created, err := bookRepo.Upsert(ctx, book)
		if err != nil {
			log.Fatalf("Error: Upsert failed for %s: %v", book.Isbn13, err)
		}
		if created {
			added++
		} else {
			existing++
		}
	}

	log.Printf("Seeding complete: added %d, existing %d, skipped %d, failed %d",
		added, existing, skipped, failed)
}

func applyVolume(book *entity.Book, v *booksapi.Volume, descriptionMax int) {
	if v13 := isbn.Normalize(v.Isbn13); v13 != "" {
		book.Isbn13 = v13
	}
	if v.Title != "" && v.Title != "Unknown Title" {
		book.Title = v.Title
	}
	if v.Author != "" && v.Author != "Unknown Author" {
		book.Author = v.Author
	}
	if v.Description != nil {
		desc := truncate(*v.Description, descriptionMax)
		book.Description = &desc
	}
	book.Categories = v.Categories
	book.PageCount = v.PageCount
	book.Publisher = v.Publisher
	book.PublicationYear = v.PublicationYear
	book.Language = v.Language
	book.AverageRating = v.AverageRating
	book.RatingsCount = v.RatingsCount
	book.CoverURL = v.CoverURL
	book.DataSource = "google_books"
}

func bookText(book *entity.Book, maxLen int) string {
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
	return truncate(b.String(), maxLen)
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= maxLen {
		return string(runes)
	}
	return string(runes[:maxLen])
}
