package entity

import (
	"time"

	"github.com/google/uuid"
)

type Book struct {
	Id              uuid.UUID
	Isbn13          string
	Isbn10          *string
	Title           string
	Author          string
	Description     *string
	Categories      []string
	PageCount       *int
	Publisher       *string
	PublicationYear *int
	Language        *string
	AverageRating   *float64
	RatingsCount    *int
	CoverURL        *string
	Embedding       []float32 // nil until embedded
	DataSource      string
	CreatedAt       time.Time
}

// Retrievable reports whether the book is eligible for vector search.
func (b *Book) Retrievable() bool {
	return len(b.Embedding) > 0
}
