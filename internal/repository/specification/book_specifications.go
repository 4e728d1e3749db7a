package specification

import "gorm.io/gorm"

// ByIsbn matches a book by either identifier column. Goodreads exports and
// Google Books responses disagree about which form they carry.
type ByIsbn struct {
	Isbn string
}

func (s ByIsbn) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("isbn13 = ? OR isbn10 = ?", s.Isbn, s.Isbn)
}

// ByNormalizedTitleAuthor catches different editions of the same book that
// carry different ISBNs.
type ByNormalizedTitleAuthor struct {
	Title  string
	Author string
}

func (s ByNormalizedTitleAuthor) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("title_normalized = ? AND author_normalized = ?", s.Title, s.Author)
}

// Retrievable keeps only books with a populated embedding.
type Retrievable struct{}

func (s Retrievable) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("embedding IS NOT NULL")
}
