// Package csvparse reads Goodreads library exports and the goodbooks-10k
// seed dataset into row structs for ingestion.
package csvparse

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Goodreads export column names.
const (
	ColumnIsbn           = "ISBN"
	ColumnIsbn13         = "ISBN13"
	ColumnTitle          = "Title"
	ColumnAuthor         = "Author"
	ColumnRating         = "My Rating"
	ColumnExclusiveShelf = "Exclusive Shelf"
)

// Row is one library entry from a Goodreads export.
type Row struct {
	Isbn           string
	Isbn13         string
	Title          string
	Author         string
	UserRating     int    // 0-5, 0 meaning unrated
	ExclusiveShelf string // "read", "to-read", "currently-reading", ...
}

var isbnBody = regexp.MustCompile(`^[0-9Xx]+$`)

// CleanIsbn strips the Excel formula notation Goodreads wraps ISBNs in
// (="0451490827") along with quotes, hyphens and spaces. Returns "" when
// nothing ISBN-shaped remains.
func CleanIsbn(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = s[2 : len(s)-1]
	}
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	s = strings.NewReplacer("-", "", " ", "").Replace(s)
	if s == "" || !isbnBody.MatchString(s) {
		return ""
	}
	return s
}

// ParseGoodreads reads a Goodreads library export. Rows with no valid ISBN
// in either column are kept: ingestion counts them as processed and moves
// on, so progress totals stay honest.
func ParseGoodreads(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	idx := map[string]int{}
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	required := []string{ColumnIsbn, ColumnIsbn13, ColumnTitle, ColumnAuthor, ColumnRating, ColumnExclusiveShelf}
	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("csv missing required columns: %s", strings.Join(missing, ", "))
	}

	field := func(record []string, col string) string {
		i := idx[col]
		if i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv: %w", err)
		}

		title := strings.TrimSpace(field(record, ColumnTitle))
		if title == "" {
			title = "Unknown Title"
		}
		author := strings.TrimSpace(field(record, ColumnAuthor))
		if author == "" {
			author = "Unknown Author"
		}

		rating := 0
		if v, err := strconv.Atoi(strings.TrimSpace(field(record, ColumnRating))); err == nil {
			rating = v
		}
		if rating < 0 {
			rating = 0
		}
		if rating > 5 {
			rating = 5
		}

		shelf := strings.ToLower(strings.TrimSpace(field(record, ColumnExclusiveShelf)))
		if shelf == "" {
			shelf = "read"
		}

		rows = append(rows, Row{
			Isbn:           CleanIsbn(field(record, ColumnIsbn)),
			Isbn13:         CleanIsbn(field(record, ColumnIsbn13)),
			Title:          title,
			Author:         author,
			UserRating:     rating,
			ExclusiveShelf: shelf,
		})
	}
	return rows, nil
}

// HasIsbn reports whether the row carries any usable identifier.
func (r Row) HasIsbn() bool {
	return r.Isbn != "" || r.Isbn13 != ""
}
