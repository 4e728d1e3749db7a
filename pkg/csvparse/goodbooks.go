package csvparse

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SeedRow is one book from the goodbooks-10k dataset used to seed the
// shared corpus. See https://github.com/zygmuntz/goodbooks-10k
type SeedRow struct {
	Isbn   string
	Isbn13 string
	Title  string
	Author string
}

// ParseGoodbooks reads the goodbooks-10k books.csv format. The dataset
// stores isbn13 in scientific notation (9.78043902348e+12), so numeric
// values are round-tripped through a float.
func ParseGoodbooks(r io.Reader) ([]SeedRow, error) {
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
	required := []string{"isbn", "isbn13", "title", "authors"}
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
		return strings.TrimSpace(record[i])
	}

	var rows []SeedRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv: %w", err)
		}

		isbn := cleanSeedIsbn(field(record, "isbn"))
		isbn13 := cleanScientificIsbn(field(record, "isbn13"))
		if isbn == "" && isbn13 == "" {
			continue
		}

		title := field(record, "title")
		if title == "" {
			title = "Unknown Title"
		}
		author := field(record, "authors")
		if author == "" {
			author = "Unknown Author"
		}

		rows = append(rows, SeedRow{
			Isbn:   isbn,
			Isbn13: isbn13,
			Title:  title,
			Author: author,
		})
	}
	return rows, nil
}

func cleanSeedIsbn(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" || s == "0" {
		return ""
	}
	if isbnBody.MatchString(strings.NewReplacer("-", "", " ", "").Replace(s)) {
		return strings.NewReplacer("-", "", " ", "").Replace(s)
	}
	// numeric cell exported as a float
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		v := strconv.FormatInt(int64(f), 10)
		if v != "0" {
			return v
		}
	}
	return ""
}

func cleanScientificIsbn(raw string) string {
	if raw == "" {
		return ""
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return ""
	}
	return strconv.FormatInt(int64(f), 10)
}
