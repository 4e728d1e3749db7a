package csvparse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanIsbn(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"excel formula notation", `="0451490827"`, "0451490827"},
		{"plain", "9780451490827", "9780451490827"},
		{"hyphenated", "978-0451-490827", "9780451490827"},
		{"quoted", `"0451490827"`, "0451490827"},
		{"empty formula", `=""`, ""},
		{"garbage", "n/a", ""},
		{"trailing x kept", "043942089X", "043942089X"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanIsbn(tt.raw))
		})
	}
}

const goodreadsHeader = "Title,Author,ISBN,ISBN13,My Rating,Exclusive Shelf\n"

func TestParseGoodreads(t *testing.T) {
	csv := goodreadsHeader +
		`The Hobbit,J.R.R. Tolkien,"=""0345339681""","=""9780345339683""",5,read` + "\n" +
		`Some Sequel,,"","",7,TO-READ` + "\n" +
		`,Unknown Writer,"=""""","=""""",-1,` + "\n"

	rows, err := ParseGoodreads(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "The Hobbit", rows[0].Title)
	assert.Equal(t, "0345339681", rows[0].Isbn)
	assert.Equal(t, "9780345339683", rows[0].Isbn13)
	assert.Equal(t, 5, rows[0].UserRating)
	assert.Equal(t, "read", rows[0].ExclusiveShelf)
	assert.True(t, rows[0].HasIsbn())

	// Missing author defaults, rating clamps, shelf lowercases.
	assert.Equal(t, "Unknown Author", rows[1].Author)
	assert.Equal(t, 5, rows[1].UserRating)
	assert.Equal(t, "to-read", rows[1].ExclusiveShelf)
	assert.False(t, rows[1].HasIsbn())

	// ISBN-less rows are kept so progress totals stay honest.
	assert.Equal(t, "Unknown Title", rows[2].Title)
	assert.Equal(t, 0, rows[2].UserRating)
	assert.Equal(t, "read", rows[2].ExclusiveShelf)
}

func TestParseGoodreadsMissingColumns(t *testing.T) {
	_, err := ParseGoodreads(strings.NewReader("Title,Author\nThe Hobbit,Tolkien\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")
	assert.Contains(t, err.Error(), "ISBN13")
}

func TestParseGoodreadsEmptyFile(t *testing.T) {
	_, err := ParseGoodreads(strings.NewReader(""))
	assert.Error(t, err)
}
