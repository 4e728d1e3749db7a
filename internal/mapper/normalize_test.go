package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"lowercases and trims", "  The Hobbit  ", "the hobbit"},
		{"strips series suffix", "The Hobbit (Middle-earth, #1)", "the hobbit"},
		{"collapses punctuation", "Harry Potter & the Sorcerer's Stone", "harry potter the sorcerer s stone"},
		{"leading paren kept", "(Un)arranged Marriage", "un arranged marriage"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitle(tt.title))
		})
	}
}

func TestNormalizeAuthor(t *testing.T) {
	assert.Equal(t, NormalizeAuthor("J.R.R. Tolkien"), NormalizeAuthor("J. R. R. Tolkien"))
	assert.Equal(t, "j r r tolkien", NormalizeAuthor("J.R.R. Tolkien"))
	assert.NotEqual(t, NormalizeAuthor("Tolkien, J.R.R."), NormalizeAuthor("J.R.R. Tolkien"))
}
