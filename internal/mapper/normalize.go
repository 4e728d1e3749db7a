package mapper

import (
	"strings"
	"unicode"
)

// NormalizeTitle lowercases, strips the parenthesized series suffix Goodreads
// appends ("The Hobbit (Middle-earth, #1)"), and collapses punctuation so
// different editions of one title compare equal.
func NormalizeTitle(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	if idx := strings.Index(t, "("); idx > 0 {
		t = strings.TrimSpace(t[:idx])
	}
	return squashNonAlnum(t)
}

// NormalizeAuthor lowercases and collapses punctuation, so "J.R.R. Tolkien"
// and "J. R. R. Tolkien" compare equal. Token order is preserved: "Tolkien,
// J.R.R." stays distinct.
func NormalizeAuthor(author string) string {
	return squashNonAlnum(strings.ToLower(strings.TrimSpace(author)))
}

func squashNonAlnum(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace && b.Len() > 0:
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}
