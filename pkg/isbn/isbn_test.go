package isbn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"hyphenated", "0-306-40615-2", "0306406152"},
		{"spaces and quotes", ` "978 0306406157" `, "9780306406157"},
		{"lowercase check char", "043942089x", "043942089X"},
		{"x in the middle is invalid", "04394X2089", ""},
		{"letters are invalid", "ABC1234567", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonical(tt.raw))
		})
	}
}

func TestCheckDigits(t *testing.T) {
	assert.True(t, IsISBN10("0306406152"))
	assert.True(t, IsISBN10("043942089X"))
	assert.False(t, IsISBN10("0306406153"))
	assert.False(t, IsISBN10("030640615"))

	assert.True(t, IsISBN13("9780306406157"))
	assert.False(t, IsISBN13("9780306406158"))
	assert.False(t, IsISBN13("978030640615"))
}

func TestConversion(t *testing.T) {
	assert.Equal(t, "9780306406157", To13("0306406152"))
	assert.Equal(t, "0306406152", To10("9780306406157"))

	// X check digit round-trips.
	assert.Equal(t, "043942089X", To10(To13("043942089X")))

	// 979-prefixed identifiers have no ISBN-10 form.
	assert.Equal(t, "", To10("9798886451740"))

	assert.Equal(t, "", To13("0306406153"))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"isbn10 to 13", "0-306-40615-2", "9780306406157"},
		{"isbn13 passthrough", "978-0-306-40615-7", "9780306406157"},
		{"invalid check digit", "0306406153", ""},
		{"garbage", "not-an-isbn", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("0-306-40615-2"))
	assert.True(t, IsValid("9780306406157"))
	assert.False(t, IsValid("0306406153"))
	assert.False(t, IsValid(""))
}
