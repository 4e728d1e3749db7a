// Package isbn validates and normalizes ISBN identifiers. All corpus
// storage keys on ISBN-13, so conversion from ISBN-10 is the common path.
package isbn

import "strings"

// Canonical strips hyphens, spaces and surrounding quotes, uppercasing a
// trailing check character. Returns "" when the remainder is not a
// plausible ISBN body.
func Canonical(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteByte('X')
		case r == '-' || r == ' ' || r == '"' || r == '\'':
			// formatting noise
		default:
			return ""
		}
	}
	s := b.String()
	// X is only legal as the final ISBN-10 check digit.
	if i := strings.IndexByte(s, 'X'); i >= 0 && i != 9 {
		return ""
	}
	return s
}

// IsISBN10 reports whether s is a canonical, check-digit-valid ISBN-10.
func IsISBN10(s string) bool {
	if len(s) != 10 {
		return false
	}
	sum := 0
	for i := 0; i < 10; i++ {
		var v int
		switch {
		case s[i] >= '0' && s[i] <= '9':
			v = int(s[i] - '0')
		case s[i] == 'X' && i == 9:
			v = 10
		default:
			return false
		}
		sum += v * (10 - i)
	}
	return sum%11 == 0
}

// IsISBN13 reports whether s is a canonical, check-digit-valid ISBN-13.
func IsISBN13(s string) bool {
	if len(s) != 13 {
		return false
	}
	sum := 0
	for i := 0; i < 13; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		v := int(s[i] - '0')
		if i%2 == 1 {
			v *= 3
		}
		sum += v
	}
	return sum%10 == 0
}

// To13 converts a valid ISBN-10 to its 978-prefixed ISBN-13.
func To13(isbn10 string) string {
	if !IsISBN10(isbn10) {
		return ""
	}
	body := "978" + isbn10[:9]
	sum := 0
	for i := 0; i < 12; i++ {
		v := int(body[i] - '0')
		if i%2 == 1 {
			v *= 3
		}
		sum += v
	}
	check := (10 - sum%10) % 10
	return body + string(rune('0'+check))
}

// To10 converts a 978-prefixed ISBN-13 back to ISBN-10. 979-prefixed
// identifiers have no ISBN-10 form and yield "".
func To10(isbn13 string) string {
	if !IsISBN13(isbn13) || !strings.HasPrefix(isbn13, "978") {
		return ""
	}
	body := isbn13[3:12]
	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(body[i]-'0') * (10 - i)
	}
	check := (11 - sum%11) % 11
	if check == 10 {
		return body + "X"
	}
	return body + string(rune('0'+check))
}

// Normalize returns the ISBN-13 form of any valid ISBN, or "" when the
// input is not a valid ISBN-10 or ISBN-13.
func Normalize(raw string) string {
	s := Canonical(raw)
	if s == "" {
		return ""
	}
	switch {
	case IsISBN13(s):
		return s
	case IsISBN10(s):
		return To13(s)
	default:
		return ""
	}
}

// IsValid reports whether raw cleans up to a valid ISBN of either length.
func IsValid(raw string) bool {
	s := Canonical(raw)
	return s != "" && (IsISBN10(s) || IsISBN13(s))
}
