package recommend

import (
	"testing"

	"ai-bookrec-be/internal/entity"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestQualityScore(t *testing.T) {
	longDesc := make([]byte, 150)
	for i := range longDesc {
		longDesc[i] = 'a'
	}

	tests := []struct {
		name string
		book *entity.Book
		want float64
	}{
		{
			name: "bare metadata scores zero",
			book: &entity.Book{Title: "T", Author: "A"},
			want: 0.0,
		},
		{
			name: "full metadata scores one",
			book: &entity.Book{
				Description:  strPtr(string(longDesc)),
				Categories:   []string{"Fiction", "Fantasy"},
				RatingsCount: intPtr(500),
				PageCount:    intPtr(320),
				Publisher:    strPtr("Tor"),
			},
			want: 1.0,
		},
		{
			name: "short description",
			book: &entity.Book{Description: strPtr("brief")},
			want: 0.2,
		},
		{
			name: "single category and medium ratings",
			book: &entity.Book{
				Categories:   []string{"Fiction"},
				RatingsCount: intPtr(50),
			},
			want: 0.2,
		},
		{
			name: "ratings at boundary do not count",
			book: &entity.Book{RatingsCount: intPtr(10)},
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, QualityScore(tt.book), 1e-9)
		})
	}
}

func TestApplyQualityRerank(t *testing.T) {
	longDesc := make([]byte, 150)
	for i := range longDesc {
		longDesc[i] = 'a'
	}

	// Rich metadata at lower raw similarity overtakes a bare record.
	rich := &Candidate{
		Book: &entity.Book{
			Title:        "Rich",
			Description:  strPtr(string(longDesc)),
			Categories:   []string{"A", "B"},
			RatingsCount: intPtr(500),
			PageCount:    intPtr(100),
			Publisher:    strPtr("P"),
		},
		RawSimilarity:      0.7,
		AdjustedSimilarity: 0.7,
	}
	bare := &Candidate{
		Book:               &entity.Book{Title: "Bare", Description: strPtr("x")},
		RawSimilarity:      0.9,
		AdjustedSimilarity: 0.9,
	}

	candidates := []*Candidate{bare, rich}
	applyQualityRerank(candidates)

	assert.Equal(t, "Rich", candidates[0].Book.Title)
	assert.InDelta(t, 0.7, candidates[0].AdjustedSimilarity, 1e-9)
	assert.InDelta(t, 0.9*0.2, candidates[1].AdjustedSimilarity, 1e-9)
}
