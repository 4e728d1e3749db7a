package recommend

import (
	"sort"

	"ai-bookrec-be/internal/constant"
	"ai-bookrec-be/internal/entity"
)

// QualityScore rates a book's metadata completeness in [0,1]. The
// description dominates because it is what the embedding was built from.
func QualityScore(book *entity.Book) float64 {
	score := 0.0

	if book.Description != nil && len(*book.Description) > constant.QualityDescriptionLongAt {
		score += constant.QualityDescriptionLong
	} else if book.Description != nil && *book.Description != "" {
		score += constant.QualityDescriptionShort
	}

	if len(book.Categories) >= 2 {
		score += constant.QualityCategoriesMulti
	} else if len(book.Categories) == 1 {
		score += constant.QualityCategoriesSingle
	}

	if book.RatingsCount != nil && *book.RatingsCount > 100 {
		score += constant.QualityRatingsHigh
	} else if book.RatingsCount != nil && *book.RatingsCount > 10 {
		score += constant.QualityRatingsMedium
	}

	if book.PageCount != nil {
		score += constant.QualityPageCount
	}
	if book.Publisher != nil {
		score += constant.QualityPublisher
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// applyQualityRerank multiplies each candidate's similarity by its quality
// score and re-sorts descending.
func applyQualityRerank(candidates []*Candidate) {
	for _, c := range candidates {
		c.QualityScore = QualityScore(c.Book)
		c.AdjustedSimilarity = c.RawSimilarity * c.QualityScore
	}
	sortByAdjusted(candidates)
}

func sortByAdjusted(candidates []*Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].AdjustedSimilarity > candidates[j].AdjustedSimilarity
	})
}
