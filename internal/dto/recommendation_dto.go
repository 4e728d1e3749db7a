package dto

import "github.com/google/uuid"

type BookResponse struct {
	Id              uuid.UUID `json:"id"`
	Isbn13          string    `json:"isbn13"`
	Isbn10          *string   `json:"isbn10,omitempty"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Description     *string   `json:"description,omitempty"`
	Categories      []string  `json:"categories,omitempty"`
	PageCount       *int      `json:"page_count,omitempty"`
	Publisher       *string   `json:"publisher,omitempty"`
	PublicationYear *int      `json:"publication_year,omitempty"`
	Language        *string   `json:"language,omitempty"`
	AverageRating   *float64  `json:"average_rating,omitempty"`
	RatingsCount    *int      `json:"ratings_count,omitempty"`
	CoverURL        *string   `json:"cover_url,omitempty"`
}

type RecommendationWithBook struct {
	Id              uuid.UUID    `json:"id"`
	Book            BookResponse `json:"book"`
	ConfidenceScore float64      `json:"confidence_score"`
	Explanation     string       `json:"explanation"`
	Rank            int          `json:"rank"`
}

type RecommendationsResponse struct {
	SessionId       string                   `json:"session_id"`
	Recommendations []RecommendationWithBook `json:"recommendations"`
	TraceId         *string                  `json:"trace_id,omitempty"`
	TraceURL        *string                  `json:"trace_url,omitempty"`
}
