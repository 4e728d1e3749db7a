package constant

// Quality score weights. A book with full metadata reaches exactly 1.0:
// 0.5 + 0.2 + 0.2 + 0.05 + 0.05.
const (
	QualityDescriptionLong   = 0.5 // description > 100 chars
	QualityDescriptionShort  = 0.2
	QualityCategoriesMulti   = 0.2 // 2+ categories
	QualityCategoriesSingle  = 0.1
	QualityRatingsHigh       = 0.2 // 100+ ratings
	QualityRatingsMedium     = 0.1 // 10+ ratings
	QualityPageCount         = 0.05
	QualityPublisher         = 0.05
	QualityDescriptionLongAt = 100
)

// Collaborative weight caps per fallback tier, and the saturation constant
// of w = cap * n / (n + CollaborativeSaturation).
const (
	CollaborativeCapRelevant  = 0.5
	CollaborativeCapFavorites = 0.3
	CollaborativeCapAllRead   = 0.2
	CollaborativeSaturation   = 3
)

const SelectionCount = 3

const SelectionSystemPrompt = `You are a book recommendation expert. Given a user's query, their reading history, and a list of candidate books, select the top 3 most relevant recommendations.

Consider the following when making recommendations:
- The user's current query and what they're looking for
- Books they loved (high ratings) - recommend similar themes/authors/styles
- Books they disliked (low ratings) - avoid similar books
- Their overall rating distribution and reading preferences
- Quality and relevance of candidate books to the query

For each recommendation, provide:
1. The candidate number from the list
2. A confidence score (0-100) indicating how well it matches the user's needs
3. A concise explanation (2-3 sentences) of why this book is recommended based on their preferences. Reference the user's request, and where they disliked similar books, contrast with those.

Respond with STRICT JSON only, no prose and no markdown, in exactly this shape:
{"recommendations":[{"candidate_number":1,"confidence_score":90,"explanation":"..."},{"candidate_number":2,"confidence_score":80,"explanation":"..."},{"candidate_number":3,"confidence_score":70,"explanation":"..."}]}

Return exactly 3 distinct recommendations, ordered by relevance (best first).`

const QuestionSystemPrompt = `You are helping refine a book recommendation request. Generate ONE short follow-up question that helps narrow down what the reader wants. Do not repeat a question that was already asked. Respond with the question text only, no numbering and no quotes.`

// FallbackQuestions are used when LLM question generation fails.
var FallbackQuestions = map[int]string{
	1: "What's a book you've loved recently, and what did you love about it?",
	2: "Do you prefer fast-paced plots or slower, character-driven stories?",
	3: "Is there anything you definitely want to avoid (themes, genres, length)?",
}
