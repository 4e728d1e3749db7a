package dto

// SessionAnswers carries the user's follow-up answers. All three are
// optional; skipped questions simply contribute nothing to the query.
type SessionAnswers struct {
	Question1 *string `json:"question_1"`
	Question2 *string `json:"question_2"`
	Question3 *string `json:"question_3"`
}

// ToMap drops unanswered questions.
func (a SessionAnswers) ToMap() map[string]string {
	out := map[string]string{}
	if a.Question1 != nil && *a.Question1 != "" {
		out["question_1"] = *a.Question1
	}
	if a.Question2 != nil && *a.Question2 != "" {
		out["question_2"] = *a.Question2
	}
	if a.Question3 != nil && *a.Question3 != "" {
		out["question_3"] = *a.Question3
	}
	return out
}

type CreateSessionResponse struct {
	SessionId         string   `json:"session_id"`
	Status            string   `json:"status"` // "ready" | "processing_csv"
	FollowUpQuestions []string `json:"follow_up_questions"`
}

type SubmitAnswersRequest struct {
	Answers SessionAnswers `json:"answers"`
}

type SubmitAnswersResponse struct {
	SessionId     string `json:"session_id"`
	Status        string `json:"status"`
	CsvBooksCount *int   `json:"csv_books_count,omitempty"`
}

type SessionStatusResponse struct {
	SessionId      string `json:"session_id"`
	IngestStatus   string `json:"ingest_status"`
	BooksTotal     *int   `json:"books_total,omitempty"`
	BooksProcessed *int   `json:"books_processed,omitempty"`
	NewBooksAdded  *int   `json:"new_books_added,omitempty"`
	Error          string `json:"error,omitempty"`
}

type GenerateQuestionRequest struct {
	QuestionNumber int `json:"question_number" validate:"required,min=1,max=3"`
}

type GenerateQuestionResponse struct {
	Question       string `json:"question"`
	QuestionNumber int    `json:"question_number"`
}
