package store

// LibraryEntry links a session to a corpus book with the user's own rating.
// Title and author are denormalized so building LLM context does not need a
// corpus join while the session is still alive.
type LibraryEntry struct {
	BookId     string `json:"book_id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	UserRating int    `json:"user_rating"` // 0 = unrated, else 1-5
	Shelf      string `json:"shelf"`       // "read" | "to-read" | "currently-reading"
}

// Session represents the ephemeral per-user state held in the TTL store.
type Session struct {
	ID                 string            `json:"id"`
	InitialQuery       string            `json:"initial_query"`
	FollowUpAnswers    map[string]string `json:"follow_up_answers"`    // question_1..question_3
	GeneratedQuestions map[int]string    `json:"generated_questions"`  // 1..3
	Library            []LibraryEntry    `json:"library"`
	CsvUploaded        bool              `json:"csv_uploaded"`
}

// Ingestion status values. Absent status means no export was uploaded.
const (
	IngestStatusNone       = "none"
	IngestStatusPending    = "pending"
	IngestStatusProcessing = "processing"
	IngestStatusCompleted  = "completed"
	IngestStatusFailed     = "failed"
)

// IngestProgress tracks counters the worker persists every few rows.
type IngestProgress struct {
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Added     int    `json:"added"`
	Existing  int    `json:"existing"`
	Failed    int    `json:"failed"`
	Error     string `json:"error,omitempty"`
}

// Shelf values from Goodreads exports. Only read books carry rating signal.
const (
	ShelfRead             = "read"
	ShelfToRead           = "to-read"
	ShelfCurrentlyReading = "currently-reading"
)

// ReadEntries filters the library down to books actually read.
func (s *Session) ReadEntries() []LibraryEntry {
	var out []LibraryEntry
	for _, e := range s.Library {
		if e.Shelf == ShelfRead {
			out = append(out, e)
		}
	}
	return out
}
