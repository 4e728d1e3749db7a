package embedding

// Task types passed through to providers that distinguish query and
// document embeddings. Retrieval quality depends on using the matching
// pair.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// Provider generates text embeddings.
type Provider interface {
	Generate(text string, taskType string) (*Response, error)
}

type Response struct {
	Values []float32
}
