package recommend

import (
	"context"
	"fmt"
	"testing"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLLM replays canned responses in order.
type fakeLLM struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	for _, m := range history {
		if m.Role == "user" {
			f.prompts = append(f.prompts, m.Content)
		}
	}
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", fmt.Errorf("no canned response for call %d", i)
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func selectorCandidates(n int) []*Candidate {
	desc := "A description long enough to show up truncated in the selection prompt when the budget demands it."
	out := make([]*Candidate, n)
	for i := 0; i < n; i++ {
		out[i] = &Candidate{
			Book: &entity.Book{
				Id:          uuid.New(),
				Title:       fmt.Sprintf("Book %d", i+1),
				Author:      "Author",
				Description: &desc,
				Categories:  []string{"Fiction", "Fantasy", "Epic", "Extra"},
			},
			RawSimilarity:      0.8,
			AdjustedSimilarity: 0.8,
		}
	}
	return out
}

const validSelection = `{"recommendations":[` +
	`{"candidate_number":2,"confidence_score":92,"explanation":"first"},` +
	`{"candidate_number":5,"confidence_score":81,"explanation":"second"},` +
	`{"candidate_number":1,"confidence_score":70,"explanation":"third"}]}`

func TestSelectorSelect(t *testing.T) {
	provider := &fakeLLM{responses: []string{validSelection}}
	s := NewSelector(provider, "test-model", testPipelineConfig())

	selections, err := s.Select(context.Background(), "query", selectorCandidates(10), nil, nil)
	require.NoError(t, err)
	require.Len(t, selections, 3)

	assert.Equal(t, "Book 2", selections[0].Candidate.Book.Title)
	assert.Equal(t, 92, selections[0].Confidence)
	assert.Equal(t, 1, selections[0].Rank)
	assert.Equal(t, "Book 5", selections[1].Candidate.Book.Title)
	assert.Equal(t, 3, selections[2].Rank)

	// Prompt carries the numbered candidate list and capped categories.
	require.NotEmpty(t, provider.prompts)
	assert.Contains(t, provider.prompts[0], "1. Book 1 by Author")
	assert.Contains(t, provider.prompts[0], "Fiction, Fantasy, Epic")
	assert.NotContains(t, provider.prompts[0], "Extra")
}

func TestSelectorStripsMarkdownFences(t *testing.T) {
	provider := &fakeLLM{responses: []string{"```json\n" + validSelection + "\n```"}}
	s := NewSelector(provider, "test-model", testPipelineConfig())

	selections, err := s.Select(context.Background(), "query", selectorCandidates(10), nil, nil)
	require.NoError(t, err)
	assert.Len(t, selections, 3)
}

func TestSelectorRetriesOnceThenSucceeds(t *testing.T) {
	provider := &fakeLLM{responses: []string{"not json at all", validSelection}}
	s := NewSelector(provider, "test-model", testPipelineConfig())

	selections, err := s.Select(context.Background(), "query", selectorCandidates(10), nil, nil)
	require.NoError(t, err)
	assert.Len(t, selections, 3)
	assert.Equal(t, 2, provider.calls)
}

func TestSelectorFailsAfterTwoAttempts(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"malformed json", `{"recommendations":`},
		{
			"candidate outside set",
			`{"recommendations":[{"candidate_number":99,"confidence_score":90,"explanation":"x"},` +
				`{"candidate_number":1,"confidence_score":80,"explanation":"y"},` +
				`{"candidate_number":2,"confidence_score":70,"explanation":"z"}]}`,
		},
		{
			"duplicate candidate",
			`{"recommendations":[{"candidate_number":1,"confidence_score":90,"explanation":"x"},` +
				`{"candidate_number":1,"confidence_score":80,"explanation":"y"},` +
				`{"candidate_number":2,"confidence_score":70,"explanation":"z"}]}`,
		},
		{
			"too few recommendations",
			`{"recommendations":[{"candidate_number":1,"confidence_score":90,"explanation":"x"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeLLM{responses: []string{tt.response, tt.response}}
			s := NewSelector(provider, "test-model", testPipelineConfig())

			_, err := s.Select(context.Background(), "query", selectorCandidates(10), nil, nil)
			assert.ErrorIs(t, err, ErrSelectionFailed)
			assert.Equal(t, 2, provider.calls)
		})
	}
}

func TestSelectorClampsConfidence(t *testing.T) {
	response := `{"recommendations":[` +
		`{"candidate_number":1,"confidence_score":150,"explanation":"x"},` +
		`{"candidate_number":2,"confidence_score":-5,"explanation":"y"},` +
		`{"candidate_number":3,"confidence_score":50,"explanation":"z"}]}`
	provider := &fakeLLM{responses: []string{response}}
	s := NewSelector(provider, "test-model", testPipelineConfig())

	selections, err := s.Select(context.Background(), "query", selectorCandidates(5), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 100, selections[0].Confidence)
	assert.Equal(t, 0, selections[1].Confidence)
	assert.Equal(t, 50, selections[2].Confidence)
}
