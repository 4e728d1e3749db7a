package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-bookrec-be/internal/config"
	"ai-bookrec-be/internal/constant"
	"ai-bookrec-be/pkg/llm"
	"ai-bookrec-be/pkg/observability"
	"ai-bookrec-be/pkg/store"
)

// Selection is one of the final three picks, referencing a candidate
// from the refined set.
type Selection struct {
	Candidate   *Candidate
	Confidence  int // 0-100
	Explanation string
	Rank        int // 1-3, best first
}

// Selector asks the LLM to pick the final three out of the refined
// candidate set. The model answers in strict JSON; one malformed answer
// earns one retry, a second failure surfaces ErrSelectionFailed.
type Selector struct {
	provider llm.LLMProvider
	model    string
	cfg      config.PipelineConfig
}

func NewSelector(provider llm.LLMProvider, model string, cfg config.PipelineConfig) *Selector {
	return &Selector{
		provider: provider,
		model:    model,
		cfg:      cfg,
	}
}

func (s *Selector) Select(ctx context.Context, enhancedQuery string, candidates []*Candidate, library []store.LibraryEntry, trace *observability.Trace) ([]Selection, error) {
	prompt := s.buildPrompt(enhancedQuery, candidates, library)

	history := []llm.Message{
		{Role: "system", Content: constant.SelectionSystemPrompt},
		{Role: "user", Content: prompt},
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		started := time.Now()
		raw, err := s.provider.Chat(ctx, history, llm.WithTemperature(0.7))
		if trace != nil {
			trace.Generation("final_selection", s.model, started, prompt, raw)
		}
		if err != nil {
			lastErr = err
			continue
		}

		selections, err := s.parseSelections(raw, candidates)
		if err == nil {
			return selections, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrSelectionFailed, lastErr)
}

// buildPrompt renders user context, then the numbered candidate list the
// model answers against.
func (s *Selector) buildPrompt(enhancedQuery string, candidates []*Candidate, library []store.LibraryEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User query: %s\n\n", enhancedQuery)

	pc := BuildPreferenceContext(library, s.cfg.HighRatingThreshold, s.cfg.DislikeThreshold)
	b.WriteString(pc.Summary(s.cfg.HighRatingThreshold, s.cfg.DislikeThreshold, s.cfg.MaxFavoritesInContext, s.cfg.MaxDislikesInContext))

	b.WriteString("Candidate books:\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s by %s\n", i+1, c.Book.Title, c.Book.Author)
		if c.Book.Description != nil && *c.Book.Description != "" {
			desc := *c.Book.Description
			if len(desc) > s.cfg.CandidateDescriptionMax {
				desc = desc[:s.cfg.CandidateDescriptionMax] + "..."
			}
			fmt.Fprintf(&b, "   Description: %s\n", desc)
		}
		if len(c.Book.Categories) > 0 {
			cats := c.Book.Categories
			if len(cats) > 3 {
				cats = cats[:3]
			}
			fmt.Fprintf(&b, "   Categories: %s\n", strings.Join(cats, ", "))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Select the top %d books that best match the user's query.", constant.SelectionCount)
	return b.String()
}

type selectionPayload struct {
	Recommendations []struct {
		CandidateNumber int    `json:"candidate_number"`
		ConfidenceScore int    `json:"confidence_score"`
		Explanation     string `json:"explanation"`
	} `json:"recommendations"`
}

// parseSelections validates the strict JSON contract: exactly three
// distinct candidate numbers, all inside the presented set.
func (s *Selector) parseSelections(raw string, candidates []*Candidate) ([]Selection, error) {
	var payload selectionPayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		return nil, fmt.Errorf("parse selection response: %w", err)
	}

	if len(payload.Recommendations) < constant.SelectionCount {
		return nil, fmt.Errorf("expected %d recommendations, got %d", constant.SelectionCount, len(payload.Recommendations))
	}

	seen := map[int]bool{}
	selections := make([]Selection, 0, constant.SelectionCount)
	for _, rec := range payload.Recommendations {
		if len(selections) == constant.SelectionCount {
			break
		}
		if rec.CandidateNumber < 1 || rec.CandidateNumber > len(candidates) {
			return nil, fmt.Errorf("candidate number %d outside presented set", rec.CandidateNumber)
		}
		if seen[rec.CandidateNumber] {
			return nil, fmt.Errorf("candidate number %d selected twice", rec.CandidateNumber)
		}
		seen[rec.CandidateNumber] = true

		confidence := rec.ConfidenceScore
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 100 {
			confidence = 100
		}

		selections = append(selections, Selection{
			Candidate:   candidates[rec.CandidateNumber-1],
			Confidence:  confidence,
			Explanation: rec.Explanation,
			Rank:        len(selections) + 1,
		})
	}

	if len(selections) < constant.SelectionCount {
		return nil, fmt.Errorf("fewer than %d valid recommendations", constant.SelectionCount)
	}
	return selections, nil
}

// stripFences tolerates models that wrap JSON in markdown code fences
// despite the strict-JSON instruction.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
