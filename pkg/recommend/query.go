package recommend

import (
	"fmt"
	"sort"
	"strings"
)

// BuildEnhancedQuery combines the initial request with follow-up Q&A
// pairs in question order, preserving the conversational flow for the
// embedding and the selector prompt. Unanswered questions are dropped.
func BuildEnhancedQuery(query string, questions map[int]string, answers map[string]string) string {
	parts := []string{fmt.Sprintf("Initial request: %s", query)}

	if len(answers) > 0 && len(questions) > 0 {
		nums := make([]int, 0, len(questions))
		for n := range questions {
			nums = append(nums, n)
		}
		sort.Ints(nums)

		for _, n := range nums {
			answer := answers[fmt.Sprintf("question_%d", n)]
			if answer == "" {
				continue
			}
			parts = append(parts, fmt.Sprintf("Q: %s", questions[n]))
			parts = append(parts, fmt.Sprintf("A: %s", answer))
		}
	} else if len(answers) > 0 {
		// Answers without the questions that prompted them; include them
		// raw rather than losing the signal.
		keys := make([]string, 0, len(answers))
		for k := range answers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if answers[k] != "" {
				parts = append(parts, fmt.Sprintf("%s: %s", k, answers[k]))
			}
		}
	}

	return strings.Join(parts, "\n")
}
