package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildEnhancedQuery(t *testing.T) {
	questions := map[int]string{
		1: "What did you read recently?",
		2: "Pace preference?",
	}

	t.Run("orders answered questions", func(t *testing.T) {
		got := BuildEnhancedQuery("space opera", questions, map[string]string{
			"question_2": "fast",
			"question_1": "Dune",
		})
		want := "Initial request: space opera\n" +
			"Q: What did you read recently?\nA: Dune\n" +
			"Q: Pace preference?\nA: fast"
		assert.Equal(t, want, got)
	})

	t.Run("skips unanswered questions", func(t *testing.T) {
		got := BuildEnhancedQuery("space opera", questions, map[string]string{
			"question_2": "fast",
		})
		assert.Equal(t, "Initial request: space opera\nQ: Pace preference?\nA: fast", got)
	})

	t.Run("no answers yields bare request", func(t *testing.T) {
		got := BuildEnhancedQuery("space opera", questions, nil)
		assert.Equal(t, "Initial request: space opera", got)
	})

	t.Run("answers without questions fall back to raw pairs", func(t *testing.T) {
		got := BuildEnhancedQuery("space opera", nil, map[string]string{
			"question_1": "Dune",
		})
		assert.Equal(t, "Initial request: space opera\nquestion_1: Dune", got)
	})
}
