package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollaborativeWeight(t *testing.T) {
	tests := []struct {
		name      string
		tier      seedTier
		seedCount int
		want      float64
	}{
		{"two relevant favorites", tierRelevantFavorites, 2, 0.2},
		{"many relevant favorites saturate toward cap", tierRelevantFavorites, 27, 0.45},
		{"all favorites tier carries lower cap", tierAllFavorites, 3, 0.15},
		{"all read tier", tierAllRead, 3, 0.1},
		{"no seeds", tierRelevantFavorites, 0, 0},
		{"tier none", tierNone, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, collaborativeWeight(tt.tier, tt.seedCount), 1e-9)
		})
	}
}

func TestCollaborativeSlots(t *testing.T) {
	tests := []struct {
		name string
		topK int
		w    float64
		want int
	}{
		{"fifth of the budget", 20, 0.2, 4},
		{"rounds to nearest", 20, 0.33, 7},
		{"zero weight", 20, 0, 0},
		{"weight above one is capped at budget", 20, 1.5, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collaborativeSlots(tt.topK, tt.w))
		})
	}
}
