package recommend

import (
	"math"

	"ai-bookrec-be/internal/constant"
)

// Collaborative seed tiers, strongest signal first. The tier determines
// the cap on how much of the candidate budget collaborative retrieval may
// claim.
type seedTier int

const (
	tierNone seedTier = iota
	tierAllRead
	tierAllFavorites
	tierRelevantFavorites
)

func (t seedTier) cap() float64 {
	switch t {
	case tierRelevantFavorites:
		return constant.CollaborativeCapRelevant
	case tierAllFavorites:
		return constant.CollaborativeCapFavorites
	case tierAllRead:
		return constant.CollaborativeCapAllRead
	default:
		return 0
	}
}

func (t seedTier) String() string {
	switch t {
	case tierRelevantFavorites:
		return "relevant_favorites"
	case tierAllFavorites:
		return "all_favorites"
	case tierAllRead:
		return "all_read"
	default:
		return "none"
	}
}

// collaborativeWeight saturates toward the tier cap as the seed set
// grows: w = cap * n / (n + k). Two relevant favorites under the 0.5 cap
// yield w = 0.2, i.e. a fifth of the candidate budget.
func collaborativeWeight(tier seedTier, seedCount int) float64 {
	if seedCount <= 0 {
		return 0
	}
	n := float64(seedCount)
	return tier.cap() * n / (n + constant.CollaborativeSaturation)
}

// collaborativeSlots converts the weight into a candidate count out of
// the total budget.
func collaborativeSlots(topK int, w float64) int {
	slots := int(math.Round(float64(topK) * w))
	if slots > topK {
		slots = topK
	}
	return slots
}
