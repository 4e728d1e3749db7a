package contract

import (
	"context"
	"time"

	"ai-bookrec-be/internal/entity"
)

type RecommendationRepository interface {
	CreateBulk(ctx context.Context, recs []*entity.Recommendation) error
	FindBySessionId(ctx context.Context, sessionId string) ([]*entity.Recommendation, error)
	FindById(ctx context.Context, id string) (*entity.Recommendation, error)

	// DeleteOlderThan removes records created before the cutoff and returns
	// the number deleted. Used by the retention sweep; no other deletion or
	// update path exists.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
