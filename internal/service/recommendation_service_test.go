package service

import (
	"context"
	"testing"
	"time"

	"ai-bookrec-be/internal/config"
	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/pkg/observability"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecRepo struct {
	bySession map[string][]*entity.Recommendation
	created   []*entity.Recommendation
}

func (r *fakeRecRepo) CreateBulk(ctx context.Context, recs []*entity.Recommendation) error {
	r.created = append(r.created, recs...)
	return nil
}

func (r *fakeRecRepo) FindBySessionId(ctx context.Context, sessionId string) ([]*entity.Recommendation, error) {
	return r.bySession[sessionId], nil
}

func (r *fakeRecRepo) FindById(ctx context.Context, id string) (*entity.Recommendation, error) {
	for _, recs := range r.bySession {
		for _, rec := range recs {
			if rec.Id.String() == id {
				return rec, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeRecRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func TestRecommendationHistory(t *testing.T) {
	ctx := context.Background()

	bookA := &entity.Book{Id: uuid.New(), Isbn13: "9780441005901", Title: "Dune", Author: "Frank Herbert"}
	bookB := &entity.Book{Id: uuid.New(), Isbn13: "9780345339683", Title: "The Hobbit", Author: "J.R.R. Tolkien"}
	traceId := "trace-abc"

	recRepo := &fakeRecRepo{bySession: map[string][]*entity.Recommendation{
		"sess-1": {
			{Id: uuid.New(), SessionId: "sess-1", BookId: bookA.Id, ConfidenceScore: 90, Explanation: "Matches the request.", Rank: 1, TraceId: &traceId},
			{Id: uuid.New(), SessionId: "sess-1", BookId: bookB.Id, ConfidenceScore: 80, Explanation: "A close second.", Rank: 2, TraceId: &traceId},
		},
	}}
	factory := &fakeFactory{uow: &fakeUow{
		books: &memBookRepo{books: []*entity.Book{bookA, bookB}},
		recs:  recRepo,
	}}
	obs := observability.NewClient(observability.Config{
		Host: "https://langfuse.test", PublicKey: "pk", SecretKey: "sk",
	})

	svc := NewRecommendationService(nil, nil, nil, factory, obs, nil, config.PipelineConfig{}, nopLogger{})

	res, err := svc.History(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, "Dune", res.Recommendations[0].Book.Title)
	assert.Equal(t, 1, res.Recommendations[0].Rank)
	assert.Equal(t, "The Hobbit", res.Recommendations[1].Book.Title)

	require.NotNil(t, res.TraceId)
	assert.Equal(t, traceId, *res.TraceId)
	require.NotNil(t, res.TraceURL)
	assert.Equal(t, "https://langfuse.test/trace/trace-abc", *res.TraceURL)
}

func TestRecommendationHistoryEmptyIsNotFound(t *testing.T) {
	factory := &fakeFactory{uow: &fakeUow{
		books: &memBookRepo{},
		recs:  &fakeRecRepo{bySession: map[string][]*entity.Recommendation{}},
	}}
	obs := observability.NewClient(observability.Config{})

	svc := NewRecommendationService(nil, nil, nil, factory, obs, nil, config.PipelineConfig{}, nopLogger{})

	_, err := svc.History(context.Background(), "nope")
	assert.Error(t, err)
}
