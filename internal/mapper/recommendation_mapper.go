package mapper

import (
	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/model"
)

type RecommendationMapper struct{}

func NewRecommendationMapper() *RecommendationMapper {
	return &RecommendationMapper{}
}

func (m *RecommendationMapper) ToEntity(r *model.Recommendation) *entity.Recommendation {
	if r == nil {
		return nil
	}
	return &entity.Recommendation{
		Id:              r.Id,
		SessionId:       r.SessionId,
		BookId:          r.BookId,
		ConfidenceScore: r.ConfidenceScore,
		Explanation:     r.Explanation,
		Rank:            r.Rank,
		TraceId:         r.TraceId,
		CreatedAt:       r.CreatedAt,
	}
}

func (m *RecommendationMapper) ToModel(r *entity.Recommendation) *model.Recommendation {
	if r == nil {
		return nil
	}
	return &model.Recommendation{
		Id:              r.Id,
		SessionId:       r.SessionId,
		BookId:          r.BookId,
		ConfidenceScore: r.ConfidenceScore,
		Explanation:     r.Explanation,
		Rank:            r.Rank,
		TraceId:         r.TraceId,
		CreatedAt:       r.CreatedAt,
	}
}

func (m *RecommendationMapper) ToEntities(recs []*model.Recommendation) []*entity.Recommendation {
	entities := make([]*entity.Recommendation, len(recs))
	for i, r := range recs {
		entities[i] = m.ToEntity(r)
	}
	return entities
}
