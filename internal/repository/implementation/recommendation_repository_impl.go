package implementation

import (
	"context"
	"errors"
	"time"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/mapper"
	"ai-bookrec-be/internal/model"
	"ai-bookrec-be/internal/repository/contract"

	"gorm.io/gorm"
)

type RecommendationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RecommendationMapper
}

func NewRecommendationRepository(db *gorm.DB) contract.RecommendationRepository {
	return &RecommendationRepositoryImpl{
		db:     db,
		mapper: mapper.NewRecommendationMapper(),
	}
}

func (r *RecommendationRepositoryImpl) CreateBulk(ctx context.Context, recs []*entity.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	models := make([]*model.Recommendation, len(recs))
	for i, rec := range recs {
		models[i] = r.mapper.ToModel(rec)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*recs[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *RecommendationRepositoryImpl) FindBySessionId(ctx context.Context, sessionId string) ([]*entity.Recommendation, error) {
	var models []*model.Recommendation
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order("created_at DESC, rank ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *RecommendationRepositoryImpl) FindById(ctx context.Context, id string) (*entity.Recommendation, error) {
	var m model.Recommendation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *RecommendationRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.Recommendation{})
	return res.RowsAffected, res.Error
}
