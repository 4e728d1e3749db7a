package service

import (
	"context"
	"fmt"

	"ai-bookrec-be/internal/dto"
	"ai-bookrec-be/internal/pkg/logger"
	"ai-bookrec-be/internal/pkg/serverutils"
	"ai-bookrec-be/internal/repository/unitofwork"
	"ai-bookrec-be/pkg/events"
	"ai-bookrec-be/pkg/nats"
	"ai-bookrec-be/pkg/observability"
)

type IFeedbackService interface {
	Submit(ctx context.Context, recommendationId string, req *dto.SubmitFeedbackRequest) (*dto.FeedbackResponse, error)
}

// feedbackService forwards feedback as a score on the recommendation's
// trace. Nothing is written locally; the trace store is the system of
// record for feedback.
type feedbackService struct {
	uowFactory unitofwork.RepositoryFactory
	obs        *observability.Client
	bus        *nats.Publisher // nil when the bus is unavailable
	logger     logger.ILogger
}

func NewFeedbackService(
	uowFactory unitofwork.RepositoryFactory,
	obs *observability.Client,
	bus *nats.Publisher,
	logger logger.ILogger,
) IFeedbackService {
	return &feedbackService{
		uowFactory: uowFactory,
		obs:        obs,
		bus:        bus,
		logger:     logger,
	}
}

func (s *feedbackService) Submit(ctx context.Context, recommendationId string, req *dto.SubmitFeedbackRequest) (*dto.FeedbackResponse, error) {
	rec, err := s.uowFactory.NewUnitOfWork(ctx).RecommendationRepository().FindById(ctx, recommendationId)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, serverutils.NotFound("recommendation not found")
	}
	if rec.TraceId == nil || *rec.TraceId == "" {
		return nil, serverutils.BadRequest("recommendation has no trace to attach feedback to")
	}

	value := 0.0
	if req.FeedbackType == "like" {
		value = 1.0
	}
	comment := fmt.Sprintf("User %sd recommendation %s", req.FeedbackType, recommendationId)

	if err := s.obs.Score(ctx, *rec.TraceId, "user_feedback", value, comment); err != nil {
		return nil, serverutils.NewAppError(serverutils.CodeUpstream, "failed to record feedback", err)
	}

	if s.bus != nil {
		if err := s.bus.Publish(ctx, events.NewFeedbackGiven(rec.SessionId, recommendationId, value == 1.0)); err != nil {
			s.logger.Warn("feedback", "event publish failed", map[string]interface{}{
				"recommendation_id": recommendationId,
				"error":             err.Error(),
			})
		}
	}

	s.logger.Info("feedback", "feedback recorded", map[string]interface{}{
		"recommendation_id": recommendationId,
		"feedback_type":     req.FeedbackType,
		"trace_id":          *rec.TraceId,
	})
	return &dto.FeedbackResponse{Success: true}, nil
}
