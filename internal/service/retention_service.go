package service

import (
	"context"
	"time"

	"ai-bookrec-be/internal/config"
	"ai-bookrec-be/internal/pkg/logger"
	"ai-bookrec-be/internal/repository/unitofwork"
)

type IRetentionService interface {
	// Start runs the periodic sweep until ctx is cancelled.
	Start(ctx context.Context)
}

// retentionService prunes recommendation records past the retention
// horizon. Sessions expire through their TTL store and books are shared
// corpus, so recommendations are the only table that needs sweeping.
type retentionService struct {
	uowFactory unitofwork.RepositoryFactory
	cfg        config.RetentionConfig
	logger     logger.ILogger
}

func NewRetentionService(
	uowFactory unitofwork.RepositoryFactory,
	cfg config.RetentionConfig,
	logger logger.ILogger,
) IRetentionService {
	return &retentionService{
		uowFactory: uowFactory,
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *retentionService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.SweepInterval)
		defer ticker.Stop()

		s.sweep(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *retentionService) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.RecommendationHorizon)
	deleted, err := s.uowFactory.NewUnitOfWork(ctx).RecommendationRepository().DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("retention", "sweep failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if deleted > 0 {
		s.logger.Info("retention", "swept old recommendations", map[string]interface{}{
			"deleted": deleted,
			"cutoff":  cutoff.Format(time.RFC3339),
		})
	}
}
