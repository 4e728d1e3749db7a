package service

import (
	"context"
	"errors"
	"time"

	"ai-bookrec-be/internal/config"
	"ai-bookrec-be/internal/dto"
	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/pkg/logger"
	"ai-bookrec-be/internal/pkg/serverutils"
	"ai-bookrec-be/internal/repository/specification"
	"ai-bookrec-be/internal/repository/unitofwork"
	"ai-bookrec-be/pkg/events"
	"ai-bookrec-be/pkg/nats"
	"ai-bookrec-be/pkg/observability"
	"ai-bookrec-be/pkg/recommend"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

type IRecommendationService interface {
	Generate(ctx context.Context, sessionId string) (*dto.RecommendationsResponse, error)

	// History returns previously persisted recommendations. Works after
	// the session itself has expired; the records outlive the lease.
	History(ctx context.Context, sessionId string) (*dto.RecommendationsResponse, error)
}

type recommendationService struct {
	sessionService ISessionService
	engine         *recommend.Engine
	selector       *recommend.Selector
	uowFactory     unitofwork.RepositoryFactory
	obs            *observability.Client
	bus            *nats.Publisher // nil when the bus is unavailable
	cfg            config.PipelineConfig
	logger         logger.ILogger
}

func NewRecommendationService(
	sessionService ISessionService,
	engine *recommend.Engine,
	selector *recommend.Selector,
	uowFactory unitofwork.RepositoryFactory,
	obs *observability.Client,
	bus *nats.Publisher,
	cfg config.PipelineConfig,
	logger logger.ILogger,
) IRecommendationService {
	return &recommendationService{
		sessionService: sessionService,
		engine:         engine,
		selector:       selector,
		uowFactory:     uowFactory,
		obs:            obs,
		bus:            bus,
		cfg:            cfg,
		logger:         logger,
	}
}

// Generate runs the full pipeline for a session: retrieval and refinement,
// LLM final selection, then persistence with the trace reference. The
// whole run shares one deadline.
func (s *recommendationService) Generate(ctx context.Context, sessionId string) (*dto.RecommendationsResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	oteltrace.SpanFromContext(ctx).SetAttributes(attribute.String("session.id", sessionId))

	session, err := s.sessionService.GetSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	enhancedQuery := recommend.BuildEnhancedQuery(session.InitialQuery, session.GeneratedQuestions, session.FollowUpAnswers)

	trace := s.obs.StartTrace("recommendation_pipeline", sessionId, map[string]interface{}{
		"enhanced_query": enhancedQuery,
		"library_size":   len(session.Library),
	})

	candidates, err := s.engine.Retrieve(ctx, enhancedQuery, session.Library, trace)
	if err != nil {
		return nil, s.classify(err)
	}

	selections, err := s.selector.Select(ctx, enhancedQuery, candidates, session.Library, trace)
	if err != nil {
		return nil, s.classify(err)
	}

	recs, err := s.persist(ctx, sessionId, trace.ID, selections)
	if err != nil {
		return nil, err
	}

	res := s.buildResponse(sessionId, trace.ID, selections, recs)
	trace.End(res.Recommendations)

	s.publishEvent(ctx, events.NewRecsGenerated(sessionId, len(selections), trace.ID))
	s.logger.Info("recommendation", "recommendations generated", map[string]interface{}{
		"session_id": sessionId,
		"count":      len(selections),
		"trace_id":   trace.ID,
	})
	return res, nil
}

// classify maps pipeline errors to request-level codes so the HTTP layer
// can answer with something more useful than a 500.
func (s *recommendationService) classify(err error) error {
	switch {
	case errors.Is(err, recommend.ErrNoCandidates):
		return serverutils.NewAppError(serverutils.CodeEmptyCorpus, "no candidate books matched the query", err)
	case errors.Is(err, recommend.ErrSelectionFailed):
		return serverutils.NewAppError(serverutils.CodeSelectionFailed, "final selection did not produce a valid result", err)
	case errors.Is(err, context.DeadlineExceeded):
		return serverutils.NewAppError(serverutils.CodeTimeout, "recommendation request timed out", err)
	default:
		return err
	}
}

func (s *recommendationService) persist(ctx context.Context, sessionId, traceId string, selections []recommend.Selection) ([]*entity.Recommendation, error) {
	recs := make([]*entity.Recommendation, len(selections))
	now := time.Now()
	for i, sel := range selections {
		recs[i] = &entity.Recommendation{
			Id:              uuid.New(),
			SessionId:       sessionId,
			BookId:          sel.Candidate.Book.Id,
			ConfidenceScore: float64(sel.Confidence),
			Explanation:     sel.Explanation,
			Rank:            sel.Rank,
			TraceId:         &traceId,
			CreatedAt:       now,
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.RecommendationRepository().CreateBulk(ctx, recs); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *recommendationService) buildResponse(sessionId, traceId string, selections []recommend.Selection, recs []*entity.Recommendation) *dto.RecommendationsResponse {
	out := make([]dto.RecommendationWithBook, len(selections))
	for i, sel := range selections {
		out[i] = dto.RecommendationWithBook{
			Id:              recs[i].Id,
			Book:            toBookResponse(sel.Candidate.Book),
			ConfidenceScore: float64(sel.Confidence),
			Explanation:     sel.Explanation,
			Rank:            sel.Rank,
		}
	}

	res := &dto.RecommendationsResponse{
		SessionId:       sessionId,
		Recommendations: out,
	}
	if url := s.obs.TraceURL(traceId); url != "" {
		res.TraceId = &traceId
		res.TraceURL = &url
	}
	return res
}

func (s *recommendationService) History(ctx context.Context, sessionId string) (*dto.RecommendationsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	recs, err := uow.RecommendationRepository().FindBySessionId(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, serverutils.NotFound("no recommendations recorded for this session")
	}

	ids := make([]uuid.UUID, len(recs))
	for i, rec := range recs {
		ids[i] = rec.BookId
	}
	books, err := uow.BookRepository().FindAll(ctx, specification.ByIDs{IDs: ids})
	if err != nil {
		return nil, err
	}
	byId := make(map[uuid.UUID]*entity.Book, len(books))
	for _, b := range books {
		byId[b.Id] = b
	}

	out := make([]dto.RecommendationWithBook, 0, len(recs))
	for _, rec := range recs {
		book, ok := byId[rec.BookId]
		if !ok {
			continue
		}
		out = append(out, dto.RecommendationWithBook{
			Id:              rec.Id,
			Book:            toBookResponse(book),
			ConfidenceScore: rec.ConfidenceScore,
			Explanation:     rec.Explanation,
			Rank:            rec.Rank,
		})
	}

	res := &dto.RecommendationsResponse{
		SessionId:       sessionId,
		Recommendations: out,
	}
	// Records are newest run first; they all share the run's trace.
	if tid := recs[0].TraceId; tid != nil {
		if url := s.obs.TraceURL(*tid); url != "" {
			res.TraceId = tid
			res.TraceURL = &url
		}
	}
	return res, nil
}

func (s *recommendationService) publishEvent(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("recommendation", "event publish failed", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}

func toBookResponse(b *entity.Book) dto.BookResponse {
	return dto.BookResponse{
		Id:              b.Id,
		Isbn13:          b.Isbn13,
		Isbn10:          b.Isbn10,
		Title:           b.Title,
		Author:          b.Author,
		Description:     b.Description,
		Categories:      b.Categories,
		PageCount:       b.PageCount,
		Publisher:       b.Publisher,
		PublicationYear: b.PublicationYear,
		Language:        b.Language,
		AverageRating:   b.AverageRating,
		RatingsCount:    b.RatingsCount,
		CoverURL:        b.CoverURL,
	}
}
