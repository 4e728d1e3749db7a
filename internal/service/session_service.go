package service

import (
	"context"
	"encoding/json"

	"ai-bookrec-be/internal/dto"
	"ai-bookrec-be/internal/pkg/logger"
	"ai-bookrec-be/internal/pkg/serverutils"
	"ai-bookrec-be/internal/repository/contract"
	"ai-bookrec-be/pkg/store"

	"github.com/google/uuid"
)

type ISessionService interface {
	Create(ctx context.Context, initialQuery string) (*dto.CreateSessionResponse, error)
	QueueIngest(ctx context.Context, sessionId, filePath string) error
	SubmitAnswers(ctx context.Context, sessionId string, req *dto.SubmitAnswersRequest) (*dto.SubmitAnswersResponse, error)
	Status(ctx context.Context, sessionId string) (*dto.SessionStatusResponse, error)

	// GetSession resolves a live session or a SESSION_EXPIRED error; the
	// recommendation and question services build on it.
	GetSession(ctx context.Context, sessionId string) (*store.Session, error)
	UpdateSession(ctx context.Context, session *store.Session) error
}

type sessionService struct {
	sessions  contract.SessionRepository
	publisher IPublisherService
	logger    logger.ILogger
}

func NewSessionService(
	sessions contract.SessionRepository,
	publisher IPublisherService,
	logger logger.ILogger,
) ISessionService {
	return &sessionService{
		sessions:  sessions,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *sessionService) Create(ctx context.Context, initialQuery string) (*dto.CreateSessionResponse, error) {
	session := &store.Session{
		ID:                 uuid.NewString(),
		InitialQuery:       initialQuery,
		FollowUpAnswers:    map[string]string{},
		GeneratedQuestions: map[int]string{},
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("session", "session created", map[string]interface{}{"session_id": session.ID})

	// Follow-up questions are generated on demand via the
	// generate-question endpoint; the create response carries none.
	return &dto.CreateSessionResponse{
		SessionId:         session.ID,
		Status:            "ready",
		FollowUpQuestions: []string{},
	}, nil
}

// QueueIngest marks the export pending and hands it to the background
// worker. The caller has already persisted the file under filePath.
func (s *sessionService) QueueIngest(ctx context.Context, sessionId, filePath string) error {
	if err := s.sessions.SetIngestStatus(ctx, sessionId, store.IngestStatusPending); err != nil {
		return err
	}

	payload, err := json.Marshal(dto.PublishIngestMessage{
		SessionId: sessionId,
		FilePath:  filePath,
	})
	if err != nil {
		return err
	}
	if err := s.publisher.Publish(ctx, payload); err != nil {
		return err
	}

	s.logger.Info("session", "library export queued", map[string]interface{}{
		"session_id": sessionId,
		"file":       filePath,
	})
	return nil
}

func (s *sessionService) SubmitAnswers(ctx context.Context, sessionId string, req *dto.SubmitAnswersRequest) (*dto.SubmitAnswersResponse, error) {
	session, err := s.GetSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	session.FollowUpAnswers = req.Answers.ToMap()
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	res := &dto.SubmitAnswersResponse{
		SessionId: sessionId,
		Status:    "ready",
	}
	if n := len(session.Library); n > 0 {
		res.CsvBooksCount = &n
	}
	return res, nil
}

func (s *sessionService) Status(ctx context.Context, sessionId string) (*dto.SessionStatusResponse, error) {
	if _, err := s.GetSession(ctx, sessionId); err != nil {
		return nil, err
	}

	status, err := s.sessions.GetIngestStatus(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	res := &dto.SessionStatusResponse{
		SessionId:    sessionId,
		IngestStatus: status,
	}

	progress, err := s.sessions.GetIngestProgress(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if progress != nil {
		res.BooksTotal = &progress.Total
		res.BooksProcessed = &progress.Processed
		res.NewBooksAdded = &progress.Added
		res.Error = progress.Error
	}
	return res, nil
}

func (s *sessionService) GetSession(ctx context.Context, sessionId string) (*store.Session, error) {
	session, err := s.sessions.Get(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, serverutils.NewAppError(serverutils.CodeSessionExpired, "session not found or expired", nil)
	}
	return session, nil
}

func (s *sessionService) UpdateSession(ctx context.Context, session *store.Session) error {
	return s.sessions.Update(ctx, session)
}
