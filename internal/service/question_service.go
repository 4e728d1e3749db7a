package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ai-bookrec-be/internal/constant"
	"ai-bookrec-be/internal/dto"
	"ai-bookrec-be/internal/pkg/logger"
	"ai-bookrec-be/pkg/llm"
)

type IQuestionService interface {
	GenerateQuestion(ctx context.Context, sessionId string, req *dto.GenerateQuestionRequest) (*dto.GenerateQuestionResponse, error)
}

type questionService struct {
	sessionService ISessionService
	llmProvider    llm.LLMProvider
	logger         logger.ILogger
}

func NewQuestionService(
	sessionService ISessionService,
	llmProvider llm.LLMProvider,
	logger logger.ILogger,
) IQuestionService {
	return &questionService{
		sessionService: sessionService,
		llmProvider:    llmProvider,
		logger:         logger,
	}
}

// GenerateQuestion produces one contextual follow-up question per number,
// cached on the session so repeat calls return the same text. LLM
// failures fall back to a predefined question rather than erroring: a
// worse question beats a broken intake flow.
func (s *questionService) GenerateQuestion(ctx context.Context, sessionId string, req *dto.GenerateQuestionRequest) (*dto.GenerateQuestionResponse, error) {
	session, err := s.sessionService.GetSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	if cached, ok := session.GeneratedQuestions[req.QuestionNumber]; ok {
		return &dto.GenerateQuestionResponse{
			Question:       cached,
			QuestionNumber: req.QuestionNumber,
		}, nil
	}

	question, err := s.generate(ctx, session.InitialQuery, session.GeneratedQuestions, session.FollowUpAnswers, req.QuestionNumber)
	if err != nil {
		s.logger.Warn("question", "llm generation failed, using fallback", map[string]interface{}{
			"session_id":      sessionId,
			"question_number": req.QuestionNumber,
			"error":           err.Error(),
		})
		question = constant.FallbackQuestions[req.QuestionNumber]
	}

	if session.GeneratedQuestions == nil {
		session.GeneratedQuestions = map[int]string{}
	}
	session.GeneratedQuestions[req.QuestionNumber] = question
	if err := s.sessionService.UpdateSession(ctx, session); err != nil {
		return nil, err
	}

	return &dto.GenerateQuestionResponse{
		Question:       question,
		QuestionNumber: req.QuestionNumber,
	}, nil
}

func (s *questionService) generate(ctx context.Context, initialQuery string, questions map[int]string, answers map[string]string, number int) (string, error) {
	prompt := buildQuestionPrompt(initialQuery, questions, answers, number)

	history := []llm.Message{
		{Role: "system", Content: constant.QuestionSystemPrompt},
		{Role: "user", Content: prompt},
	}
	raw, err := s.llmProvider.Chat(ctx, history, llm.WithTemperature(0.7), llm.WithMaxTokens(150))
	if err != nil {
		return "", err
	}

	question := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"`))
	if question == "" {
		return "", fmt.Errorf("model returned an empty question")
	}
	return question, nil
}

func buildQuestionPrompt(initialQuery string, questions map[int]string, answers map[string]string, number int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The reader's initial request: %s\n\n", initialQuery)

	if len(questions) == 0 {
		b.WriteString("This is the first question.\n")
	} else {
		b.WriteString("Conversation so far:\n")
		nums := make([]int, 0, len(questions))
		for n := range questions {
			nums = append(nums, n)
		}
		sort.Ints(nums)
		for _, n := range nums {
			answer := answers[fmt.Sprintf("question_%d", n)]
			if answer == "" {
				answer = "[skipped]"
			}
			fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n\n", n, questions[n], n, answer)
		}
	}

	fmt.Fprintf(&b, "Generate follow-up question %d of 3.", number)
	return b.String()
}
