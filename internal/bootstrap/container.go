package bootstrap

import (
	"context"
	"log"

	"ai-bookrec-be/internal/config"
	"ai-bookrec-be/internal/controller"
	"ai-bookrec-be/internal/pkg/logger"
	"ai-bookrec-be/internal/repository/contract"
	"ai-bookrec-be/internal/repository/implementation"
	"ai-bookrec-be/internal/repository/memory"
	redisrepo "ai-bookrec-be/internal/repository/redis"
	"ai-bookrec-be/internal/repository/unitofwork"
	"ai-bookrec-be/internal/service"
	"ai-bookrec-be/pkg/booksapi"
	"ai-bookrec-be/pkg/embedding"
	"ai-bookrec-be/pkg/llm/factory"
	"ai-bookrec-be/pkg/observability"
	"ai-bookrec-be/pkg/recommend"

	pktNats "ai-bookrec-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SessionController        controller.ISessionController
	RecommendationController controller.IRecommendationController
	FeedbackController       controller.IFeedbackController

	// Background services (exposed for main.go to run)
	IngestionService service.IIngestionService
	RetentionService service.IRetentionService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI providers
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Session store
	var sessionRepo contract.SessionRepository
	if cfg.Session.Store == "memory" {
		sessionRepo = memory.NewSessionRepository(cfg.Session.TTL)
		log.Printf("[INFO] Using in-memory session store")
	} else {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		sessionRepo = redisrepo.NewSessionRepository(rdb, cfg.Session.TTL)
	}

	// 5. Infrastructure collaborators
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	booksClient := booksapi.NewClient(cfg.Keys.GoogleBooks)
	obsClient := observability.NewClient(observability.Config(config.Observability()))
	if !obsClient.Enabled() {
		log.Printf("[WARN] Observability client is not configured; traces and feedback scores are dropped")
	}

	// 6. Pipeline
	engine := recommend.NewEngine(
		implementation.NewBookRepository(db),
		embeddingProvider,
		cfg.Pipeline,
	)
	selector := recommend.NewSelector(llmProvider, cfg.Ai.LLMModel, cfg.Pipeline)

	// 7. Services
	publisherService := service.NewPublisherService(cfg.App.IngestTopic, pubSub)
	sessionService := service.NewSessionService(sessionRepo, publisherService, sysLogger)
	questionService := service.NewQuestionService(sessionService, llmProvider, sysLogger)
	ingestionService := service.NewIngestionService(
		pubSub,
		cfg.App.IngestTopic,
		uowFactory,
		sessionRepo,
		booksClient,
		embeddingProvider,
		natsPub,
		cfg.Pipeline,
		sysLogger,
	)
	recommendationService := service.NewRecommendationService(
		sessionService,
		engine,
		selector,
		uowFactory,
		obsClient,
		natsPub,
		cfg.Pipeline,
		sysLogger,
	)
	feedbackService := service.NewFeedbackService(uowFactory, obsClient, natsPub, sysLogger)
	retentionService := service.NewRetentionService(uowFactory, cfg.Retention, sysLogger)

	// 8. Controllers
	return &Container{
		SessionController:        controller.NewSessionController(sessionService, questionService, cfg.App.UploadDir),
		RecommendationController: controller.NewRecommendationController(recommendationService),
		FeedbackController:       controller.NewFeedbackController(feedbackService),

		IngestionService: ingestionService,
		RetentionService: retentionService,
	}
}
