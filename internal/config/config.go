package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Session   SessionConfig
	Keys      APIKeys
	Ai        AIConfig
	Pipeline  PipelineConfig
	Retention RetentionConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	UploadDir          string
	IngestTopic        string
}

type DatabaseConfig struct {
	Connection string
}

type SessionConfig struct {
	Store string        // "redis" or "memory"
	TTL   time.Duration // default lease, 1 hour
}

type APIKeys struct {
	GoogleBooks  string
	GoogleGemini string
}

type AIConfig struct {
	EmbeddingProvider   string // "gemini" or "ollama"
	EmbeddingDimensions int
	OllamaBaseURL       string
	OllamaModel         string
	LLMProvider         string // "ollama" or "gemini"
	LLMModel            string
}

// PipelineConfig carries every tunable of the retrieval & refinement engine.
type PipelineConfig struct {
	TopK                        int
	HighRatingThreshold         int
	DislikeThreshold            int
	MinRelevantFavorites        int
	FavoritesRelevanceThreshold float64
	MinDislikesForPenalty       int
	DislikeActivationThreshold  float64
	MaxDislikePenalty           float64
	MaxFavoritesInContext       int
	MaxDislikesInContext        int
	CandidateDescriptionMax     int
	EmbeddingTextMax            int
	DescriptionMax              int
	ProgressUpdateInterval      int
	RequestTimeout              time.Duration
}

type RetentionConfig struct {
	RecommendationHorizon time.Duration
	SweepInterval         time.Duration
}

type ObservabilityConfig struct {
	Host      string
	PublicKey string
	SecretKey string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			UploadDir:          getEnv("CSV_UPLOAD_DIR", os.TempDir()+"/bookrec_csv_uploads"),
			IngestTopic:        getEnv("INGEST_LIBRARY_TOPIC_NAME", "INGEST_LIBRARY_EXPORT"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Session: SessionConfig{
			Store: getEnv("SESSION_STORE", "redis"),
			TTL:   getEnvAsDuration("SESSION_TTL", time.Hour),
		},
		Keys: APIKeys{
			GoogleBooks:  getEnv("GOOGLE_BOOKS_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "gemini"),
			EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 768),
			OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:         getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:         getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:            getEnv("LLM_MODEL", "gemini-2.0-flash"),
		},
		Pipeline: PipelineConfig{
			TopK:                        getEnvAsInt("PIPELINE_TOP_K", 20),
			HighRatingThreshold:         getEnvAsInt("PIPELINE_HIGH_RATING_THRESHOLD", 4),
			DislikeThreshold:            getEnvAsInt("PIPELINE_DISLIKE_THRESHOLD", 2),
			MinRelevantFavorites:        getEnvAsInt("PIPELINE_MIN_RELEVANT_FAVORITES", 2),
			FavoritesRelevanceThreshold: getEnvAsFloat("PIPELINE_FAVORITES_RELEVANCE_THRESHOLD", 0.35),
			MinDislikesForPenalty:       getEnvAsInt("PIPELINE_MIN_DISLIKES_FOR_PENALTY", 2),
			DislikeActivationThreshold:  getEnvAsFloat("PIPELINE_DISLIKE_ACTIVATION_THRESHOLD", 0.6),
			MaxDislikePenalty:           getEnvAsFloat("PIPELINE_MAX_DISLIKE_PENALTY", 0.3),
			MaxFavoritesInContext:       getEnvAsInt("PIPELINE_MAX_FAVORITES_IN_CONTEXT", 5),
			MaxDislikesInContext:        getEnvAsInt("PIPELINE_MAX_DISLIKES_IN_CONTEXT", 3),
			CandidateDescriptionMax:     getEnvAsInt("PIPELINE_CANDIDATE_DESCRIPTION_MAX", 200),
			EmbeddingTextMax:            getEnvAsInt("PIPELINE_EMBEDDING_TEXT_MAX", 2000),
			DescriptionMax:              getEnvAsInt("PIPELINE_DESCRIPTION_MAX", 2000),
			ProgressUpdateInterval:      getEnvAsInt("INGEST_PROGRESS_UPDATE_INTERVAL", 10),
			RequestTimeout:              getEnvAsDuration("RECOMMENDATION_REQUEST_TIMEOUT", 60*time.Second),
		},
		Retention: RetentionConfig{
			RecommendationHorizon: getEnvAsDuration("RECOMMENDATION_RETENTION_HORIZON", 30*24*time.Hour),
			SweepInterval:         getEnvAsDuration("RECOMMENDATION_SWEEP_INTERVAL", 24*time.Hour),
		},
	}
}

// Observability reads the trace collaborator settings. Kept separate from
// Load so workers that never trace do not require the keys.
func Observability() ObservabilityConfig {
	return ObservabilityConfig{
		Host:      getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		PublicKey: getEnv("LANGFUSE_PUBLIC_KEY", ""),
		SecretKey: getEnv("LANGFUSE_SECRET_KEY", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
